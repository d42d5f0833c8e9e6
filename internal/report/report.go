// Package report renders pipeline results as tab-separated tables and reads
// them back for the sampling stage. Output files are written atomically
// (temp file + rename).
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/pkg/errors"
)

// pathSeparator joins path elements in the rendered table.
const pathSeparator = " → "

// tableHeader is the unified lemma table header row.
var tableHeader = []string{"writtenForm", "lemgram", "frequency", "animacy", "path"}

// PathString renders a traversal path, preferring lexicon written forms over
// raw identifiers. A nil forms source keeps the identifiers as they are.
func PathString(path []string, forms aggregate.FormSource) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id
		if forms != nil {
			if form, ok := forms.WrittenForm(id); ok && form != "" {
				parts[i] = form
			}
		}
	}
	return strings.Join(parts, pathSeparator)
}

// WriteTable writes the unified lemma table: header plus one row per lemma
// in the given order.
func WriteTable(w io.Writer, lemmas []aggregate.Lemma, forms aggregate.FormSource) error {
	bw := bufio.NewWriterSize(w, 1024*1024)
	fmt.Fprintln(bw, strings.Join(tableHeader, "\t"))
	for _, l := range lemmas {
		fmt.Fprintf(bw, "%s\t%s\t%d\t%s\t%s\n",
			l.Form, l.ID, l.Frequency, l.Animacy, PathString(l.Path, forms))
	}
	return bw.Flush()
}

// WriteUnmatched writes unmatched lemgram identifiers, one per line, sorted
// and deduplicated.
func WriteUnmatched(w io.Writer, ids []string) error {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Strings(uniq)

	bw := bufio.NewWriter(w)
	for _, id := range uniq {
		fmt.Fprintln(bw, id)
	}
	return bw.Flush()
}

// ReadTable parses a unified lemma table written by WriteTable. The path
// column is kept as its rendered elements; sampling does not re-resolve it.
func ReadTable(r io.Reader) ([]aggregate.Lemma, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 4*1024*1024)
	sc.Buffer(buf, 4*1024*1024)

	var lemmas []aggregate.Lemma
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if lineNum == 1 || line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 5 {
			return nil, errors.Newf(errors.ErrInvalidInput, errors.ExitInvalidInput,
				"table line %d: expected 5 columns, got %d", lineNum, len(parts))
		}
		freq, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrInvalidInput, errors.ExitInvalidInput,
				"table line %d: bad frequency %q", lineNum, parts[2])
		}
		var path []string
		if parts[4] != "" {
			path = strings.Split(parts[4], pathSeparator)
		}
		lemmas = append(lemmas, aggregate.Lemma{
			Form:      parts[0],
			ID:        parts[1],
			Frequency: freq,
			Animacy:   ancestry.ParseAnimacy(parts[3]),
			Path:      path,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return lemmas, nil
}

// ReadTableFile opens and parses a unified lemma table.
func ReadTableFile(path string) ([]aggregate.Lemma, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

// WriteFileAtomic writes via fn into path through a temporary file renamed
// on success.
func WriteFileAtomic(path string, fn func(w io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
