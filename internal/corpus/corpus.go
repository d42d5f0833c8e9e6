// Package corpus supplies frequency rows to the aggregator. Rows come either
// from a tab-separated stats file (plain, .gz, or single-file .zip) or from a
// Kafka topic carrying JSON-encoded rows.
package corpus

import (
	"archive/zip"
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klarsson/saldo-animacy/pkg/kafka"
)

// Row is one corpus frequency observation: a surface form, its POS tag, the
// raw (possibly pipe-wrapped) lemgram identifier, and the occurrence count.
type Row struct {
	WrittenForm string `json:"written_form"`
	Pos         string `json:"pos"`
	LemgramRaw  string `json:"lemgram"`
	Frequency   int64  `json:"frequency"`
}

// scannerBufSize handles very long corpus lines.
const scannerBufSize = 4 * 1024 * 1024

// ParseLine splits a tab-separated stats line into a Row. Columns are
// positional: writtenForm, POS(+flags), lemgram, frequency; trailing columns
// are ignored. Lines that are not rows (headers, malformed counts) report
// ok=false and are skipped by the caller.
func ParseLine(line string) (Row, bool) {
	if !strings.Contains(line, "\t") {
		return Row{}, false
	}
	parts := strings.Split(strings.TrimRight(line, "\n"), "\t")
	if len(parts) < 4 {
		return Row{}, false
	}
	freq, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
	if err != nil || freq < 0 {
		return Row{}, false
	}
	return Row{
		WrittenForm: parts[0],
		Pos:         parts[1],
		LemgramRaw:  parts[2],
		Frequency:   freq,
	}, true
}

// Open opens a stats file, transparently decompressing .gz files and .zip
// archives containing a single file.
func Open(path string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return openGzip(path)
	case strings.HasSuffix(path, ".zip"):
		return openZip(path)
	default:
		return os.Open(path)
	}
}

// ScanFile streams every parsable row of a stats file into fn. Unparsable
// lines are counted and reported, not treated as errors.
func ScanFile(path string, fn func(Row)) (skipped int, err error) {
	rc, err := Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	buf := make([]byte, scannerBufSize)
	sc.Buffer(buf, scannerBufSize)
	for sc.Scan() {
		row, ok := ParseLine(sc.Text())
		if !ok {
			skipped++
			continue
		}
		fn(row)
	}
	if err := sc.Err(); err != nil {
		return skipped, fmt.Errorf("scanning corpus %s: %w", path, err)
	}
	return skipped, nil
}

// HandleRows adapts a row consumer into a Kafka message handler. Payloads
// that fail to decode are dropped; the bus is not a place to fail a batch.
func HandleRows(fn func(Row)) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		row, err := kafka.DecodeJSON[Row](value)
		if err != nil {
			return err
		}
		fn(row)
		return nil
	}
}

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (g *multiReadCloser) Close() error {
	var first error
	for _, c := range g.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip %s: %w", path, err)
	}
	return &multiReadCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
}

func openZip(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip %s: %w", path, err)
	}
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("opening %s in zip %s: %w", zf.Name, path, err)
		}
		return &multiReadCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("zip %s has no files", path)
}
