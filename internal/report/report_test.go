package report

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/internal/sample"
	"github.com/klarsson/saldo-animacy/pkg/errors"
)

type formMap map[string]string

func (m formMap) WrittenForm(id string) (string, bool) {
	form, ok := m[id]
	return form, ok
}

func TestPathString(t *testing.T) {
	forms := formMap{
		"katt..nn.1": "katt",
		"katt..1":    "katt",
	}
	got := PathString([]string{"katt..nn.1", "katt..1", "djur..1"}, forms)
	want := "katt → katt → djur..1"
	if got != want {
		t.Errorf("PathString = %q, want %q", got, want)
	}
	if got := PathString(nil, forms); got != "" {
		t.Errorf("PathString(nil) = %q, want empty", got)
	}
	// A nil source keeps identifiers as rendered.
	if got := PathString([]string{"katt..nn.1"}, nil); got != "katt..nn.1" {
		t.Errorf("PathString without forms = %q, want katt..nn.1", got)
	}
}

func TestTableRoundTrip(t *testing.T) {
	lemmas := []aggregate.Lemma{
		{ID: "katt..nn.1", Frequency: 150, Form: "katt", Animacy: ancestry.Animate,
			Path: []string{"katt..nn.1", "katt..1", "djur..1"}},
		{ID: "hus..nn.1", Frequency: 30, Form: "hus", Animacy: ancestry.Inanimate,
			Path: []string{"hus..nn.1", "byggnad..1"}},
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, lemmas, nil); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != "writtenForm\tlemgram\tfrequency\tanimacy\tpath" {
		t.Errorf("header = %q", lines[0])
	}

	got, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lemmas, want 2", len(got))
	}
	if got[0].ID != "katt..nn.1" || got[0].Frequency != 150 || got[0].Animacy != ancestry.Animate {
		t.Errorf("row 0 = %+v", got[0])
	}
	// Paths survive as their rendered elements.
	if !reflect.DeepEqual(got[1].Path, []string{"hus..nn.1", "byggnad..1"}) {
		t.Errorf("row 1 path = %v", got[1].Path)
	}
}

func TestReadTableBadRows(t *testing.T) {
	_, err := ReadTable(strings.NewReader("writtenForm\tlemgram\tfrequency\tanimacy\tpath\nkatt\tkatt..nn.1\t100\n"))
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("short row: err = %v, want ErrInvalidInput", err)
	}

	_, err = ReadTable(strings.NewReader("h\nkatt\tkatt..nn.1\tmånga\tanimate\tkatt\n"))
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("bad frequency: err = %v, want ErrInvalidInput", err)
	}
}

func TestWriteUnmatched(t *testing.T) {
	var buf bytes.Buffer
	err := WriteUnmatched(&buf, []string{"bord..nn.2", "akvarium..nn.1", "bord..nn.2"})
	if err != nil {
		t.Fatalf("WriteUnmatched: %v", err)
	}
	want := "akvarium..nn.1\nbord..nn.2\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}

	// A failing writer leaves neither the target nor the temp file behind.
	failed := filepath.Join(dir, "bad.tsv")
	writeErr := stderrors.New("boom")
	if err := WriteFileAtomic(failed, func(io.Writer) error { return writeErr }); err != writeErr {
		t.Fatalf("err = %v, want writer error", err)
	}
	if _, err := os.Stat(failed); !os.IsNotExist(err) {
		t.Error("target file exists after failed write")
	}
	if _, err := os.Stat(failed + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after failed write")
	}
}

func TestSummarize(t *testing.T) {
	var drawn []aggregate.Lemma
	for _, f := range []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		drawn = append(drawn, aggregate.Lemma{ID: "x", Frequency: f})
	}
	strata := sample.NewStrata([]int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 2)

	s := Summarize("animate", drawn, strata)
	if s.Size != 10 {
		t.Errorf("Size = %d, want 10", s.Size)
	}
	if !reflect.DeepEqual(s.PerStratum, []int{5, 5}) {
		t.Errorf("PerStratum = %v, want [5 5]", s.PerStratum)
	}
	if s.Min != 1 || s.Max != 10 {
		t.Errorf("min/max = %d/%d, want 1/10", s.Min, s.Max)
	}
	if s.Q1 != 3 || s.Median != 5 || s.Q3 != 7 {
		t.Errorf("quartiles = %d/%d/%d, want 3/5/7", s.Q1, s.Median, s.Q3)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("inanimate", nil, sample.NewStrata(nil, 4))
	if s.Size != 0 || len(s.PerStratum) != 1 {
		t.Errorf("summary = %+v", s)
	}
}
