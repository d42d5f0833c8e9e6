package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/internal/sample"
)

// Summary describes one drawn sample: size, per-stratum counts, and the
// frequency quartiles used to eyeball balance between classes.
type Summary struct {
	Class      string
	Size       int
	PerStratum []int
	Min        int64
	Q1         int64
	Median     int64
	Q3         int64
	Max        int64
}

// Summarize computes a Summary for a drawn sample against the strata it was
// drawn with.
func Summarize(class string, drawn []aggregate.Lemma, strata sample.Strata) Summary {
	s := Summary{
		Class:      class,
		Size:       len(drawn),
		PerStratum: make([]int, strata.Count()),
	}
	if len(drawn) == 0 {
		return s
	}
	freqs := make([]int64, len(drawn))
	for i, l := range drawn {
		s.PerStratum[strata.Bin(l.Frequency)]++
		freqs[i] = l.Frequency
	}
	sort.Slice(freqs, func(i, j int) bool { return freqs[i] < freqs[j] })
	s.Min = freqs[0]
	s.Max = freqs[len(freqs)-1]
	s.Q1 = quantile(freqs, 0.25)
	s.Median = quantile(freqs, 0.5)
	s.Q3 = quantile(freqs, 0.75)
	return s
}

// quantile picks the nearest-rank quantile of sorted frequencies.
func quantile(sorted []int64, q float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}

// WriteSummary renders a human-readable sample summary.
func WriteSummary(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "%s: n=%d\n", s.Class, s.Size); err != nil {
		return err
	}
	fmt.Fprintln(w, "per-stratum counts:")
	for i, c := range s.PerStratum {
		fmt.Fprintf(w, "  %2d: %d\n", i, c)
	}
	_, err := fmt.Fprintf(w, "freq stats: min=%d q1=%d median=%d q3=%d max=%d\n",
		s.Min, s.Q1, s.Median, s.Q3, s.Max)
	return err
}
