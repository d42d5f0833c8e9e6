// Package sample draws frequency-balanced random samples from classified
// lemma populations. Strata are equal-count frequency bins; quotas are
// allocated by largest remainder and drawn without replacement from a seeded
// generator, so identical inputs always produce identical samples.
package sample

import (
	"math/rand"
	"sort"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/pkg/errors"
)

// Strata is a partition of the frequency axis into half-open intervals
// [low, high). Boundaries come from the observed distribution (equal-count
// binning); duplicate boundaries collapse, so the effective stratum count may
// be lower than requested on small or skewed populations.
type Strata struct {
	bounds []int64
}

// NewStrata computes equal-count bin boundaries from the given frequencies.
func NewStrata(freqs []int64, count int) Strata {
	if count < 1 {
		count = 1
	}
	if len(freqs) == 0 || count == 1 {
		return Strata{}
	}
	sorted := append([]int64(nil), freqs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var bounds []int64
	for i := 1; i < count; i++ {
		b := sorted[i*len(sorted)/count]
		if len(bounds) == 0 || b > bounds[len(bounds)-1] {
			bounds = append(bounds, b)
		}
	}
	return Strata{bounds: bounds}
}

// Count returns the number of strata.
func (s Strata) Count() int {
	return len(s.bounds) + 1
}

// Bin returns the stratum index for a frequency.
func (s Strata) Bin(freq int64) int {
	return sort.Search(len(s.bounds), func(i int) bool { return s.bounds[i] > freq })
}

// Draw samples min(n, |population|) lemmas using strata computed from the
// population itself. See DrawWithStrata.
func Draw(population []aggregate.Lemma, n int, seed int64, strataCount int) ([]aggregate.Lemma, error) {
	freqs := make([]int64, len(population))
	for i, l := range population {
		freqs[i] = l.Frequency
	}
	rng := rand.New(rand.NewSource(seed))
	return DrawWithStrata(population, n, rng, NewStrata(freqs, strataCount))
}

// DrawWithStrata samples min(n, |population|) lemmas, allocating the quota
// across strata proportionally to stratum size (largest-remainder rounding)
// and redistributing any stratum shortfall to strata with spare capacity.
// The sample preserves population order. Callers comparing animacy classes
// pass the same Strata for both, computed over the combined population.
//
// An empty population with n > 0 fails with ErrInsufficientPopulation.
func DrawWithStrata(population []aggregate.Lemma, n int, rng *rand.Rand, strata Strata) ([]aggregate.Lemma, error) {
	if len(population) == 0 {
		if n > 0 {
			return nil, errors.Newf(errors.ErrInsufficientPopulation, errors.ExitEmptyPopulation,
				"cannot draw %d from empty population", n)
		}
		return nil, nil
	}
	if n <= 0 {
		return []aggregate.Lemma{}, nil
	}

	k := strata.Count()
	bins := make([]int, len(population))
	capacity := make([]int, k)
	for i, l := range population {
		b := strata.Bin(l.Frequency)
		bins[i] = b
		capacity[b]++
	}

	target := n
	if len(population) < target {
		target = len(population)
	}

	need := allocate(capacity, len(population), target)
	redistribute(need, capacity, target)

	// Draw without replacement per stratum; output keeps population order.
	selected := make([]bool, len(population))
	for b := 0; b < k; b++ {
		take := need[b]
		if take <= 0 {
			continue
		}
		var pool []int
		for i, bin := range bins {
			if bin == b {
				pool = append(pool, i)
			}
		}
		if take >= len(pool) {
			for _, i := range pool {
				selected[i] = true
			}
			continue
		}
		for _, j := range rng.Perm(len(pool))[:take] {
			selected[pool[j]] = true
		}
	}

	out := make([]aggregate.Lemma, 0, target)
	for i, l := range population {
		if selected[i] {
			out = append(out, l)
		}
	}
	return out, nil
}

// allocate distributes target across strata proportionally to capacity using
// the largest-remainder method. Ties break on lower stratum index.
func allocate(capacity []int, total, target int) []int {
	k := len(capacity)
	need := make([]int, k)
	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, 0, k)
	assigned := 0
	for i, c := range capacity {
		exact := float64(target) * float64(c) / float64(total)
		need[i] = int(exact)
		assigned += need[i]
		rems = append(rems, rem{idx: i, frac: exact - float64(need[i])})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; i < len(rems) && assigned < target; i++ {
		need[rems[i].idx]++
		assigned++
	}
	return need
}

// redistribute caps quotas by stratum capacity and shifts the shortfall to
// strata with spare room, most spare first (ties on lower index), until the
// quotas again sum to target.
func redistribute(need, capacity []int, target int) {
	short := 0
	for i := range need {
		if need[i] > capacity[i] {
			short += need[i] - capacity[i]
			need[i] = capacity[i]
		}
	}
	for short > 0 {
		best := -1
		bestSpare := 0
		for i := range need {
			if spare := capacity[i] - need[i]; spare > bestSpare {
				best, bestSpare = i, spare
			}
		}
		if best < 0 {
			return
		}
		add := bestSpare
		if add > short {
			add = short
		}
		need[best] += add
		short -= add
	}
}
