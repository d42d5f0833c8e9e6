// Package aggregate consumes corpus frequency rows, accumulates totals per
// normalized lemgram, and classifies each distinct lemgram through the
// ancestry index exactly once.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/internal/corpus"
	"github.com/klarsson/saldo-animacy/internal/lemgram"
	"github.com/klarsson/saldo-animacy/pkg/logger"
)

// Lemma is one aggregated, classified lemgram.
type Lemma struct {
	ID        string
	Frequency int64
	Form      string
	Animacy   ancestry.Animacy
	Path      []string
}

// Result is the outcome of a full aggregation run: classified lemmas ordered
// by frequency descending (ties by identifier ascending), and the lemgrams
// the lexicon had no entry for.
type Result struct {
	Lemmas    []Lemma
	Unmatched []string
}

// Cache stores classification results across lookups. The in-memory
// implementation scopes results to a single run; a Redis-backed one can
// carry them across runs of the same lexicon.
type Cache interface {
	Get(ctx context.Context, id string) (ancestry.Classification, bool)
	Put(ctx context.Context, id string, c ancestry.Classification)
}

type memCache map[string]ancestry.Classification

// NewMemCache returns a run-scoped in-memory classification cache.
func NewMemCache() Cache {
	return memCache{}
}

func (m memCache) Get(_ context.Context, id string) (ancestry.Classification, bool) {
	c, ok := m[id]
	return c, ok
}

func (m memCache) Put(_ context.Context, id string, c ancestry.Classification) {
	m[id] = c
}

// FormSource resolves identifiers to representative written forms. The
// lexicon is the canonical implementation.
type FormSource interface {
	WrittenForm(id string) (string, bool)
}

// Options control row filtering and classification.
type Options struct {
	// PosPrefix keeps only rows whose POS tag starts with this prefix
	// ("NN" for nouns). Empty keeps everything.
	PosPrefix string
	// MinFrequency drops lemmas whose aggregated total is below this floor.
	MinFrequency int64
	// MaxDepth bounds each ancestry traversal.
	MaxDepth int
}

// Stats counts row outcomes during aggregation.
type Stats struct {
	RowsSeen        int64
	RowsKept        int64
	RowsFilteredPos int64
	RowsFilteredKey int64
}

// Aggregator accumulates rows via Add and produces a Result via Finalize.
// It is single-writer: the pipeline is batch-oriented and feeds it from one
// goroutine. The ancestry index is not needed until Finalize, so row
// streaming may overlap with the lexicon parse.
type Aggregator struct {
	opts   Options
	logger *slog.Logger

	sums      map[string]int64
	firstForm map[string]string
	stats     Stats
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	return &Aggregator{
		opts:      opts,
		logger:    logger.WithComponent("aggregator"),
		sums:      make(map[string]int64),
		firstForm: make(map[string]string),
	}
}

// Add feeds one corpus row into the running totals. Rows failing the POS
// prefix filter or normalizing to a degenerate key are counted and dropped.
func (a *Aggregator) Add(row corpus.Row) {
	a.stats.RowsSeen++
	if a.opts.PosPrefix != "" && !strings.HasPrefix(row.Pos, a.opts.PosPrefix) {
		a.stats.RowsFilteredPos++
		return
	}
	id := lemgram.Normalize(row.LemgramRaw)
	if len(id) <= 1 {
		a.stats.RowsFilteredKey++
		return
	}
	a.stats.RowsKept++
	a.sums[id] += row.Frequency
	if _, seen := a.firstForm[id]; !seen {
		a.firstForm[id] = row.WrittenForm
	}
}

// Stats returns the row counters accumulated so far.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Finalize classifies every distinct lemgram exactly once (through the
// cache), applies the frequency floor, and partitions matched lemmas from
// unmatched ones. Representative forms come from forms when known, then the
// first-seen corpus form, then the bare lemma; forms may be nil. A nil cache
// gets a run-scoped in-memory one. The result ordering is deterministic:
// frequency descending, then identifier ascending.
func (a *Aggregator) Finalize(ctx context.Context, index *ancestry.Index, roots ancestry.RootSet, forms FormSource, cache Cache) Result {
	if cache == nil {
		cache = NewMemCache()
	}
	ids := make([]string, 0, len(a.sums))
	for id := range a.sums {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var res Result
	for _, id := range ids {
		total := a.sums[id]
		if total < a.opts.MinFrequency {
			continue
		}
		c, ok := cache.Get(ctx, id)
		if !ok {
			c = index.Classify(id, roots, a.opts.MaxDepth)
			cache.Put(ctx, id, c)
		}
		if c.Animacy == ancestry.Unknown {
			res.Unmatched = append(res.Unmatched, id)
			continue
		}
		res.Lemmas = append(res.Lemmas, Lemma{
			ID:        id,
			Frequency: total,
			Form:      a.representativeForm(id, forms),
			Animacy:   c.Animacy,
			Path:      c.Path,
		})
	}

	sort.SliceStable(res.Lemmas, func(i, j int) bool {
		if res.Lemmas[i].Frequency != res.Lemmas[j].Frequency {
			return res.Lemmas[i].Frequency > res.Lemmas[j].Frequency
		}
		return res.Lemmas[i].ID < res.Lemmas[j].ID
	})

	a.logger.Info("aggregation finalized",
		"lemmas", len(res.Lemmas),
		"unmatched", len(res.Unmatched),
		"rows_seen", a.stats.RowsSeen,
		"rows_kept", a.stats.RowsKept,
	)
	return res
}

func (a *Aggregator) representativeForm(id string, forms FormSource) string {
	if forms != nil {
		if form, ok := forms.WrittenForm(id); ok && form != "" {
			return form
		}
	}
	if form, ok := a.firstForm[id]; ok && form != "" {
		return form
	}
	return lemgram.Base(id)
}
