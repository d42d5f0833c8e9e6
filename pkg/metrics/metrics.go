// Package metrics defines the Prometheus metric collectors used by the
// pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	CorpusRowsTotal      *prometheus.CounterVec
	LexiconEntries       prometheus.Gauge
	AncestryEdges        prometheus.Gauge
	LemmasAggregated     prometheus.Gauge
	ClassificationsTotal *prometheus.CounterVec
	TraversalDepth       prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	SampledLemmasTotal   *prometheus.CounterVec
	StageDurationSeconds *prometheus.HistogramVec
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	m := &Metrics{
		CorpusRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_rows_total",
				Help: "Corpus frequency rows seen, by outcome (kept, filtered_pos, filtered_key, malformed).",
			},
			[]string{"outcome"},
		),
		LexiconEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_entries",
				Help: "Number of lexical entries parsed from the lexicon source.",
			},
		),
		AncestryEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ancestry_edges",
				Help: "Number of primary-relation edges in the ancestry index.",
			},
		),
		LemmasAggregated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lemmas_aggregated",
				Help: "Distinct normalized lemgrams after frequency aggregation.",
			},
		),
		ClassificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifications_total",
				Help: "Animacy classifications by label (animate, inanimate, unknown).",
			},
			[]string{"label"},
		),
		TraversalDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ancestry_traversal_depth",
				Help:    "Depth reached by ancestry traversals.",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 50},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classification_cache_hits_total",
				Help: "Classification cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classification_cache_misses_total",
				Help: "Classification cache misses.",
			},
		),
		SampledLemmasTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sampled_lemmas_total",
				Help: "Lemmas drawn into samples, by animacy class.",
			},
			[]string{"class"},
		),
		StageDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stage_duration_seconds",
				Help:    "Wall-clock duration of each pipeline stage.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"stage"},
		),
	}

	prometheus.MustRegister(
		m.CorpusRowsTotal,
		m.LexiconEntries,
		m.AncestryEdges,
		m.LemmasAggregated,
		m.ClassificationsTotal,
		m.TraversalDepth,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SampledLemmasTotal,
		m.StageDurationSeconds,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
