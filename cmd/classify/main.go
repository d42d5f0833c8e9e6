// Command classify joins a SALDO lexicon with corpus lemgram frequencies,
// classifies every noun lemgram as animate or inanimate by ancestry tracing,
// and writes the unified lemma table plus the unmatched-lemgram list.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/internal/cache"
	"github.com/klarsson/saldo-animacy/internal/corpus"
	"github.com/klarsson/saldo-animacy/internal/lexicon"
	"github.com/klarsson/saldo-animacy/internal/report"
	"github.com/klarsson/saldo-animacy/internal/store"
	"github.com/klarsson/saldo-animacy/pkg/config"
	"github.com/klarsson/saldo-animacy/pkg/errors"
	pkgkafka "github.com/klarsson/saldo-animacy/pkg/kafka"
	"github.com/klarsson/saldo-animacy/pkg/logger"
	"github.com/klarsson/saldo-animacy/pkg/metrics"
	"github.com/klarsson/saldo-animacy/pkg/postgres"
	pkgredis "github.com/klarsson/saldo-animacy/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	lexiconPath := flag.String("lexicon", "", "lexicon XML path (overrides config)")
	statsPath := flag.String("stats", "", "corpus stats path (overrides config)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	flushCache := flag.Bool("flush-cache", false, "drop cached classifications for this lexicon before running")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(errors.ExitInvalidInput)
	}
	if *lexiconPath != "" {
		cfg.Lexicon.Path = *lexiconPath
	}
	if *statsPath != "" {
		cfg.Corpus.Path = *statsPath
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(errors.ExitInvalidInput)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting classify",
		"lexicon", cfg.Lexicon.Path,
		"corpus_source", cfg.Corpus.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *flushCache); err != nil {
		slog.Error("classify failed", "error", err)
		os.Exit(errors.ExitCode(err))
	}
	slog.Info("classify finished")
}

func run(ctx context.Context, cfg *config.Config, flushCache bool) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	agg := aggregate.New(aggregate.Options{
		PosPrefix:    cfg.Corpus.PosPrefix,
		MinFrequency: cfg.Corpus.MinFrequency,
		MaxDepth:     cfg.Classify.MaxDepth,
	})

	// Lexicon parse and corpus streaming are independent; classification
	// starts only after both are fully materialized.
	var lex *lexicon.Lexicon
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		started := time.Now()
		var err error
		lex, err = lexicon.ParseFile(cfg.Lexicon.Path)
		if err != nil {
			return err
		}
		observeStage(m, "lexicon_parse", started)
		slog.Info("lexicon parsed", "entries", lex.Entries)
		return nil
	})
	g.Go(func() error {
		started := time.Now()
		switch cfg.Corpus.Source {
		case "kafka":
			consumer := pkgkafka.NewConsumer(cfg.Kafka, corpus.HandleRows(agg.Add))
			if err := consumer.Start(gctx); err != nil {
				return fmt.Errorf("consuming corpus rows: %w", err)
			}
		default:
			skipped, err := corpus.ScanFile(cfg.Corpus.Path, agg.Add)
			if err != nil {
				return err
			}
			if skipped > 0 {
				slog.Info("skipped unparsable corpus lines", "count", skipped)
			}
		}
		observeStage(m, "corpus_scan", started)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// A signal that stopped the Kafka stream must not abort finalization.
	ctx = context.WithoutCancel(ctx)

	started := time.Now()
	index := ancestry.Build(lex.Edges(cfg.Lexicon.Relation), cfg.Lexicon.Relation)
	roots := ancestry.NewRootSet(cfg.Lexicon.Roots)
	slog.Info("ancestry index built", "entries", index.Len(), "edges", index.EdgeCount())

	var clsCache aggregate.Cache
	var redisCache *cache.Redis
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return errors.Newf(errors.ErrStoreUnavailable, errors.ExitStoreUnavailable,
				"redis: %v", err)
		}
		defer client.Close()
		sum, err := cache.LexiconChecksum(cfg.Lexicon.Path)
		if err != nil {
			return err
		}
		redisCache = cache.NewRedis(client, cfg.Redis.CacheTTL, sum)
		if flushCache {
			n, err := redisCache.Flush(ctx)
			if err != nil {
				return fmt.Errorf("flushing classification cache: %w", err)
			}
			slog.Info("classification cache flushed", "keys", n)
		}
		clsCache = redisCache
	}

	res := agg.Finalize(ctx, index, roots, lex, clsCache)
	observeStage(m, "classify", started)
	recordMetrics(m, agg, lex, index, res, redisCache)

	if err := writeOutputs(cfg, res, lex); err != nil {
		return err
	}

	if cfg.Postgres.Enabled {
		if err := persist(ctx, cfg, res); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputs(cfg *config.Config, res aggregate.Result, forms aggregate.FormSource) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tablePath := filepath.Join(cfg.Output.Dir, cfg.Output.TableFile)
	err := report.WriteFileAtomic(tablePath, func(w io.Writer) error {
		return report.WriteTable(w, res.Lemmas, forms)
	})
	if err != nil {
		return err
	}
	slog.Info("unified table written", "path", tablePath, "rows", len(res.Lemmas))

	unmatchedPath := filepath.Join(cfg.Output.Dir, cfg.Output.UnmatchedFile)
	err = report.WriteFileAtomic(unmatchedPath, func(w io.Writer) error {
		return report.WriteUnmatched(w, res.Unmatched)
	})
	if err != nil {
		return err
	}
	slog.Info("unmatched list written", "path", unmatchedPath, "lemgrams", len(res.Unmatched))
	return nil
}

func persist(ctx context.Context, cfg *config.Config, res aggregate.Result) error {
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return errors.Newf(errors.ErrStoreUnavailable, errors.ExitStoreUnavailable,
			"postgres: %v", err)
	}
	defer db.Close()

	st := store.New(db)
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	runID, err := st.BeginRun(ctx, cfg.Lexicon.Path, cfg.Corpus.Path)
	if err != nil {
		return err
	}
	return st.SaveResult(ctx, runID, res)
}

func observeStage(m *metrics.Metrics, stage string, started time.Time) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

func recordMetrics(m *metrics.Metrics, agg *aggregate.Aggregator, lex *lexicon.Lexicon,
	index *ancestry.Index, res aggregate.Result, redisCache *cache.Redis) {
	if m == nil {
		return
	}
	stats := agg.Stats()
	m.CorpusRowsTotal.WithLabelValues("kept").Add(float64(stats.RowsKept))
	m.CorpusRowsTotal.WithLabelValues("filtered_pos").Add(float64(stats.RowsFilteredPos))
	m.CorpusRowsTotal.WithLabelValues("filtered_key").Add(float64(stats.RowsFilteredKey))
	m.LexiconEntries.Set(float64(lex.Entries))
	m.AncestryEdges.Set(float64(index.EdgeCount()))
	m.LemmasAggregated.Set(float64(len(res.Lemmas) + len(res.Unmatched)))
	for _, l := range res.Lemmas {
		m.ClassificationsTotal.WithLabelValues(l.Animacy.String()).Inc()
		m.TraversalDepth.Observe(float64(len(l.Path)))
	}
	m.ClassificationsTotal.WithLabelValues("unknown").Add(float64(len(res.Unmatched)))
	if redisCache != nil {
		hits, misses := redisCache.Counters()
		m.CacheHitsTotal.Add(float64(hits))
		m.CacheMissesTotal.Add(float64(misses))
	}
}
