// Command sample draws frequency-balanced random samples of animate and
// inanimate lemmas from a unified lemma table. Strata are computed once over
// the combined population so the two class samples stay comparable.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/internal/report"
	"github.com/klarsson/saldo-animacy/internal/sample"
	"github.com/klarsson/saldo-animacy/internal/store"
	"github.com/klarsson/saldo-animacy/pkg/config"
	"github.com/klarsson/saldo-animacy/pkg/errors"
	"github.com/klarsson/saldo-animacy/pkg/logger"
	"github.com/klarsson/saldo-animacy/pkg/metrics"
	"github.com/klarsson/saldo-animacy/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	tablePath := flag.String("table", "", "unified lemma table path (overrides config)")
	n := flag.Int("n", 0, "sample size per class (overrides config)")
	seed := flag.Int64("seed", 0, "random seed (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(errors.ExitInvalidInput)
	}
	if *n > 0 {
		cfg.Sample.N = *n
	}
	if *seed != 0 {
		cfg.Sample.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(errors.ExitInvalidInput)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	table := *tablePath
	if table == "" {
		table = filepath.Join(cfg.Output.Dir, cfg.Output.TableFile)
	}
	if err := run(cfg, table); err != nil {
		slog.Error("sample failed", "error", err)
		os.Exit(errors.ExitCode(err))
	}
	slog.Info("sample finished")
}

func run(cfg *config.Config, tablePath string) error {
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
	started := time.Now()

	lemmas, err := report.ReadTableFile(tablePath)
	if err != nil {
		return err
	}
	slog.Info("unified table loaded", "path", tablePath, "rows", len(lemmas))

	// Zero-frequency rows carry no sampling weight; unknowns never reach
	// the table, but filter defensively on re-read.
	var animate, inanimate []aggregate.Lemma
	var freqs []int64
	for _, l := range lemmas {
		if l.Frequency <= 0 {
			continue
		}
		switch l.Animacy {
		case ancestry.Animate:
			animate = append(animate, l)
		case ancestry.Inanimate:
			inanimate = append(inanimate, l)
		default:
			continue
		}
		freqs = append(freqs, l.Frequency)
	}

	// Shared strata over both classes keep the two samples comparable.
	strata := sample.NewStrata(freqs, cfg.Sample.StrataCount)
	rng := rand.New(rand.NewSource(cfg.Sample.Seed))

	classes := []struct {
		name string
		pop  []aggregate.Lemma
	}{
		{"animate", animate},
		{"inanimate", inanimate},
	}

	var firstErr error
	drawn := make(map[string][]aggregate.Lemma, len(classes))
	for _, cls := range classes {
		s, err := sample.DrawWithStrata(cls.pop, cfg.Sample.N, rng, strata)
		if err != nil {
			// Fatal for this class only; the other may still succeed.
			slog.Error("sampling class failed", "class", cls.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		drawn[cls.name] = s
		if m != nil {
			m.SampledLemmasTotal.WithLabelValues(cls.name).Add(float64(len(s)))
		}

		path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_%s.tsv", cfg.Output.SamplePrefix, cls.name))
		err = report.WriteFileAtomic(path, func(w io.Writer) error {
			return report.WriteTable(w, s, nil)
		})
		if err != nil {
			return err
		}
		slog.Info("sample written", "class", cls.name, "path", path, "size", len(s))

		summary := report.Summarize(cls.name, s, strata)
		if err := report.WriteSummary(os.Stderr, summary); err != nil {
			return err
		}
	}

	if m != nil {
		m.StageDurationSeconds.WithLabelValues("sample").Observe(time.Since(started).Seconds())
	}

	if cfg.Postgres.Enabled && len(drawn) > 0 {
		if err := persist(context.Background(), cfg, drawn); err != nil {
			return err
		}
	}
	return firstErr
}

func persist(ctx context.Context, cfg *config.Config, drawn map[string][]aggregate.Lemma) error {
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
	runID, err := st.LatestRun(ctx)
	if err != nil {
		return err
	}
	if runID == 0 {
		slog.Warn("no recorded pipeline run; samples not persisted")
		return nil
	}
	for class, lemmas := range drawn {
		if err := st.SaveSample(ctx, runID, class, lemmas); err != nil {
			return err
		}
	}
	return nil
}
