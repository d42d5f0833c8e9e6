// Package store persists pipeline results to PostgreSQL: the unified lemma
// table, unmatched lemgrams, and drawn samples, all keyed by a run id so
// successive runs remain comparable.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klarsson/saldo-animacy/internal/aggregate"
	"github.com/klarsson/saldo-animacy/pkg/logger"
	"github.com/klarsson/saldo-animacy/pkg/postgres"
)

// Store writes pipeline output tables to PostgreSQL.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a result store.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: logger.WithComponent("result-store"),
	}
}

// EnsureSchema creates the result tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id          BIGSERIAL PRIMARY KEY,
			started_at  TIMESTAMPTZ NOT NULL,
			lexicon     TEXT NOT NULL,
			corpus      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lemma_animacy (
			run_id       BIGINT NOT NULL REFERENCES pipeline_runs(id),
			lemgram      TEXT NOT NULL,
			written_form TEXT NOT NULL,
			frequency    BIGINT NOT NULL,
			animacy      TEXT NOT NULL,
			path         TEXT NOT NULL,
			PRIMARY KEY (run_id, lemgram)
		)`,
		`CREATE TABLE IF NOT EXISTS unmatched_lemgrams (
			run_id  BIGINT NOT NULL REFERENCES pipeline_runs(id),
			lemgram TEXT NOT NULL,
			PRIMARY KEY (run_id, lemgram)
		)`,
		`CREATE TABLE IF NOT EXISTS animacy_samples (
			run_id    BIGINT NOT NULL REFERENCES pipeline_runs(id),
			class     TEXT NOT NULL,
			lemgram   TEXT NOT NULL,
			frequency BIGINT NOT NULL,
			PRIMARY KEY (run_id, class, lemgram)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// BeginRun records a new pipeline run and returns its id.
func (s *Store) BeginRun(ctx context.Context, lexiconPath, corpusPath string) (int64, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO pipeline_runs (started_at, lexicon, corpus) VALUES ($1, $2, $3) RETURNING id`,
		time.Now().UTC(), lexiconPath, corpusPath,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording pipeline run: %w", err)
	}
	return id, nil
}

// SaveResult stores the classified lemma table and the unmatched list for a
// run in one transaction.
func (s *Store) SaveResult(ctx context.Context, runID int64, res aggregate.Result) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		lemmaStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO lemma_animacy (run_id, lemgram, written_form, frequency, animacy, path)
			 VALUES ($1, $2, $3, $4, $5, $6)`)
		if err != nil {
			return fmt.Errorf("preparing lemma insert: %w", err)
		}
		defer lemmaStmt.Close()
		for _, l := range res.Lemmas {
			if _, err := lemmaStmt.ExecContext(ctx,
				runID, l.ID, l.Form, l.Frequency, l.Animacy.String(), strings.Join(l.Path, " → "),
			); err != nil {
				return fmt.Errorf("inserting lemma %s: %w", l.ID, err)
			}
		}

		unmatchedStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO unmatched_lemgrams (run_id, lemgram) VALUES ($1, $2)`)
		if err != nil {
			return fmt.Errorf("preparing unmatched insert: %w", err)
		}
		defer unmatchedStmt.Close()
		for _, id := range res.Unmatched {
			if _, err := unmatchedStmt.ExecContext(ctx, runID, id); err != nil {
				return fmt.Errorf("inserting unmatched %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("result persisted",
		"run_id", runID,
		"lemmas", len(res.Lemmas),
		"unmatched", len(res.Unmatched),
	)
	return nil
}

// SaveSample stores one drawn sample for a run under its animacy class.
func (s *Store) SaveSample(ctx context.Context, runID int64, class string, lemmas []aggregate.Lemma) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO animacy_samples (run_id, class, lemgram, frequency) VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("preparing sample insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range lemmas {
			if _, err := stmt.ExecContext(ctx, runID, class, l.ID, l.Frequency); err != nil {
				return fmt.Errorf("inserting sample row %s: %w", l.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("sample persisted", "run_id", runID, "class", class, "size", len(lemmas))
	return nil
}

// LatestRun returns the id of the most recent pipeline run, or 0 when none
// exist.
func (s *Store) LatestRun(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id FROM pipeline_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying latest run: %w", err)
	}
	return id, nil
}
