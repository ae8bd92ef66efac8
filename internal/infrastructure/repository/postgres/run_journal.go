package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/emreakar/regsearch/internal/core/ports"
)

// RunJournal persists ingestion runs and their per-document outcomes. It
// implements ports.RunJournal; journal writes are audit-only and must never
// gate the ingestion loop.
type RunJournal struct {
	db *sql.DB
}

func NewRunJournal(db *sql.DB) *RunJournal {
	return &RunJournal{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunJournal) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS index_runs (
	id TEXT PRIMARY KEY,
	start_offset INTEGER NOT NULL,
	ingested INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_documents (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES index_runs(id),
	blob_name TEXT NOT NULL,
	status TEXT NOT NULL,
	skip_reason TEXT,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_documents_run_id ON run_documents(run_id);
CREATE INDEX IF NOT EXISTS idx_run_documents_blob_name ON run_documents(blob_name);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunJournal) StartRun(ctx context.Context, offset int) (string, error) {
	runID := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO index_runs (id, start_offset, started_at) VALUES ($1, $2, $3)
`, runID, offset, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

func (r *RunJournal) RecordDocument(ctx context.Context, runID string, outcome ports.DocumentOutcome) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO run_documents (run_id, blob_name, status, skip_reason, chunk_count, processed_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, runID, outcome.BlobName, outcome.Status, outcome.SkipReason, outcome.ChunkCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert run document: %w", err)
	}
	return nil
}

func (r *RunJournal) FinishRun(ctx context.Context, runID string, ingested, skipped int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE index_runs SET ingested = $2, skipped = $3, finished_at = $4 WHERE id = $1
`, runID, ingested, skipped, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
