// Package db provides PostgreSQL storage for the append-only analysis run log.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the run log tables. Rows are only ever inserted, except for the
// status and completion time of a run.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company      TEXT NOT NULL,
	industry     TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS entity_metrics (
	id             BIGSERIAL PRIMARY KEY,
	run_id         UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
	entity         TEXT NOT NULL,
	entity_key     TEXT NOT NULL,
	is_target      BOOLEAN NOT NULL DEFAULT FALSE,
	ai_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	ravi           DOUBLE PRECISION NOT NULL DEFAULT 0,
	citation_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	traffic_share  DOUBLE PRECISION NOT NULL DEFAULT 0,
	coverage       DOUBLE PRECISION NOT NULL DEFAULT 0,
	payload        JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS entity_metrics_key_created_idx ON entity_metrics (entity_key, created_at DESC);

CREATE TABLE IF NOT EXISTS run_steps (
	id            BIGSERIAL PRIMARY KEY,
	run_id        UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
	step          TEXT NOT NULL,
	category      TEXT NOT NULL,
	status        TEXT NOT NULL,
	duration_ms   INTEGER,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id, step)
);
`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the run log tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateRun inserts a run record under the given ID. The report runner assigns
// IDs up front so progress events and the stored run share one identifier.
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, company, industry string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO analysis_runs (id, company, industry, status)
		 VALUES ($1, $2, $3, $4)`,
		runID, company, industry, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun sets the final status of a run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE analysis_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, company, industry, status, created_at, completed_at
		 FROM analysis_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Company, &run.Industry, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves the most recent runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, company, industry, status, created_at, completed_at
		 FROM analysis_runs ORDER BY created_at DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Company, &run.Industry, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// clampLimit keeps list queries between 1 and MaxListLimit rows.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
