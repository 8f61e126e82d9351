package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runStepColumns = `id, run_id, step, category, status, duration_ms, error_message, created_at, updated_at`

// RecordRunStep upserts the status of one step of a run. A step recorded twice
// keeps its first created_at.
func (db *DB) RecordRunStep(ctx context.Context, runID uuid.UUID, input *RunStepInput) error {
	if input == nil || input.Step == "" {
		return errors.New("run step name is required")
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, duration_ms, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, step) DO UPDATE
		   SET status = EXCLUDED.status,
		       duration_ms = EXCLUDED.duration_ms,
		       error_message = EXCLUDED.error_message,
		       updated_at = NOW()`,
		runID, input.Step, input.Category, input.Status, input.DurationMs, input.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run step %s: %w", input.Step, err)
	}
	return nil
}

// GetRunStep returns the named step of a run, or nil when it was never recorded.
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runStepColumns+` FROM run_steps WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run step %s: %w", stepName, err)
	}
	step, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[RunStep])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run step %s: %w", stepName, err)
	}
	return step, nil
}

// ListRunSteps returns every step of a run in recording order.
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runStepColumns+` FROM run_steps WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	steps, err := pgx.CollectRows(rows, pgx.RowToStructByName[RunStep])
	if err != nil {
		return nil, fmt.Errorf("failed to scan run steps: %w", err)
	}
	return steps, nil
}
