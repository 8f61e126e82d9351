package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppendEntityMetrics inserts the metrics of a run in one batch.
func (db *DB) AppendEntityMetrics(ctx context.Context, runID uuid.UUID, metrics []EntityMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range metrics {
		payload, err := marshalPayload(m.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload for %s: %w", m.Entity, err)
		}
		batch.Queue(
			`INSERT INTO entity_metrics
			   (run_id, entity, entity_key, is_target, ai_score, ravi, citation_score, traffic_share, coverage, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			runID, m.Entity, m.EntityKey, m.IsTarget, m.AIScore, m.Ravi, m.CitationScore, m.TrafficShare, m.Coverage, payload,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append entity metrics: %w", err)
	}
	return nil
}

// ListRunMetrics returns every entity row of a run, target first.
func (db *DB) ListRunMetrics(ctx context.Context, runID uuid.UUID) ([]EntityMetric, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, entity, entity_key, is_target, ai_score, ravi, citation_score, traffic_share, coverage, payload, created_at
		 FROM entity_metrics WHERE run_id = $1
		 ORDER BY is_target DESC, id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run metrics: %w", err)
	}
	return scanMetrics(rows)
}

// ListEntityHistory returns the most recent metrics recorded for an entity key,
// newest first, for trend charts.
func (db *DB) ListEntityHistory(ctx context.Context, entityKey string, limit int) ([]EntityMetric, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, entity, entity_key, is_target, ai_score, ravi, citation_score, traffic_share, coverage, payload, created_at
		 FROM entity_metrics WHERE entity_key = $1
		 ORDER BY created_at DESC LIMIT $2`,
		entityKey, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity history: %w", err)
	}
	return scanMetrics(rows)
}

func scanMetrics(rows pgx.Rows) ([]EntityMetric, error) {
	defer rows.Close()

	var out []EntityMetric
	for rows.Next() {
		var m EntityMetric
		var payload []byte
		if err := rows.Scan(&m.RunID, &m.Entity, &m.EntityKey, &m.IsTarget, &m.AIScore, &m.Ravi,
			&m.CitationScore, &m.TrafficShare, &m.Coverage, &payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity metric: %w", err)
		}
		if len(payload) > 0 {
			m.Payload = json.RawMessage(payload)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// marshalPayload encodes a payload for the JSONB column. Nil stays NULL and
// already-encoded JSON is passed through.
func marshalPayload(v any) ([]byte, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, fmt.Errorf("payload is not valid JSON")
		}
		return p, nil
	default:
		return json.Marshal(v)
	}
}
