//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.EnsureSchema(context.Background()))
	return db
}

func TestRunLifecycle_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID := uuid.New()
	require.NoError(t, db.CreateRun(ctx, runID, "Etsy", "handmade goods"))

	key := "itest" + uuid.NewString()[:8]
	err := db.AppendEntityMetrics(ctx, runID, []EntityMetric{
		{Entity: "Etsy", EntityKey: key, IsTarget: true, AIScore: 7.2, Ravi: 61.25, Payload: map[string]int{"mentions": 3}},
		{Entity: "eBay", EntityKey: key + "x", AIScore: 5.1, Ravi: 40},
	})
	require.NoError(t, err)

	dur := 120
	require.NoError(t, db.RecordRunStep(ctx, runID, &RunStepInput{Step: "ravi_index", Category: StepCategoryScoring, Status: StepStatusCompleted, DurationMs: &dur}))
	require.NoError(t, db.CompleteRun(ctx, runID, RunStatusCompleted))

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)

	metrics, err := db.ListRunMetrics(ctx, runID)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.True(t, metrics[0].IsTarget)

	history, err := db.ListEntityHistory(ctx, key, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 61.25, history[0].Ravi, 1e-9)

	step, err := db.GetRunStep(ctx, runID, "ravi_index")
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, StepStatusCompleted, step.Status)

	missing, err := db.GetRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
