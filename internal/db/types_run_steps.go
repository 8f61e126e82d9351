package db

import (
	"time"

	"github.com/google/uuid"
)

// Step statuses written by the report runner.
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// Step categories, matching pipeline step registrations.
const (
	StepCategoryDiscovery   = "discovery"
	StepCategoryQuerying    = "querying"
	StepCategoryScoring     = "scoring"
	StepCategoryPersistence = "persistence"
)

// RunStep records the status of one report step for a run
type RunStep struct {
	ID           int64     `db:"id" json:"id"`
	RunID        uuid.UUID `db:"run_id" json:"run_id"`
	Step         string    `db:"step" json:"step"`
	Category     string    `db:"category" json:"category"`
	Status       string    `db:"status" json:"status"`
	DurationMs   *int      `db:"duration_ms" json:"duration_ms,omitempty"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RunStepInput represents input for recording a run step
type RunStepInput struct {
	Step       string
	Category   string
	Status     string
	DurationMs *int
	Error      *string
}
