package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// List limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Run represents an analysis run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Company     string     `json:"company"`
	Industry    string     `json:"industry"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// EntityMetric is one entity's headline numbers from a completed run. Payload
// holds the full per-entity report and is stored as JSONB.
type EntityMetric struct {
	RunID         uuid.UUID `json:"run_id"`
	Entity        string    `json:"entity"`
	EntityKey     string    `json:"entity_key"`
	IsTarget      bool      `json:"is_target"`
	AIScore       float64   `json:"ai_score"`
	Ravi          float64   `json:"ravi"`
	CitationScore float64   `json:"citation_score"`
	TrafficShare  float64   `json:"traffic_share"`
	Coverage      float64   `json:"coverage"`
	Payload       any       `json:"payload,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
