package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks the lifecycle of a generation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one city generation run. Runs are one-shot: a run either
// completes and its dots replace the previous set for the city, or it
// fails and leaves the previous set untouched.
type Run struct {
	ID         string     `json:"id"`
	City       string     `json:"city"`
	Seed       int64      `json:"seed"`
	Ratio      float64    `json:"ratio"`
	Status     RunStatus  `json:"status"`
	DotCount   int        `json:"dot_count"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewRun creates a running Run with a fresh ID.
func NewRun(city string, seed int64, ratio float64) *Run {
	return &Run{
		ID:        uuid.NewString(),
		City:      city,
		Seed:      seed,
		Ratio:     ratio,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}
