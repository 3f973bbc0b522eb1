// Package store persists generation runs and their dot collections.
package store

import (
	"context"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	City   string
	Status model.RunStatus
	Limit  int
	Offset int
}

// Store defines the persistence interface for dot generation runs.
// SaveDots replaces the previous dot set for the run's city in a single
// transaction, so readers never observe a half-written collection.
type Store interface {
	CreateRun(ctx context.Context, run *model.Run) error
	CompleteRun(ctx context.Context, runID string, dotCount int) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	SaveDots(ctx context.Context, runID string, collection *model.DotCollection) error

	Migrate(ctx context.Context) error
	Close() error
}
