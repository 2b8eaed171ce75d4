package store

import (
	"context"
	"time"
)

// =============================================================================
// Journal Types
// =============================================================================

// Run is one invocation of the rebuild sequence.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	FailedSteps int
	ProjectRoot string
}

// StepResult is the recorded outcome of one step of a run.
type StepResult struct {
	RunID     string
	Step      int
	Name      string
	Command   string
	Dir       string
	ExitCode  int
	Error     string
	Duration  time.Duration
	StartedAt time.Time
}

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for the run journal.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	RecordStep(ctx context.Context, step *StepResult) error
	FinishRun(ctx context.Context, id string, finishedAt time.Time, failedSteps int) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListSteps(ctx context.Context, runID string) ([]StepResult, error)
	Close() error
}

// DefaultListLimit is used when ListRuns is called with a non-positive limit.
const DefaultListLimit = 20
