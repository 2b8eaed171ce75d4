package main

import (
	"context"
	"time"

	"github.com/artpar/rta-rebuild/internal/shell/metrics"
	"github.com/artpar/rta-rebuild/internal/shell/sequencer"
	"github.com/artpar/rta-rebuild/internal/shell/store"
)

// =============================================================================
// Journal Observer
// =============================================================================

// journalObserver writes each run and its steps to the run journal.
type journalObserver struct {
	store store.Store
	root  string
}

func (j *journalObserver) RunStarted(ctx context.Context, runID string, at time.Time) error {
	return j.store.CreateRun(context.WithoutCancel(ctx), &store.Run{
		ID:          runID,
		StartedAt:   at,
		ProjectRoot: j.root,
	})
}

func (j *journalObserver) StepFinished(ctx context.Context, runID string, step sequencer.StepReport) error {
	res := &store.StepResult{
		RunID:     runID,
		Step:      step.Command.Step(),
		Name:      step.Command.Name,
		Command:   step.Command.String(),
		Dir:       step.Command.Dir,
		ExitCode:  step.Result.ExitCode,
		Duration:  step.Result.Duration,
		StartedAt: step.Result.StartedAt,
	}
	if step.Result.Err != nil {
		res.Error = step.Result.Err.Error()
	}
	return j.store.RecordStep(context.WithoutCancel(ctx), res)
}

func (j *journalObserver) RunFinished(ctx context.Context, report *sequencer.Report) error {
	return j.store.FinishRun(context.WithoutCancel(ctx), report.RunID, report.FinishedAt, report.Failed())
}

// =============================================================================
// Metrics Observer
// =============================================================================

// metricsObserver feeds step outcomes to the textfile recorder and flushes
// it once the run is over.
type metricsObserver struct {
	recorder *metrics.Recorder
}

func (m *metricsObserver) RunStarted(context.Context, string, time.Time) error {
	return nil
}

func (m *metricsObserver) StepFinished(_ context.Context, _ string, step sequencer.StepReport) error {
	m.recorder.ObserveStep(step.Command.Step(), step.Command.Name, step.Result.ExitCode, step.Result.Duration)
	return nil
}

func (m *metricsObserver) RunFinished(_ context.Context, report *sequencer.Report) error {
	m.recorder.ObserveRun(report.FinishedAt, report.Failed())
	return m.recorder.Flush()
}
