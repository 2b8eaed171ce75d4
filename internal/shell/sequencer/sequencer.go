// Package sequencer drives the rebuild sequence through a runner.
//
// Every step is attempted in order regardless of how the previous one
// exited. Results are reported, never acted upon.
package sequencer

import (
	"context"
	"log/slog"
	"time"

	"github.com/artpar/rta-rebuild/internal/core/sequence"
	"github.com/artpar/rta-rebuild/internal/shell/runner"
	"github.com/google/uuid"
)

// =============================================================================
// Report
// =============================================================================

// StepReport pairs a command with its outcome.
type StepReport struct {
	Command sequence.Command
	Result  runner.Result
}

// Report is the outcome of one pass over the sequence.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepReport
	Final      sequence.Stage
}

// Failed returns the number of steps that did not exit cleanly.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Result.Failed() {
			n++
		}
	}
	return n
}

// =============================================================================
// Observer
// =============================================================================

// Observer is notified as the sequence progresses. Errors returned by an
// observer are logged and otherwise ignored.
type Observer interface {
	RunStarted(ctx context.Context, runID string, at time.Time) error
	StepFinished(ctx context.Context, runID string, step StepReport) error
	RunFinished(ctx context.Context, report *Report) error
}

// =============================================================================
// Sequencer
// =============================================================================

// Sequencer runs a fixed list of commands one after another.
type Sequencer struct {
	runner    runner.Runner
	commands  []sequence.Command
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time
	newID     func() string
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithObserver registers an observer. Observers are called in order.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		s.now = now
	}
}

// WithIDGenerator overrides run ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Sequencer) {
		s.newID = gen
	}
}

// New creates a Sequencer for the resolved commands.
func New(r runner.Runner, commands []sequence.Command, logger *slog.Logger, opts ...Option) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sequencer{
		runner:   r,
		commands: append([]sequence.Command(nil), commands...),
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// commandFor returns the resolved command for a stage, falling back to the
// default descriptor so that no stage is skipped.
func (s *Sequencer) commandFor(st sequence.Stage) sequence.Command {
	if cmd, ok := sequence.Find(s.commands, st); ok {
		return cmd
	}
	cmd, _ := sequence.Lookup(st)
	s.logger.Warn("no resolved command for step, using default",
		"step", st.Number(),
		"name", st.String(),
		"command", cmd.String(),
	)
	return cmd
}

// Run walks the stages from sequence.FirstStage, running each stage's command
// and waiting for it to exit before starting the next. It always reaches
// sequence.StageDone.
func (s *Sequencer) Run(ctx context.Context) *Report {
	report := &Report{
		RunID:     s.newID(),
		StartedAt: s.now(),
		Steps:     make([]StepReport, 0, len(s.commands)),
	}
	s.logger.Info("rebuild started", "run_id", report.RunID, "first", sequence.FirstStage.String())

	for _, o := range s.observers {
		if err := o.RunStarted(ctx, report.RunID, report.StartedAt); err != nil {
			s.logger.Warn("observer failed", "event", "run_started", "error", err)
		}
	}

	st := sequence.FirstStage
	for ; !st.IsTerminal(); st = st.Next() {
		cmd := s.commandFor(st)
		s.logger.Info("step started",
			"step", cmd.Step(),
			"name", cmd.Name,
			"command", cmd.String(),
			"dir", cmd.Dir,
		)

		res := s.runner.Run(ctx, cmd)
		step := StepReport{Command: cmd, Result: res}
		report.Steps = append(report.Steps, step)

		attrs := []any{
			"step", cmd.Step(),
			"name", cmd.Name,
			"exit_code", res.ExitCode,
			"duration", res.Duration,
		}
		if res.Failed() {
			if res.Err != nil {
				attrs = append(attrs, "error", res.Err)
			}
			s.logger.Warn("step failed, continuing", attrs...)
		} else {
			s.logger.Info("step finished", attrs...)
		}

		for _, o := range s.observers {
			if err := o.StepFinished(ctx, report.RunID, step); err != nil {
				s.logger.Warn("observer failed", "event", "step_finished", "step", cmd.Step(), "error", err)
			}
		}
	}

	report.FinishedAt = s.now()
	report.Final = st
	s.logger.Info("rebuild finished",
		"run_id", report.RunID,
		"failed_steps", report.Failed(),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	for _, o := range s.observers {
		if err := o.RunFinished(ctx, report); err != nil {
			s.logger.Warn("observer failed", "event", "run_finished", "error", err)
		}
	}
	return report
}
