// Package runner spawns the child processes of the rebuild sequence.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/artpar/rta-rebuild/internal/core/sequence"
)

// Result is the outcome of one child process.
type Result struct {
	// ExitCode is the child's exit status, or -1 if it never ran
	// or was killed by a signal.
	ExitCode  int
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether the step did not exit cleanly.
func (r Result) Failed() bool {
	return r.ExitCode != 0 || r.Err != nil
}

// Runner executes a single command and waits for it to exit.
// Implementations never abort a sequence: every outcome is a Result.
type Runner interface {
	Run(ctx context.Context, cmd sequence.Command) Result
}

// =============================================================================
// ExecRunner
// =============================================================================

// ExecRunner runs commands as direct child processes, with no shell in
// between, and connects them to the given streams.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Env is appended to the inherited environment.
	Env []string

	now func() time.Time
}

// NewExecRunner creates a runner that inherits the parent's std streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		now:    time.Now,
	}
}

// Run spawns cmd, waits for it, and reports its exit status. It never
// inspects the child's output.
func (r *ExecRunner) Run(ctx context.Context, cmd sequence.Command) Result {
	now := r.now
	if now == nil {
		now = time.Now
	}
	started := now()
	step := cmd.Step()

	if cmd.Program == "" {
		return Result{
			ExitCode:  -1,
			Err:       NewRunError("Start", step, "", "no program", ErrEmptyCommand),
			StartedAt: started,
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{
			ExitCode:  -1,
			Err:       NewRunError("Start", step, cmd.Program, err.Error(), ErrCancelled),
			StartedAt: started,
		}
	}

	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	if len(r.Env) > 0 {
		c.Env = append(os.Environ(), r.Env...)
	}

	if err := c.Start(); err != nil {
		return Result{
			ExitCode:  -1,
			Err:       NewRunError("Start", step, cmd.Program, err.Error(), fmt.Errorf("%w: %w", ErrStartFailed, err)),
			StartedAt: started,
			Duration:  now().Sub(started),
		}
	}

	err := c.Wait()
	res := Result{
		ExitCode:  0,
		StartedAt: started,
		Duration:  now().Sub(started),
	}
	if err == nil {
		return res
	}

	if ctx.Err() != nil {
		res.ExitCode = exitCodeOf(err)
		res.Err = NewRunError("Wait", step, cmd.Program, ctx.Err().Error(), ErrCancelled)
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		res.Err = NewRunError("Wait", step, cmd.Program, fmt.Sprintf("exit status %d", res.ExitCode), ErrNonZeroExit)
		return res
	}

	res.ExitCode = -1
	res.Err = NewRunError("Wait", step, cmd.Program, err.Error(), err)
	return res
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
