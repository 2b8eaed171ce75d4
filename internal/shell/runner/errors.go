package runner

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrEmptyCommand is returned when a descriptor has no program.
	ErrEmptyCommand = errors.New("command has no program")

	// ErrStartFailed is returned when the child process could not be spawned,
	// e.g. the binary or the working directory does not exist.
	ErrStartFailed = errors.New("process failed to start")

	// ErrNonZeroExit marks a child that ran and exited non-zero.
	ErrNonZeroExit = errors.New("process exited non-zero")

	// ErrCancelled is returned when the context ended before or during the step.
	ErrCancelled = errors.New("step cancelled")
)

// RunError wraps errors with the step that produced them.
type RunError struct {
	Op      string // Operation that failed (e.g., "Start", "Wait")
	Step    int    // 1-based step number
	Program string
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Program != "" {
		return fmt.Sprintf("%s step %d (%s): %s", e.Op, e.Step, e.Program, e.Message)
	}
	return fmt.Sprintf("%s step %d: %s", e.Op, e.Step, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError.
func NewRunError(op string, step int, program, message string, err error) *RunError {
	return &RunError{
		Op:      op,
		Step:    step,
		Program: program,
		Message: message,
		Err:     err,
	}
}
