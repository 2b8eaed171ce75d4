package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/artpar/rta-rebuild/internal/core/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

const helperEnv = "RTA_REBUILD_HELPER_PROCESS"

// TestHelperProcess is not a real test. It is the child process spawned by
// the tests below, re-executing the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(100)
	}
	switch args[1] {
	case "exit":
		code, _ := strconv.Atoi(args[2])
		os.Exit(code)
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Print(wd)
		os.Exit(0)
	case "args":
		fmt.Print(strings.Join(args[2:], "|"))
		os.Exit(0)
	}
	os.Exit(100)
}

func newTestRunner(stdout *bytes.Buffer) *ExecRunner {
	r := NewExecRunner()
	r.Stdin = nil
	r.Stdout = stdout
	r.Stderr = &bytes.Buffer{}
	r.Env = []string{helperEnv + "=1"}
	return r
}

func helperCommand(stage sequence.Stage, dir string, args ...string) sequence.Command {
	return sequence.Command{
		Stage:   stage,
		Name:    "helper",
		Program: os.Args[0],
		Args:    append([]string{"-test.run=TestHelperProcess", "--"}, args...),
		Dir:     dir,
	}
}

// =============================================================================
// ExecRunner Tests
// =============================================================================

func TestExecRunner_Success(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})

	res := r.Run(context.Background(), helperCommand(sequence.StageStop, "", "exit", "0"))

	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)
	assert.False(t, res.Failed())
	assert.False(t, res.StartedAt.IsZero())
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})

	res := r.Run(context.Background(), helperCommand(sequence.StageRemoveImages, "", "exit", "3"))

	assert.Equal(t, 3, res.ExitCode)
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrNonZeroExit)

	var runErr *RunError
	require.ErrorAs(t, res.Err, &runErr)
	assert.Equal(t, 3, runErr.Step)
	assert.Equal(t, "Wait", runErr.Op)
}

func TestExecRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	r := newTestRunner(&out)

	res := r.Run(context.Background(), helperCommand(sequence.StageBuildFrontend, dir, "pwd"))
	require.Equal(t, 0, res.ExitCode)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(out.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecRunner_ArgumentsPassedVerbatim(t *testing.T) {
	var out bytes.Buffer
	r := newTestRunner(&out)

	res := r.Run(context.Background(), helperCommand(sequence.StageStop, "", "args", "rta-nuxt", "rta-asp.net", "$HOME", "a b"))
	require.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "rta-nuxt|rta-asp.net|$HOME|a b", out.String())
}

func TestExecRunner_MissingProgram(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})

	res := r.Run(context.Background(), sequence.Command{
		Stage:   sequence.StageStop,
		Program: filepath.Join(t.TempDir(), "no-such-binary"),
	})

	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, ErrStartFailed)
}

func TestExecRunner_MissingWorkingDirectory(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})
	dir := filepath.Join(t.TempDir(), "Frontend")

	res := r.Run(context.Background(), helperCommand(sequence.StageBuildFrontend, dir, "exit", "0"))

	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, ErrStartFailed)
}

func TestExecRunner_EmptyProgram(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})

	res := r.Run(context.Background(), sequence.Command{Stage: sequence.StageStop})

	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, ErrEmptyCommand)
}

func TestExecRunner_CancelledContext(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Run(ctx, helperCommand(sequence.StageComposeUp, "", "exit", "0"))

	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, ErrCancelled)
}

func TestRunError_Message(t *testing.T) {
	err := NewRunError("Wait", 4, "npm", "exit status 1", ErrNonZeroExit)
	assert.Equal(t, "Wait step 4 (npm): exit status 1", err.Error())

	err = NewRunError("Start", 1, "", "no program", ErrEmptyCommand)
	assert.Equal(t, "Start step 1: no program", err.Error())
}
