package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/rta-rebuild/internal/core/sequence"
	"github.com/artpar/rta-rebuild/internal/shell/docker"
	"github.com/artpar/rta-rebuild/internal/shell/metrics"
	"github.com/artpar/rta-rebuild/internal/shell/runner"
	"github.com/artpar/rta-rebuild/internal/shell/sequencer"
	"github.com/artpar/rta-rebuild/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitStepsFailed = 1 // only with sequence.strict_exit
)

// =============================================================================
// App
// =============================================================================

// App wires the sequence to its runner and the optional side channels.
type App struct {
	cfg        *Config
	logger     *slog.Logger
	runner     runner.Runner
	root       string
	composeDir string
	commands   []sequence.Command

	newDockerClient func(ctx context.Context, host string) (docker.Client, error)
}

// NewApp resolves paths and commands. It does not fail: an unknown
// executable location falls back to the working directory.
func NewApp(cfg *Config, logger *slog.Logger, r runner.Runner) *App {
	root, err := ResolveProjectRoot(cfg.Project.Root)
	if err != nil {
		wd, _ := os.Getwd()
		logger.Warn("could not resolve project root, using working directory", "error", err, "dir", wd)
		root = wd
	}

	composeDir := cfg.Project.ComposeDir
	if composeDir != "" && !filepath.IsAbs(composeDir) {
		composeDir = filepath.Join(root, composeDir)
	}

	commands, err := sequence.Resolve(sequence.Options{
		Root:          root,
		ComposeDir:    composeDir,
		DockerProgram: cfg.Sequence.DockerProgram,
		NpmProgram:    cfg.Sequence.NpmProgram,
	})
	if err != nil {
		// Root is absolute here, so this only trips on an empty working directory.
		logger.Warn("could not resolve sequence against project root", "error", err)
		commands = sequence.Steps()
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		runner:     r,
		root:       root,
		composeDir: composeDir,
		commands:   commands,
		newDockerClient: func(ctx context.Context, host string) (docker.Client, error) {
			return docker.NewDockerClient(ctx, host)
		},
	}
}

// Run executes the sequence once. Optional features that fail to start are
// logged and skipped.
func (a *App) Run(ctx context.Context) *sequencer.Report {
	a.logger.Info("rebuild configured",
		"root", a.root,
		"compose_dir", a.composeDirForLog(),
		"frontend", filepath.Join(a.root, sequence.FrontendDir),
	)

	if a.cfg.Preflight.Enabled {
		preflightCompose(a.composeDirForLog(), a.logger)
	}

	var opts []sequencer.Option
	if a.cfg.History.DSN != "" {
		st, err := store.NewSQLiteStore(a.cfg.History.DSN)
		if err != nil {
			a.logger.Warn("run journal disabled", "dsn", a.cfg.History.DSN, "error", err)
		} else {
			defer st.Close()
			opts = append(opts, sequencer.WithObserver(&journalObserver{store: st, root: a.root}))
		}
	}
	if a.cfg.Metrics.Textfile != "" {
		opts = append(opts, sequencer.WithObserver(&metricsObserver{recorder: metrics.NewRecorder(a.cfg.Metrics.Textfile)}))
	}

	report := sequencer.New(a.runner, a.commands, a.logger, opts...).Run(ctx)

	if a.cfg.Report.Enabled {
		a.reportStatus(ctx)
	}
	return report
}

// ExitCode maps a finished run to the process exit status.
func (a *App) ExitCode(report *sequencer.Report) int {
	if a.cfg.Sequence.StrictExit && report.Failed() > 0 {
		return ExitStepsFailed
	}
	return ExitSuccess
}

func (a *App) reportStatus(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if a.cfg.Report.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Report.Timeout)
		defer cancel()
	}

	cli, err := a.newDockerClient(ctx, a.cfg.Docker.Host)
	if err != nil {
		a.logger.Warn("status report skipped", "error", err)
		return
	}
	defer cli.Close()

	if err := cli.Ping(ctx); err != nil {
		a.logger.Warn("status report skipped", "error", err)
		return
	}
	docker.NewReporter(cli, a.logger).Report(ctx, sequence.Containers())
}

func (a *App) composeDirForLog() string {
	if a.composeDir != "" {
		return a.composeDir
	}
	wd, _ := os.Getwd()
	return wd
}
