// Package main provides the rebuild binary.
//
// rebuild tears down and rebuilds the RTA stack:
//
//	docker container stop rta-nuxt rta-asp.net
//	docker container rm rta-nuxt rta-asp.net
//	docker rmi rta-nuxt rta-asp.net
//	npm run build            (in Frontend/ next to the binary)
//	docker compose up -d
//
// Every step runs even if an earlier one fails. Command-line arguments are
// ignored; configuration comes from REBUILD_* environment variables and the
// optional YAML file named by REBUILD_CONFIG.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/artpar/rta-rebuild/internal/shell/runner"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// newRunner is replaced in tests.
var newRunner = func() runner.Runner {
	return runner.NewExecRunner()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run ignores args.
func run(_ []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv(ConfigPathEnv)
	cfg, cfgErr := LoadConfig(configPath)

	logger := SetupLogger(cfg, os.Stderr)
	if cfgErr != nil {
		logger.Warn("configuration problem, continuing with defaults and environment", "error", cfgErr)
	}
	logger.Debug("starting rebuild",
		"version", Version,
		"built", BuildTime,
		"config", configPath,
	)

	app := NewApp(cfg, logger, newRunner())
	report := app.Run(ctx)
	return app.ExitCode(report)
}
