package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/rta-rebuild/internal/core/compose"
	"github.com/artpar/rta-rebuild/internal/core/sequence"
)

// errNoComposeFile is returned when none of the default compose file names exist.
var errNoComposeFile = errors.New("no compose file found")

// findComposeFile returns the first default compose file present in dir.
func findComposeFile(dir string) (string, error) {
	for _, name := range compose.DefaultFileNames() {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w in %s", errNoComposeFile, dir)
}

// preflightCompose logs what `docker compose up -d` is about to bring up.
// It only reads; the sequence runs the same whatever it finds.
func preflightCompose(dir string, logger *slog.Logger) (*compose.Summary, error) {
	path, err := findComposeFile(dir)
	if err != nil {
		logger.Warn("compose preflight skipped", "dir", dir, "error", err)
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("compose preflight skipped", "file", path, "error", err)
		return nil, err
	}

	summary, err := compose.Summarize(filepath.Base(path), content, environMap())
	if err != nil {
		logger.Warn("compose file did not parse", "file", path, "error", err)
		return nil, err
	}

	logger.Info("compose preflight",
		"file", path,
		"project", summary.Project,
		"services", summary.ServiceNames(),
	)
	for _, svc := range summary.Services {
		logger.Debug("compose service",
			"service", svc.Name,
			"image", svc.Image,
			"container_name", svc.ContainerName,
			"build", svc.HasBuild,
			"ports", svc.Ports,
		)
	}
	if missing := summary.Missing(sequence.Containers()); len(missing) > 0 {
		logger.Warn("compose file does not define removed containers", "missing", missing)
	}
	return summary, nil
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
