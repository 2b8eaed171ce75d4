package sequence

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrNoRoot is returned when the project root is empty.
	ErrNoRoot = errors.New("project root is required")
	// ErrRelativeRoot is returned when the project root is not absolute.
	ErrRelativeRoot = errors.New("project root must be an absolute path")
)

// Options controls how the descriptors are resolved for execution.
// Only where the commands run and which binaries they invoke can change;
// the argument lists are fixed.
type Options struct {
	// Root is the absolute project root that Frontend/ is resolved against.
	Root string

	// ComposeDir is the working directory for the docker steps.
	// Empty inherits the caller's working directory.
	ComposeDir string

	// DockerProgram overrides the docker binary. Empty means "docker".
	DockerProgram string

	// NpmProgram overrides the npm binary. Empty means "npm".
	NpmProgram string
}

// Resolve returns the sequence with every relative Dir made absolute
// against opts.Root and program overrides applied.
func Resolve(opts Options) ([]Command, error) {
	if opts.Root == "" {
		return nil, ErrNoRoot
	}
	if !filepath.IsAbs(opts.Root) {
		return nil, fmt.Errorf("%w: %q", ErrRelativeRoot, opts.Root)
	}

	composeDir := opts.ComposeDir
	if composeDir != "" && !filepath.IsAbs(composeDir) {
		composeDir = filepath.Join(opts.Root, composeDir)
	}

	steps := Steps()
	for i := range steps {
		switch steps[i].Program {
		case DefaultDockerProgram:
			if opts.DockerProgram != "" {
				steps[i].Program = opts.DockerProgram
			}
		case DefaultNpmProgram:
			if opts.NpmProgram != "" {
				steps[i].Program = opts.NpmProgram
			}
		}

		if steps[i].Dir != "" {
			steps[i].Dir = filepath.Join(opts.Root, steps[i].Dir)
		} else {
			steps[i].Dir = composeDir
		}
	}
	return steps, nil
}
