package sequence

import (
	"slices"
	"strings"
)

// =============================================================================
// Names
// =============================================================================

const (
	// NuxtContainer is the frontend container and image name.
	NuxtContainer = "rta-nuxt"
	// BackendContainer is the ASP.NET backend container and image name.
	BackendContainer = "rta-asp.net"

	// FrontendDir is the build directory, relative to the project root.
	FrontendDir = "Frontend"

	// DefaultDockerProgram is the container runtime CLI.
	DefaultDockerProgram = "docker"
	// DefaultNpmProgram is the package-script runner.
	DefaultNpmProgram = "npm"
)

// Containers returns the container names the sequence stops and removes.
// The image names are the same.
func Containers() []string {
	return []string{NuxtContainer, BackendContainer}
}

// =============================================================================
// Command Descriptor
// =============================================================================

// Command describes one child process of the sequence.
type Command struct {
	Stage   Stage
	Name    string
	Program string
	Args    []string

	// Dir is the child's working directory. Empty inherits the caller's.
	// Before Resolve it may be relative to the project root.
	Dir string
}

// Argv returns the program followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// String renders the command line for logs. It is never handed to a shell.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Step returns the 1-based position of the command in the sequence.
func (c Command) Step() int {
	return c.Stage.Number()
}

// =============================================================================
// The Sequence
// =============================================================================

// Steps returns the five descriptors in execution order. Every call returns
// a fresh copy, so callers may modify the result freely.
func Steps() []Command {
	names := Containers()
	return []Command{
		{
			Stage:   StageStop,
			Name:    StageStop.String(),
			Program: DefaultDockerProgram,
			Args:    append([]string{"container", "stop"}, names...),
		},
		{
			Stage:   StageRemoveContainers,
			Name:    StageRemoveContainers.String(),
			Program: DefaultDockerProgram,
			Args:    append([]string{"container", "rm"}, names...),
		},
		{
			Stage:   StageRemoveImages,
			Name:    StageRemoveImages.String(),
			Program: DefaultDockerProgram,
			Args:    append([]string{"rmi"}, names...),
		},
		{
			Stage:   StageBuildFrontend,
			Name:    StageBuildFrontend.String(),
			Program: DefaultNpmProgram,
			Args:    []string{"run", "build"},
			Dir:     FrontendDir,
		},
		{
			Stage:   StageComposeUp,
			Name:    StageComposeUp.String(),
			Program: DefaultDockerProgram,
			Args:    []string{"compose", "up", "-d"},
		},
	}
}

// Names returns the step names in execution order.
func Names() []string {
	steps := Steps()
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

// Lookup returns the default descriptor for a stage.
func Lookup(stage Stage) (Command, bool) {
	return Find(Steps(), stage)
}

// Find returns the first command in commands bound to stage.
func Find(commands []Command, stage Stage) (Command, bool) {
	i := slices.IndexFunc(commands, func(c Command) bool { return c.Stage == stage })
	if i < 0 {
		return Command{}, false
	}
	return commands[i], true
}
