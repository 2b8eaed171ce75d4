package sequence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Steps Tests
// =============================================================================

func TestSteps_Order(t *testing.T) {
	steps := Steps()
	require.Len(t, steps, 5)

	want := []Stage{StageStop, StageRemoveContainers, StageRemoveImages, StageBuildFrontend, StageComposeUp}
	for i, s := range steps {
		assert.Equal(t, want[i], s.Stage, "step %d", i+1)
		assert.Equal(t, i+1, s.Step())
	}
}

func TestSteps_CommandLines(t *testing.T) {
	steps := Steps()

	assert.Equal(t, []string{"docker", "container", "stop", "rta-nuxt", "rta-asp.net"}, steps[0].Argv())
	assert.Equal(t, []string{"docker", "container", "rm", "rta-nuxt", "rta-asp.net"}, steps[1].Argv())
	assert.Equal(t, []string{"docker", "rmi", "rta-nuxt", "rta-asp.net"}, steps[2].Argv())
	assert.Equal(t, []string{"npm", "run", "build"}, steps[3].Argv())
	assert.Equal(t, []string{"docker", "compose", "up", "-d"}, steps[4].Argv())
}

func TestSteps_OnlyBuildChangesDirectory(t *testing.T) {
	for _, s := range Steps() {
		if s.Stage == StageBuildFrontend {
			assert.Equal(t, "Frontend", s.Dir)
			continue
		}
		assert.Empty(t, s.Dir, s.Name)
	}
}

func TestSteps_ReturnsCopy(t *testing.T) {
	first := Steps()
	first[0].Args[2] = "mutated"
	first[3].Dir = "elsewhere"

	second := Steps()
	assert.Equal(t, "rta-nuxt", second[0].Args[2])
	assert.Equal(t, "Frontend", second[3].Dir)
}

func TestSteps_ContainerNamesPresent(t *testing.T) {
	for _, s := range Steps()[:3] {
		assert.Contains(t, s.Args, NuxtContainer, s.Name)
		assert.Contains(t, s.Args, BackendContainer, s.Name)
	}
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "docker rmi rta-nuxt rta-asp.net", Steps()[2].String())
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{
		"stop-containers",
		"remove-containers",
		"remove-images",
		"build-frontend",
		"compose-up",
	}, Names())
}

func TestLookup(t *testing.T) {
	cmd, ok := Lookup(StageBuildFrontend)
	require.True(t, ok)
	assert.Equal(t, "npm", cmd.Program)

	_, ok = Lookup(StageDone)
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	cmds, err := Resolve(Options{Root: "/srv/rta", NpmProgram: "/opt/node/bin/npm"})
	require.NoError(t, err)

	cmd, ok := Find(cmds, StageBuildFrontend)
	require.True(t, ok)
	assert.Equal(t, "/opt/node/bin/npm", cmd.Program)
	assert.Equal(t, filepath.Join("/srv/rta", FrontendDir), cmd.Dir)

	_, ok = Find(cmds[:2], StageComposeUp)
	assert.False(t, ok)

	_, ok = Find(nil, StageStop)
	assert.False(t, ok)
}

func TestSteps_NameMatchesStage(t *testing.T) {
	for _, cmd := range Steps() {
		assert.Equal(t, cmd.Stage.String(), cmd.Name)
	}
}

// =============================================================================
// Stage Tests
// =============================================================================

func TestStage_WalkIsLinear(t *testing.T) {
	var visited []Stage
	for s := FirstStage; !s.IsTerminal(); s = s.Next() {
		visited = append(visited, s)
	}
	assert.Equal(t, []Stage{StageStop, StageRemoveContainers, StageRemoveImages, StageBuildFrontend, StageComposeUp}, visited)
}

func TestStage_DoneIsTerminal(t *testing.T) {
	assert.True(t, StageDone.IsTerminal())
	assert.Equal(t, StageDone, StageDone.Next())
	assert.Equal(t, 0, StageDone.Number())
}

func TestStage_InvalidValues(t *testing.T) {
	assert.Equal(t, StageDone, Stage(0).Next())
	assert.Equal(t, StageDone, Stage(99).Next())
	assert.Equal(t, "unknown", Stage(99).String())
	assert.Equal(t, 0, Stage(-1).Number())
}

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageStop, "stop-containers"},
		{StageRemoveContainers, "remove-containers"},
		{StageRemoveImages, "remove-images"},
		{StageBuildFrontend, "build-frontend"},
		{StageComposeUp, "compose-up"},
		{StageDone, "done"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stage.String())
		})
	}
}

// =============================================================================
// Resolve Tests
// =============================================================================

func TestResolve_FrontendUnderRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	cmds, err := Resolve(Options{Root: root})
	require.NoError(t, err)
	require.Len(t, cmds, 5)

	assert.Equal(t, filepath.Join(root, "Frontend"), cmds[3].Dir)
	for _, i := range []int{0, 1, 2, 4} {
		assert.Empty(t, cmds[i].Dir, cmds[i].Name)
	}
}

func TestResolve_ComposeDir(t *testing.T) {
	root := t.TempDir()

	cmds, err := Resolve(Options{Root: root, ComposeDir: "deploy"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "deploy"), cmds[4].Dir)
	assert.Equal(t, filepath.Join(root, "Frontend"), cmds[3].Dir)
}

func TestResolve_AbsoluteComposeDir(t *testing.T) {
	root := t.TempDir()
	compose := t.TempDir()

	cmds, err := Resolve(Options{Root: root, ComposeDir: compose})
	require.NoError(t, err)
	assert.Equal(t, compose, cmds[4].Dir)
}

func TestResolve_ProgramOverrides(t *testing.T) {
	cmds, err := Resolve(Options{
		Root:          t.TempDir(),
		DockerProgram: "/usr/local/bin/podman",
		NpmProgram:    "/opt/node/bin/npm",
	})
	require.NoError(t, err)

	for _, c := range cmds {
		if c.Stage == StageBuildFrontend {
			assert.Equal(t, "/opt/node/bin/npm", c.Program)
		} else {
			assert.Equal(t, "/usr/local/bin/podman", c.Program, c.Name)
		}
	}
	// Arguments are never affected by overrides.
	assert.Equal(t, Steps()[0].Args, cmds[0].Args)
}

func TestResolve_RequiresRoot(t *testing.T) {
	_, err := Resolve(Options{})
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestResolve_RequiresAbsoluteRoot(t *testing.T) {
	_, err := Resolve(Options{Root: "relative/dir"})
	assert.ErrorIs(t, err, ErrRelativeRoot)
}
