package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const composeFixture = `
services:
  nuxt:
    image: rta-nuxt
    container_name: rta-nuxt
    build: ./Frontend
  asp:
    image: rta-asp.net
    container_name: rta-asp.net
    build: ./Backend
`

func TestFindComposeFile_PrefersComposeYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(composeFixture), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compose.yaml"), []byte(composeFixture), 0644))

	path, err := findComposeFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "compose.yaml"), path)
}

func TestFindComposeFile_Missing(t *testing.T) {
	_, err := findComposeFile(t.TempDir())
	assert.ErrorIs(t, err, errNoComposeFile)
}

func TestFindComposeFile_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "compose.yaml"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(composeFixture), 0644))

	path, err := findComposeFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), path)
}

func TestPreflightCompose_LogsServices(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(composeFixture), 0644))
	var buf bytes.Buffer

	summary, err := preflightCompose(dir, slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)

	assert.Equal(t, []string{"asp", "nuxt"}, summary.ServiceNames())
	assert.Contains(t, buf.String(), "compose preflight")
	assert.NotContains(t, buf.String(), "does not define removed containers")
}

func TestPreflightCompose_WarnsOnUnrelatedStack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compose.yaml"), []byte("services:\n  web:\n    image: nginx\n"), 0644))
	var buf bytes.Buffer

	_, err := preflightCompose(dir, slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "does not define removed containers")
}

func TestPreflightCompose_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compose.yaml"), []byte("services: [[["), 0644))
	var buf bytes.Buffer

	_, err := preflightCompose(dir, slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "compose file did not parse")
}

func TestEnvironMap(t *testing.T) {
	t.Setenv("RTA_REBUILD_TEST_VAR", "a=b")

	env := environMap()
	assert.Equal(t, "a=b", env["RTA_REBUILD_TEST_VAR"])
}
