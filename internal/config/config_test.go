package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SetsSaneBaselines(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "development", cfg.Mode)
	assert.Equal(t, filepath.Join(".forge", "graph.json"), cfg.Graph.SnapshotPath)
	assert.Equal(t, 5.0, cfg.GitHub.RateLimit)
	assert.Equal(t, 4, cfg.Survey.MaxConcurrency)
	assert.Equal(t, "claude", cfg.LLM.Provider)
}

func TestLoad_MissingConfigFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Survey.MaxConcurrency)
}

func TestLoad_EnvOverridesGitHubToken(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	os.Setenv("GITHUB_TOKEN", "ghp_loadtest")
	defer os.Unsetenv("GITHUB_TOKEN")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ghp_loadtest", cfg.GitHub.Token)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.GitHub.RateLimit = 12
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, loaded.GitHub.RateLimit)
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(homeDir, "foo"), expandPath("~/foo"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "", expandPath(""))
}
