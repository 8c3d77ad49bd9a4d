package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"GST_VALIDATE_SCENARIOS_PATH", "GST_VALIDATE_REPORTING_DETAILS",
		"GST_VALIDATE_LOG_FILES", "GST_VALIDATE_REMOTE_URL", "GST_VALIDATE_SESSION_UUID",
		"GST_VALIDATE_DOT_DIR", "GST_VALIDATE_WAIT_MULTIPLIER", "GST_VALIDATE_TICK_INTERVAL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.WaitMultiplier)
	assert.Equal(t, ".", cfg.DotDir)
	assert.Nil(t, cfg.ScenarioPath)
}

func TestLoadParsesSearchPath(t *testing.T) {
	t.Setenv("GST_VALIDATE_SCENARIOS_PATH", "/a:/b: :/c")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c"}, cfg.ScenarioPath)
}

func TestLoadKeepsZeroWaitMultiplier(t *testing.T) {
	t.Setenv("GST_VALIDATE_WAIT_MULTIPLIER", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.WaitMultiplier)
}

func TestResolveIncludeRelativeToCallingFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "included.scenario")
	require.NoError(t, os.WriteFile(sub, []byte("description"), 0o644))

	cfg := &Config{}
	path, ok := cfg.ResolveInclude("included.scenario", dir)
	require.True(t, ok)
	assert.Equal(t, sub, path)
}

func TestResolveIncludeFallsBackToSearchPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "shared.scenario")
	require.NoError(t, os.WriteFile(target, []byte("description"), 0o644))

	cfg := &Config{ScenarioPath: []string{dir}}
	path, ok := cfg.ResolveInclude("shared.scenario", t.TempDir())
	require.True(t, ok)
	assert.Equal(t, target, path)
}

func TestResolveIncludeMissing(t *testing.T) {
	cfg := &Config{}
	_, ok := cfg.ResolveInclude("does-not-exist.scenario", t.TempDir())
	assert.False(t, ok)
}
