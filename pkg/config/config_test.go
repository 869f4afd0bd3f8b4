package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memoria.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /var/lib/memoria\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/memoria", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.RateLimits.Inference)
}

func TestLoadOverridesDefaultsWhenSpecified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memoria.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nrate_limits:\n  inference: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.RateLimits.Inference)
	assert.Equal(t, 120, cfg.RateLimits.Standard)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
