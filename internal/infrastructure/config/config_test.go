package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8787", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Store config
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "/tmp/opfs-bridge", cfg.Store.Root)
	assert.Equal(t, uint64(1<<30), cfg.Store.Quota)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8787", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"STORE_BACKEND":      "disk",
		"STORE_ROOT":         "/var/lib/opfs",
		"STORE_QUOTA":        "2048",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	assert.Equal(t, "disk", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/opfs", cfg.Store.Root)
	assert.Equal(t, uint64(2048), cfg.Store.Quota)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	err := os.Setenv("PORT", "3000")
	require.NoError(t, err)
	defer os.Unsetenv("PORT")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Defaults still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := []byte("server:\n  port: \"9999\"\nstore:\n  backend: disk\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	// Keys in the file win.
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "disk", cfg.Store.Backend)

	// Everything else keeps its default.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadFile(cfg, filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, "8787", cfg.Server.Port)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	cfg := Default()
	assert.Error(t, LoadFile(cfg, path))
}
