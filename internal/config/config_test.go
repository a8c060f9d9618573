package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.TrendRegistryURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Badger")
	t.Setenv("BADGER_PATH", "/tmp/sessions")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("TREND_REGISTRY_URL", "http://trends.local/")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendBadger, cfg.StoreBackend)
	assert.Equal(t, "/tmp/sessions", cfg.BadgerPath)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "http://trends.local", cfg.TrendRegistryURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nlog_level: debug\n"), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "redis")
		_, err := Load(New(), "")
		assert.ErrorContains(t, err, "store_backend")
	})
	t.Run("ttl", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "-1s")
		_, err := Load(New(), "")
		assert.ErrorContains(t, err, "session_ttl")
	})
}
