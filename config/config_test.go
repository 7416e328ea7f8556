package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-tracker/eventclient/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://event-tracker.test", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSec)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.NotEmpty(t, cfg.Session.Dir)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:9000")
	t.Setenv("HTTP_TIMEOUT_SEC", "5")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSec)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SEC", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.API.TimeoutSec)
}
