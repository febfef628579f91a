package config

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "POWER_API_URL", "POWER_REQUEST_TIMEOUT", "DATABASE_URL", "CACHE_COORD_PRECISION", "API_BEARER_TOKEN"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Port, 8080)
	assert.Equal(t, cfg.RequestTimeout, 15*time.Second)
	assert.Equal(t, cfg.CacheCoordPrecision, 2)
	assert.Equal(t, cfg.DatabaseURL, "")
	assert.Equal(t, cfg.ListenAddr(), ":8080")
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("POWER_API_URL", "http://localhost:9999/climatology")
	t.Setenv("POWER_REQUEST_TIMEOUT", "30s")
	t.Setenv("CACHE_COORD_PRECISION", "1")

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Port, 9090)
	assert.Equal(t, cfg.PowerAPIURL, "http://localhost:9999/climatology")
	assert.Equal(t, cfg.RequestTimeout, 30*time.Second)
	assert.Equal(t, cfg.CacheCoordPrecision, 1)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid PORT")

	clearEnv(t)
	t.Setenv("POWER_REQUEST_TIMEOUT", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "POWER_REQUEST_TIMEOUT")

	clearEnv(t)
	t.Setenv("CACHE_COORD_PRECISION", "-1")
	_, err = Load()
	assert.ErrorContains(t, err, "CACHE_COORD_PRECISION")
}
