package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("HYPERVISOR_POSTGRES_DSN", "postgres://localhost/hypervisor")
	t.Setenv("HYPERVISOR_JWT_SIGNING_KEY", "test-signing-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("HYPERVISOR_POSTGRES_DSN", "postgres://localhost/hypervisor")
	t.Setenv("HYPERVISOR_JWT_SIGNING_KEY", "test-signing-key")
	t.Setenv("HYPERVISOR_HTTP_ADDR", ":9090")
	t.Setenv("HYPERVISOR_REDIS_DB", "3")
	t.Setenv("HYPERVISOR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingRequiredFieldErrors(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
}
