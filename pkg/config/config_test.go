package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Database.TxTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 8, cfg.Availability.FirstHour)
	assert.Equal(t, 21, cfg.Availability.LastHour)
	assert.Equal(t, time.UTC, cfg.Availability.Location())
	assert.Equal(t, 2, cfg.Audit.Workers)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AVAILABILITY_TIMEZONE", "Nowhere/Unknown")
	t.Setenv("AVAILABILITY_CACHE_TTL", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("AVAILABILITY_FIRST_HOUR", "22")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Availability.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.UTC, cfg.Availability.Location())
	assert.Equal(t, 8, cfg.Availability.FirstHour)
}
