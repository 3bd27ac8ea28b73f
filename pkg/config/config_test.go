package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Verify.RunTimeoutSec)
	assert.Equal(t, 10, cfg.Sources.TimeoutSec)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 50, cfg.RateLimit.GlobalLimit)
	assert.Equal(t, 86400, cfg.Cache.TTLSeconds["filings"])
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRUSTHIRE_VERIFY_RUNTIMEOUTSEC", "20")
	t.Setenv("TRUSTHIRE_SOURCES_TIMEOUTSEC", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Verify.RunTimeoutSec)
	assert.Equal(t, 5, cfg.Sources.TimeoutSec)
}

func TestTTLForUnknownCategory(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg.Cache.TTLFor("registry"), cfg.Cache.TTLFor("REGISTRY"))
	assert.NotZero(t, cfg.Cache.TTLFor("never-configured"))
}
