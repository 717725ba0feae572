package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultRateLimitMax, cfg.RateLimitMax)
	assert.Equal(t, DefaultRateLimitWin, cfg.RateLimitWindow)
	assert.Equal(t, DefaultChallengeTTL, cfg.ChallengeTTL)
	assert.True(t, cfg.IsDevelopment())
	// Development falls back to a local password
	assert.NotEmpty(t, cfg.AdminPassword)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_MAX", "25")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CHALLENGE_TTL", "2m")
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 2*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
}

func TestProductionRequiresAdminPassword(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsBadLimits(t *testing.T) {
	cfg := &Config{Env: "development", RateLimitMax: 0, RateLimitWindow: time.Minute, ChallengeTTL: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Env: "development", RateLimitMax: 10, RateLimitWindow: 0, ChallengeTTL: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Env: "development", RateLimitMax: 10, RateLimitWindow: time.Minute, ChallengeTTL: 0}
	assert.Error(t, cfg.Validate())
}
