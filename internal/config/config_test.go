package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andeslabs/bancora/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/bancora")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "/api/v1", cfg.APIBasePath)
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, time.Hour, cfg.BlacklistMinRetention)
	require.Equal(t, "refresh_tokens:", cfg.RefreshTokenKeyPrefix)
	require.Equal(t, "blacklist:", cfg.BlacklistKeyPrefix)
	require.Contains(t, cfg.PublicPaths, "/api/v1/auth/login")
	require.Contains(t, cfg.PublicPaths, "/")
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/bancora")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("PUBLIC_PATHS", "/healthz, /api/v2/auth/login")
	t.Setenv("RATE_LIMIT_RPM", "120")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, []string{"/healthz", "/api/v2/auth/login"}, cfg.PublicPaths)
	require.Equal(t, 120, cfg.RateLimitRPM)
	require.False(t, cfg.CORSAllowCredentials)
}
