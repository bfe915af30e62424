package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, ":3001", cfg.APIAddr)
	assert.Equal(t, "https://go.digamber.in", cfg.DashboardBaseURL)
	assert.Equal(t, 90, cfg.AuditRetentionDays)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUDIT_RETENTION_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30, cfg.AuditRetentionDays)
}
