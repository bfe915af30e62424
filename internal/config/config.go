// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every externally supplied setting. It is constructed once in
// main and handed to component constructors; nothing reads the environment
// after Load returns.
type Config struct {
	Environment string

	DiscordToken string

	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	APIAddr          string
	JWTSecret        string
	DashboardBaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string

	AuditRetentionDays int
}

// Load reads the environment (and .env, if present) into a Config. Settings
// required for the process to function at all are validated here.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseDriver:      getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:         getEnv("DATABASE_DSN", "digamber.db"),
		APIAddr:             getEnv("API_ADDR", ":3001"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		DashboardBaseURL:    getEnv("DASHBOARD_BASE_URL", "https://go.digamber.in"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AuditRetentionDays:  getEnvInt("AUDIT_RETENTION_DAYS", 90),
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
