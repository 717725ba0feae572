// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Admin
	AdminUsername string
	AdminPassword string

	// Bot mitigation
	RateLimitWindow   time.Duration // fixed rate-limit window
	RateLimitMax      int           // max requests per window per client
	ChallengeTTL      time.Duration // math challenge validity
	ChallengeSweepInt time.Duration // background sweep interval for expired challenges

	// Tracing
	OTLPEndpoint string // OTLP gRPC endpoint; empty disables tracing
}

// Defaults
const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultAdminUsername  = "admin"
	DefaultRateLimitMax   = 10
	DefaultRateLimitWin   = 60 * time.Second
	DefaultChallengeTTL   = 5 * time.Minute
	DefaultChallengeSweep = time.Minute
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		Env:               getEnv("ENV", DefaultEnv),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		AdminUsername:     getEnv("ADMIN_USERNAME", DefaultAdminUsername),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", DefaultRateLimitWin),
		RateLimitMax:      int(getEnvInt64("RATE_LIMIT_MAX", DefaultRateLimitMax)),
		ChallengeTTL:      getEnvDuration("CHALLENGE_TTL", DefaultChallengeTTL),
		ChallengeSweepInt: getEnvDuration("CHALLENGE_SWEEP_INTERVAL", DefaultChallengeSweep),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() && c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required in production")
	}
	if c.AdminPassword == "" {
		// Development fallback so a fresh checkout runs out of the box
		c.AdminPassword = "admin123"
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.ChallengeTTL <= 0 {
		return fmt.Errorf("CHALLENGE_TTL must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
