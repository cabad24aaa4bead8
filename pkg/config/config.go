// Package config loads taskdeck configuration from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	OwnerID  string

	// Database. A postgres:// URL selects the Postgres store; anything else
	// is treated as a SQLite path.
	DatabaseURL string

	// Change feed brokers. Empty URLs leave the respective feed disabled;
	// with neither configured the in-process feed is used.
	RedisURL    string
	RabbitMQURL string

	// Attachments
	AttachmentDir     string
	AttachmentBaseURL string
	SignedURLSecret   string
	SignedURLTTL      time.Duration

	// Remote circuit breaker
	BreakerEnabled          bool
	BreakerFailureThreshold int
	BreakerTimeout          time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		OwnerID:  getEnv("TASKDECK_OWNER_ID", ""),

		DatabaseURL: getEnv("DATABASE_URL", defaultDatabasePath()),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		AttachmentDir:     getEnv("TASKDECK_ATTACHMENT_DIR", defaultAttachmentDir()),
		AttachmentBaseURL: getEnv("TASKDECK_ATTACHMENT_BASE_URL", "http://localhost:8080/attachments"),
		SignedURLSecret:   getEnv("TASKDECK_SIGNING_SECRET", ""),
		SignedURLTTL:      getDurationEnv("TASKDECK_SIGNED_URL_TTL", time.Hour),

		BreakerEnabled:          getBoolEnv("TASKDECK_BREAKER_ENABLED", true),
		BreakerFailureThreshold: getIntEnv("TASKDECK_BREAKER_FAILURES", 5),
		BreakerTimeout:          getDurationEnv("TASKDECK_BREAKER_TIMEOUT", 10*time.Second),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesPostgres reports whether the database URL selects the Postgres store.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskdeck.db"
	}
	return home + "/.taskdeck/taskdeck.db"
}

func defaultAttachmentDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskdeck/attachments"
	}
	return home + "/.taskdeck/attachments"
}
