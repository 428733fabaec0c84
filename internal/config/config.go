// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// DBPath is the SQLite database file for credentials and the catalog.
	DBPath string

	// RedisAddr points at the Redis backing the message log and session
	// store. Empty means in-memory fallbacks (state lost on restart).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SessionSecret signs bearer tokens. Required outside local dev.
	SessionSecret string

	// SessionTTL is the rolling session lifetime.
	SessionTTL time.Duration

	// BcryptCost is the password hashing work factor. Zero means the
	// bcrypt default.
	BcryptCost int

	// LogLevel is the slog level name (debug, info, warn, error).
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the
// environment. Every value has a development default.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Addr:          getEnv("ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "./data/shopcast.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionSecret: getEnv("SESSION_SECRET", "dev-secret-change-me"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", 0); err != nil {
		return nil, err
	}

	ttl := getEnv("SESSION_TTL", "10m")
	if cfg.SessionTTL, err = time.ParseDuration(ttl); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", ttl, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
