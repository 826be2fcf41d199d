// Package config assembles the server configuration from environment
// variables.
package config

import (
	"errors"
	"os"
	"time"
)

// Config carries everything cmd/server needs to start.
type Config struct {
	// Addr is the listen address.
	Addr string

	// DSN selects the storage backend: a postgres:// URL opens the
	// postgres backend, anything else is treated as a sqlite file path.
	DSN string

	// JWTSecret signs access tokens. No default: a guessable secret
	// would let anyone mint valid tokens.
	JWTSecret string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// HeartbeatTimeout is how long a realtime room member may stay
	// silent before being evicted.
	HeartbeatTimeout time.Duration
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	secret := os.Getenv("SCRIBA_JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("SCRIBA_JWT_SECRET must be set")
	}

	return Config{
		Addr:             getenv("SCRIBA_ADDR", ":8080"),
		DSN:              getenv("SCRIBA_DSN", "scriba.db"),
		JWTSecret:        secret,
		AccessTokenTTL:   getenvDuration("SCRIBA_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getenvDuration("SCRIBA_REFRESH_TOKEN_TTL", 30*24*time.Hour),
		HeartbeatTimeout: getenvDuration("SCRIBA_HEARTBEAT_TIMEOUT", 60*time.Second),
	}, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
