// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultAddr              = "127.0.0.1:8080"
	DefaultAdsInterval       = 5
	DefaultRecentlyPlayedMax = 25
	DefaultLogLevel          = "info"
)

// Config holds everything the server needs to start.
type Config struct {
	// Addr is the listen address.
	Addr string

	// DatabaseURL is the PostgreSQL connection string. Required.
	DatabaseURL string

	// AdsInterval is how many tracks a free-tier user plays between
	// forced ads. Zero disables the ad gate.
	AdsInterval int

	// RecentlyPlayedMax caps the per-user recently-played ledger.
	RecentlyPlayedMax int

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string

	// LogPath, when set, adds a rotating file sink next to stderr.
	LogPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              stringEnv("ADDR", DefaultAddr),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AdsInterval:       DefaultAdsInterval,
		RecentlyPlayedMax: DefaultRecentlyPlayedMax,
		LogLevel:          stringEnv("LOG_LEVEL", DefaultLogLevel),
		LogPath:           os.Getenv("LOG_PATH"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var err error
	if cfg.AdsInterval, err = intEnv("ADS_INTERVAL", DefaultAdsInterval); err != nil {
		return nil, err
	}
	if cfg.AdsInterval < 0 {
		return nil, fmt.Errorf("ADS_INTERVAL must not be negative, got %d", cfg.AdsInterval)
	}

	if cfg.RecentlyPlayedMax, err = intEnv("RECENTLY_PLAYED_MAX", DefaultRecentlyPlayedMax); err != nil {
		return nil, err
	}
	if cfg.RecentlyPlayedMax < 1 {
		return nil, fmt.Errorf("RECENTLY_PLAYED_MAX must be positive, got %d", cfg.RecentlyPlayedMax)
	}

	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return value, nil
}
