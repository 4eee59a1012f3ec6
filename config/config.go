// Package config loads server configuration from the environment. A .env
// file in the working directory is honored for local development; real
// deployments set the variables directly.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrTMDBKeyRequired = errors.New("TMDB_API_KEY is required")

// Config holds everything main needs to wire the server together.
type Config struct {
	ListenAddr string

	TMDBAPIKey  string
	KOBISAPIKey string
	Language    string
	Region      string

	DataDir       string
	CacheDir      string
	DatabasePath  string
	CacheTTLHours int

	SessionSecret  string
	LogFile        string
	AllowedOrigins []string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Only the TMDB key is mandatory; the KOBIS key is optional
// and its features degrade gracefully without it.
func Load() (Config, error) {
	// Missing .env is fine; env vars may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":8080"),
		TMDBAPIKey:    strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		KOBISAPIKey:   strings.TrimSpace(os.Getenv("KOBIS_API_KEY")),
		Language:      envOr("LANGUAGE", "ko-KR"),
		Region:        envOr("REGION", "KR"),
		DataDir:       envOr("DATA_DIR", "./data"),
		SessionSecret: envOr("SESSION_SECRET", ""),
		LogFile:       strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	if cfg.TMDBAPIKey == "" {
		return Config{}, ErrTMDBKeyRequired
	}

	cfg.CacheDir = envOr("CACHE_DIR", filepath.Join(cfg.DataDir, "cache"))
	cfg.DatabasePath = envOr("DATABASE_PATH", filepath.Join(cfg.DataDir, "reelfeed.db"))

	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	cfg.CacheTTLHours = 24
	if raw := os.Getenv("CACHE_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			cfg.CacheTTLHours = hours
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
