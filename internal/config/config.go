// Package config reads the process configuration from environment variables.
//
// main calls godotenv.Load first, so a local .env file works the same way as
// exported variables. The returned Config is treated as immutable.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	GitHub   GitHubConfig
	Places   PlacesConfig
	Ingest   IngestConfig
	Credits  CreditConfig
	LogLevel slog.Level
}

// ServerConfig bounds request time. AllCitiesTimeout covers a walk over every
// catalog city; at the default pacing and the maximum limit that walk needs
// about 14 minutes in delays alone.
type ServerConfig struct {
	Port             int
	CORSOrigins      []string
	SearchTimeout    time.Duration
	AllCitiesTimeout time.Duration
}

// DatabaseConfig selects the SQL driver. Driver is "sqlite" (modernc) or
// "pgx" (Postgres through pgx's database/sql adapter).
type DatabaseConfig struct {
	Driver string
	URL    string
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
}

// GitHubConfig is optional. Enabled reports whether the OAuth routes are mounted.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	SuccessURL   string
}

func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// PlacesConfig tunes the places provider adapter. PageDelay is the provider's
// next-page token activation latency and should stay at its default against
// the real API.
type PlacesConfig struct {
	APIKey        string
	Language      string
	PageDelay     time.Duration
	DetailDelay   time.Duration
	CityDelay     time.Duration
	DetailWorkers int
}

type IngestConfig struct {
	Workers   int
	QueueSize int
}

// CreditConfig holds the pricing constants.
type CreditConfig struct {
	PerResultCost   int
	StartingBalance int
	MaxSearchLimit  int
}

// Load reads the environment. It fails only on values that cannot be
// defaulted: a missing or short JWT secret and an unknown database driver.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:             getEnvAsInt("PORT", 8080),
			CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"*"}),
			SearchTimeout:    getEnvAsDuration("SEARCH_TIMEOUT", 5*time.Minute),
			AllCitiesTimeout: getEnvAsDuration("ALL_CITIES_TIMEOUT", 20*time.Minute),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
			URL:    getEnv("DATABASE_URL", "data/leadbook.db"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenTTL:    getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
			AdminEmails: getEnvAsList("ADMIN_EMAILS", nil),
		},
		Places: PlacesConfig{
			APIKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
			Language:      getEnv("PLACES_LANGUAGE", "tr"),
			PageDelay:     getEnvAsDuration("PLACES_PAGE_DELAY", 2*time.Second),
			DetailDelay:   getEnvAsDuration("PLACES_DETAIL_DELAY", 100*time.Millisecond),
			CityDelay:     getEnvAsDuration("PLACES_CITY_DELAY", 500*time.Millisecond),
			DetailWorkers: getEnvAsInt("PLACES_DETAIL_WORKERS", 4),
		},
		Ingest: IngestConfig{
			Workers:   getEnvAsInt("INGEST_WORKERS", 2),
			QueueSize: getEnvAsInt("INGEST_QUEUE_SIZE", 64),
		},
		Credits: CreditConfig{
			PerResultCost:   1,
			StartingBalance: 50,
			MaxSearchLimit:  60,
		},
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	cfg.GitHub = GitHubConfig{
		ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		CallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)),
		SuccessURL:   getEnv("OAUTH_SUCCESS_URL", "/"),
	}

	if len(cfg.Auth.JWTSecret) < 16 {
		return nil, errors.New("config: JWT_SECRET must be set to at least 16 characters")
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "pgx" {
		return nil, fmt.Errorf("config: unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Places.DetailWorkers < 1 {
		cfg.Places.DetailWorkers = 1
	}
	if cfg.Ingest.Workers < 1 {
		cfg.Ingest.Workers = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
