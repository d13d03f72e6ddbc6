// Package main is the entry point for the leadbook server.
//
// main stays small: it reads configuration, opens the database, builds the
// optional external integrations and hands everything to internal/server.
// All actual logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sakif/leadbook/internal/auth"
	"github.com/sakif/leadbook/internal/catalog"
	"github.com/sakif/leadbook/internal/config"
	"github.com/sakif/leadbook/internal/handler"
	"github.com/sakif/leadbook/internal/places"
	"github.com/sakif/leadbook/internal/repository/sqlstore"
	"github.com/sakif/leadbook/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// A .env file is a local development convenience. In production the
	// variables come from the environment and the file is absent.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// === 3. OPEN THE DATABASE ===
	if cfg.Database.Driver == "sqlite" {
		dbDir := filepath.Dir(cfg.Database.URL)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	store, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("driver", cfg.Database.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Accounts registered before their email was added to ADMIN_EMAILS.
	if len(cfg.Auth.AdminEmails) > 0 {
		promoted, err := store.PromoteAdmins(context.Background(), cfg.Auth.AdminEmails)
		if err != nil {
			logger.Error("failed to promote admins", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if promoted > 0 {
			logger.Info("promoted admin accounts", slog.Int("count", promoted))
		}
	}

	// === 4. CATALOG AND PROVIDERS ===
	cat, err := catalog.Load()
	if err != nil {
		logger.Error("failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Without an API key the server still starts; searches answer 502.
	var provider places.Provider = places.Unconfigured{}
	if cfg.Places.APIKey != "" {
		google, err := places.NewGoogleProvider(cfg.Places.APIKey)
		if err != nil {
			logger.Error("failed to create places client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		provider = google
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, searches will fail")
	}

	// Must stay a nil interface when disabled so the routes are skipped.
	var github handler.OAuthProvider
	if cfg.GitHub.Enabled() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, store, cat, provider, github, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
