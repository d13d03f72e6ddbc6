// Package server is the composition root: it wires the store, services and
// handlers together, mounts the routes and owns graceful shutdown.
//
//	main.go: config → sqlstore.Store → server.New → Start
//	server.New: Store → services → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/leadbook/internal/auth"
	"github.com/sakif/leadbook/internal/catalog"
	"github.com/sakif/leadbook/internal/config"
	"github.com/sakif/leadbook/internal/handler"
	"github.com/sakif/leadbook/internal/ingest"
	"github.com/sakif/leadbook/internal/middleware"
	"github.com/sakif/leadbook/internal/places"
	"github.com/sakif/leadbook/internal/repository/sqlstore"
	"github.com/sakif/leadbook/internal/service"
)

// Server owns the router, the ingest queue and the store. Close releases
// them in dependency order.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  *sqlstore.Store
	queue  *ingest.Queue
}

// New wires every dependency and starts the ingest workers. github may be
// nil, in which case the OAuth routes are not mounted.
func New(
	cfg *config.Config,
	store *sqlstore.Store,
	cat *catalog.Catalog,
	provider places.Provider,
	github handler.OAuthProvider,
	logger *slog.Logger,
) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	// === Services ===
	ledger := service.NewLedgerService(store, store, logger)
	crm := service.NewCRMService(store, store, logger)
	accounts := service.NewAuthService(store, tokens, auth.NewPasswordService(),
		cfg.Credits.StartingBalance, cfg.Auth.AdminEmails, logger)
	admin := service.NewAdminService(store, ledger, logger)
	dashboard := service.NewDashboardService(ledger, store, store)

	queue := ingest.New(store, crm, ingest.Config{
		Workers:   cfg.Ingest.Workers,
		QueueSize: cfg.Ingest.QueueSize,
	}, logger)

	searcher := places.NewSearcher(provider, cat.Cities, placesOptions(cfg.Places), logger)
	searches := service.NewSearchService(ledger, searcher, queue, store, cat,
		cfg.Credits, cfg.Server.SearchTimeout, cfg.Server.AllCitiesTimeout, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		queue:  queue,
	}

	// === Middleware ===
	// Order matters: the request ID must exist before the logger reads it.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}).Handler)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(accounts, github, cfg.GitHub.SuccessURL, logger)
	searchHandler := handler.NewSearchHandler(searches, logger)
	companyHandler := handler.NewCompanyHandler(crm, logger)
	adminHandler := handler.NewAdminHandler(admin, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboard, logger)
	metaHandler := handler.NewMetaHandler(cat, cfg.Credits, github != nil, store, logger)

	s.router.Get("/healthz", metaHandler.HandleHealth)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/config", metaHandler.HandleConfig)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/auth/me", authHandler.HandleMe)
			r.Patch("/theme", authHandler.HandleUpdateTheme)

			r.Post("/search", searchHandler.HandleSearch)
			r.Get("/search/ingest/{id}", searchHandler.HandleIngestStatus)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companyHandler.HandleList)
				r.Get("/filters/cities", companyHandler.HandleCities)
				r.Get("/filters/districts", companyHandler.HandleDistricts)
				r.Get("/{id}", companyHandler.HandleGet)
				r.Patch("/{id}", companyHandler.HandleUpdateStage)
				r.Delete("/{id}", companyHandler.HandleDelete)
				r.Get("/{id}/activities", companyHandler.HandleListActivities)
				r.Post("/{id}/activities", companyHandler.HandleCreateActivity)
				r.Delete("/{id}/activities/{activityID}", companyHandler.HandleDeleteActivity)
			})

			r.Get("/dashboard/stats", dashboardHandler.HandleStats)
			r.Get("/export", companyHandler.HandleExport)

			// Admin only
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin(accounts))

				r.Get("/users", adminHandler.HandleListUsers)
				r.Get("/users/{id}", adminHandler.HandleGetUser)
				r.Post("/users/{id}/credit", adminHandler.HandleCredit)
				r.Get("/users/{id}/transactions", adminHandler.HandleTransactions)
			})
		})
	})

	s.queue.Start()
	return s, nil
}

// Handler returns the root handler. Tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close drains the ingest queue, then closes the store.
func (s *Server) Close() error {
	s.queue.Stop()
	return s.store.Close()
}

func placesOptions(cfg config.PlacesConfig) places.Options {
	return places.Options{
		Language:      cfg.Language,
		PageDelay:     cfg.PageDelay,
		DetailDelay:   cfg.DetailDelay,
		CityDelay:     cfg.CityDelay,
		DetailWorkers: cfg.DetailWorkers,
	}
}

// writeTimeout leaves room for the longest search a request may run.
func writeTimeout(cfg config.ServerConfig) time.Duration {
	return max(cfg.SearchTimeout, cfg.AllCitiesTimeout) + 30*time.Second
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down in order:
// in-flight requests, queued ingest tasks, the database.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(s.config.Server),
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("driver", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
