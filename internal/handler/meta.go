package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/leadbook/internal/catalog"
	"github.com/sakif/leadbook/internal/config"
)

// ConfigResponse is the static listing the UI builds its forms from.
type ConfigResponse struct {
	catalog.Listing
	PerResultCost  int  `json:"perResultCost"`
	MaxSearchLimit int  `json:"maxSearchLimit"`
	GitHubLogin    bool `json:"githubLogin"`
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetaHandler serves the endpoints that need no user data: the catalog
// listing and the health check.
type MetaHandler struct {
	config ConfigResponse
	db     Pinger
	logger *slog.Logger
}

func NewMetaHandler(cat *catalog.Catalog, credits config.CreditConfig, githubLogin bool, db Pinger, logger *slog.Logger) *MetaHandler {
	return &MetaHandler{
		config: ConfigResponse{
			Listing:        cat.Listing(),
			PerResultCost:  credits.PerResultCost,
			MaxSearchLimit: credits.MaxSearchLimit,
			GitHubLogin:    githubLogin,
		},
		db:     db,
		logger: logger,
	}
}

// HTTP: GET /api/config
func (h *MetaHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.config)
}

// HandleHealth answers 200 when the database responds within two seconds.
//
// HTTP: GET /healthz
func (h *MetaHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
