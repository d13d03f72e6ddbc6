package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/leadbook/internal/service"
)

type Dashboard interface {
	Stats(ctx context.Context, userID string) (*service.DashboardStats, error)
}

type DashboardHandler struct {
	dashboard Dashboard
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard Dashboard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// HTTP: GET /api/dashboard/stats
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	stats, err := h.dashboard.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
