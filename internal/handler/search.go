package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/service"
)

// Searches is satisfied by *service.SearchService.
type Searches interface {
	Execute(ctx context.Context, userID string, req service.SearchRequest) (*service.SearchResult, error)
	IngestStatus(ctx context.Context, userID, taskID string) (*model.IngestTask, error)
}

type SearchHandler struct {
	searches Searches
	logger   *slog.Logger
}

func NewSearchHandler(searches Searches, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searches: searches, logger: logger}
}

// HandleSearch runs a paid place search.
//
// HTTP: POST /api/search
// REQUEST BODY: {"city":"Ankara","category":"Kafe","limit":20,"allCities":false,"phoneOnly":false}
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req service.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.searches.Execute(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleIngestStatus reports whether the results of a search reached the CRM.
//
// HTTP: GET /api/search/ingest/{id}
func (h *SearchHandler) HandleIngestStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.searches.IngestStatus(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
