package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/leadbook/internal/export"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/service"
)

// CRM is satisfied by *service.CRMService.
type CRM interface {
	List(ctx context.Context, userID string, f service.ListFilter) ([]model.Business, error)
	Get(ctx context.Context, userID, id string) (*model.Business, error)
	UpdateStage(ctx context.Context, userID, id, stage string) (*model.Business, error)
	Delete(ctx context.Context, userID, id string) error
	Cities(ctx context.Context, userID string) ([]string, error)
	Districts(ctx context.Context, userID, city string) ([]string, error)
	ListActivities(ctx context.Context, userID, businessID string) ([]model.Activity, error)
	CreateActivity(ctx context.Context, userID, businessID, activityType, outcome string) (*model.Activity, error)
	DeleteActivity(ctx context.Context, userID, businessID, activityID string) error
}

// CompanyHandler serves the CRM: businesses, their activity logs, filter
// values and the spreadsheet export.
type CompanyHandler struct {
	crm    CRM
	logger *slog.Logger
}

func NewCompanyHandler(crm CRM, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{crm: crm, logger: logger}
}

func filterFromQuery(r *http.Request) service.ListFilter {
	q := r.URL.Query()
	return service.ListFilter{
		City:     q.Get("city"),
		District: q.Get("district"),
		Stage:    q.Get("stage"),
		Phone:    q.Get("phone"),
	}
}

// HandleList returns the caller's businesses, newest first.
//
// HTTP: GET /api/companies?city=&district=&stage=&phone=has|none|any
func (h *CompanyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	list, err := h.crm.List(r.Context(), userID, filterFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HTTP: GET /api/companies/{id}
func (h *CompanyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	b, err := h.crm.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleUpdateStage moves a business along the pipeline.
//
// HTTP: PATCH /api/companies/{id}  {"stage": "Contacted"}
func (h *CompanyHandler) HandleUpdateStage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	b, err := h.crm.UpdateStage(r.Context(), userID, r.PathValue("id"), req.Stage)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HTTP: DELETE /api/companies/{id}
func (h *CompanyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.crm.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/companies/{id}/activities
func (h *CompanyHandler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	list, err := h.crm.ListActivities(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HTTP: POST /api/companies/{id}/activities  {"type": "Call", "outcome": "..."}
func (h *CompanyHandler) HandleCreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		Type    string `json:"type"`
		Outcome string `json:"outcome"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	a, err := h.crm.CreateActivity(r.Context(), userID, r.PathValue("id"), req.Type, req.Outcome)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HTTP: DELETE /api/companies/{id}/activities/{activityID}
func (h *CompanyHandler) HandleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.crm.DeleteActivity(r.Context(), userID, r.PathValue("id"), r.PathValue("activityID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/companies/filters/cities
func (h *CompanyHandler) HandleCities(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	cities, err := h.crm.Cities(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// HTTP: GET /api/companies/filters/districts?city=
func (h *CompanyHandler) HandleDistricts(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	districts, err := h.crm.Districts(r.Context(), userID, r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, districts)
}

// HandleExport streams the filtered listing as an xlsx attachment. It is
// free of charge. The workbook is rendered into memory first so a failure
// can still be reported as JSON.
//
// HTTP: GET /api/export?city=&district=&stage=&phone=
func (h *CompanyHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	list, err := h.crm.List(r.Context(), userID, filterFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBusinesses(&buf, list); err != nil {
		writeError(w, h.logger, err)
		return
	}

	filename := fmt.Sprintf("businesses_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export: writing response", slog.String("error", err.Error()))
	}
}
