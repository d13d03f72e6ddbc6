package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/leadbook/internal/model"
)

// Admin is satisfied by *service.AdminService.
type Admin interface {
	ListUsers(ctx context.Context, search string) ([]model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	TopUp(ctx context.Context, adminID, userID string, amount int, description string) (int, error)
	Transactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

// AdminHandler serves /api/admin. The router mounts it behind
// auth.RequireAdmin.
type AdminHandler struct {
	admin  Admin
	logger *slog.Logger
}

func NewAdminHandler(admin Admin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HTTP: GET /api/admin/users?search=
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: GET /api/admin/users/{id}
func (h *AdminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.admin.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type creditRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

type creditResponse struct {
	UserID  string `json:"userId"`
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
}

// HandleCredit tops up a user's balance.
//
// HTTP: POST /api/admin/users/{id}/credit  {"amount": 100, "description": "..."}
func (h *AdminHandler) HandleCredit(w http.ResponseWriter, r *http.Request) {
	adminID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req creditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID := r.PathValue("id")
	balance, err := h.admin.TopUp(r.Context(), adminID, userID, req.Amount, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, creditResponse{UserID: userID, Amount: req.Amount, Balance: balance})
}

// HTTP: GET /api/admin/users/{id}/transactions
func (h *AdminHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.admin.Transactions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
