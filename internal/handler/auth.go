package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"

	"github.com/sakif/leadbook/internal/auth"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/service"
)

// Accounts is the part of service.AuthService the handlers call.
type Accounts interface {
	Register(ctx context.Context, email, username, password string) (*service.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*service.AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	UpdateTheme(ctx context.Context, userID, theme string) (model.Theme, error)
	LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*service.AuthResult, error)
}

// OAuthProvider is satisfied by *auth.GitHubProvider.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves password registration and login, the current-user
// endpoints and the optional GitHub OAuth flow.
type AuthHandler struct {
	accounts   Accounts
	github     OAuthProvider // nil when GitHub login is disabled
	successURL string
	logger     *slog.Logger
}

func NewAuthHandler(accounts Accounts, github OAuthProvider, successURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:   accounts,
		github:     github,
		successURL: successURL,
		logger:     logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates an account and returns it with a token.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.accounts.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	// Identifier is a username or an email. "username" is accepted as an alias.
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Identifier == "" {
		req.Identifier = req.Username
	}

	result, err := h.accounts.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateTheme stores the UI theme preference.
//
// HTTP: PATCH /api/theme  {"theme": "dark"|"light"}
func (h *AuthHandler) HandleUpdateTheme(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	theme, err := h.accounts.UpdateTheme(r.Context(), userID, req.Theme)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Theme{"theme": theme})
}

const stateCookie = "oauth_state"

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
// A random state is kept in a short-lived HttpOnly cookie and checked on
// callback.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and hands the token to the
// frontend in the URL fragment, which browsers never send to servers.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.successURL+"#error="+url.QueryEscape(errParam), http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gh, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	result, err := h.accounts.LoginOrRegisterGitHub(r.Context(), gh)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", gh.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.successURL+"#token="+url.QueryEscape(result.Token), http.StatusSeeOther)
}
