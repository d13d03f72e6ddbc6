package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strconv"
	"strings"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/auth"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// AuthService handles registration, login and the account settings of the
// signed-in user.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users           repository.UserRepository
	tokens          *auth.TokenService
	passwords       *auth.PasswordService
	startingBalance int
	adminEmails     []string
	logger          *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	startingBalance int,
	adminEmails []string,
	logger *slog.Logger,
) *AuthService {
	lowered := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			lowered = append(lowered, e)
		}
	}
	return &AuthService{
		users:           users,
		tokens:          tokens,
		passwords:       passwords,
		startingBalance: startingBalance,
		adminEmails:     lowered,
		logger:          logger,
	}
}

// AuthResult bundles the user and the issued token so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates a password account with the starting balance. Emails
// listed in ADMIN_EMAILS are created as admins.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if n := len([]rune(username)); n < MinUsernameLength || n > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	if err := auth.CheckStrength(password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Balance:      s.startingBalance,
		IsAdmin:      s.isAdminEmail(email),
		Theme:        model.ThemeDark,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.Bool("admin", user.IsAdmin),
	)
	return s.issue(user)
}

// Login accepts a username or an email as identifier. Unknown identifiers and
// wrong passwords produce the same Unauthenticated error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.ValidationFailed("identifier", "username and password are required")
	}

	user, err := s.users.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", identifier, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("login rejected", slog.String("userID", user.ID))
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByID lets AuthService serve auth.RequireAdmin.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.Me(ctx, id)
}

func (s *AuthService) UpdateTheme(ctx context.Context, userID, theme string) (model.Theme, error) {
	t := model.Theme(strings.ToLower(strings.TrimSpace(theme)))
	if !t.Valid() {
		return "", apperror.ValidationFailed("theme", "theme must be dark or light")
	}
	if err := s.users.UpdateTheme(ctx, userID, t); err != nil {
		return "", fmt.Errorf("service/auth: updating theme: %w", err)
	}
	return t, nil
}

// LoginOrRegisterGitHub signs in the owner of a GitHub profile. The account
// is found by GitHub id, then by email (and linked); otherwise a new one is
// created with the starting balance and no password.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		s.logger.Info("user authenticated via GitHub", slog.String("userID", user.ID))
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up GitHub id %d: %w", gh.ID, err)
	}

	email := strings.ToLower(strings.TrimSpace(gh.Email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no verified email")
	}

	user, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.LinkGitHub(ctx, user.ID, gh.ID); err != nil {
			return nil, fmt.Errorf("service/auth: linking GitHub id %d: %w", gh.ID, err)
		}
		id := gh.ID
		user.GitHubID = &id
		s.logger.Info("GitHub account linked", slog.String("userID", user.ID))
		return s.issue(user)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	id := gh.ID
	user = &model.User{
		Email:    email,
		Username: gitHubUsername(gh),
		GitHubID: &id,
		Balance:  s.startingBalance,
		IsAdmin:  s.isAdminEmail(email),
		Theme:    model.ThemeDark,
	}
	// A local user may already own the GitHub login as username.
	for attempt := 0; ; attempt++ {
		err = s.users.CreateUser(ctx, user)
		if err == nil || !errors.Is(err, apperror.ErrConflict) || attempt >= 3 {
			break
		}
		user.Username = fmt.Sprintf("%s-%d", gitHubUsername(gh), gh.ID)
		if attempt > 0 {
			user.Username += "-" + strconv.Itoa(attempt)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user %s: %w", gh.Login, err)
	}

	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// ValidateToken resolves a bearer token to a user id.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	return s.tokens.Resolve(tokenStr)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) isAdminEmail(email string) bool {
	return slices.Contains(s.adminEmails, email)
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return apperror.ValidationFailed("email", "invalid email format")
	}
	return nil
}

func gitHubUsername(gh *auth.GitHubUser) string {
	name := strings.TrimSpace(gh.Login)
	if len(name) < MinUsernameLength {
		name = "github-" + strconv.FormatInt(gh.ID, 10)
	}
	if len(name) > MaxUsernameLength {
		name = name[:MaxUsernameLength]
	}
	return name
}
