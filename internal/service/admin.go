package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

// AdminTransactionLimit is how many transactions the admin view shows per user.
const AdminTransactionLimit = 100

// AdminService backs the admin routes. Callers must already have passed
// auth.RequireAdmin.
type AdminService struct {
	users  repository.UserRepository
	ledger *LedgerService
	logger *slog.Logger
}

func NewAdminService(users repository.UserRepository, ledger *LedgerService, logger *slog.Logger) *AdminService {
	return &AdminService{
		users:  users,
		ledger: ledger,
		logger: logger,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing users: %w", err)
	}
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/admin: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// TopUp credits amount to userID and returns the new balance.
func (s *AdminService) TopUp(ctx context.Context, adminID, userID string, amount int, description string) (int, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Admin top-up"
	}

	ok, err := s.ledger.Credit(ctx, userID, amount, description)
	if err != nil {
		return 0, fmt.Errorf("service/admin: %w", err)
	}
	if !ok {
		return 0, apperror.NotFound("user", userID)
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service/admin: %w", err)
	}

	s.logger.Info("admin top-up",
		slog.String("adminID", adminID),
		slog.String("userID", userID),
		slog.Int("amount", amount),
		slog.Int("balance", balance),
	)
	return balance, nil
}

// Transactions returns the newest transactions of userID.
func (s *AdminService) Transactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, userID, AdminTransactionLimit)
}
