// Package service contains the business rules of the application.
//
//	Handler (HTTP) → Service (validation, orchestration) → Repository (SQL)
//
// Services depend on the interfaces in internal/repository, never on a
// concrete store, and report failures with the apperror taxonomy so handlers
// can map them to status codes without inspecting messages.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

// LedgerService is the only writer of user balances.
type LedgerService struct {
	ledger  repository.LedgerRepository
	queries repository.QueryRepository
	logger  *slog.Logger
}

func NewLedgerService(ledger repository.LedgerRepository, queries repository.QueryRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		ledger:  ledger,
		queries: queries,
		logger:  logger,
	}
}

// Balance returns the user's balance, or 0 when the user does not exist.
func (s *LedgerService) Balance(ctx context.Context, userID string) (int, error) {
	balance, _, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service/ledger: reading balance of %s: %w", userID, err)
	}
	return balance, nil
}

// Debit removes amount from the balance and appends a negative Transaction.
// It returns false without error when the user is missing or cannot cover
// the amount; the balance is then unchanged and no Transaction is written.
func (s *LedgerService) Debit(ctx context.Context, userID string, amount int, description string) (bool, error) {
	if amount <= 0 {
		return false, apperror.ValidationFailed("amount", "amount must be positive")
	}

	ok, err := s.ledger.Debit(ctx, userID, amount, description)
	if err != nil {
		return false, fmt.Errorf("service/ledger: debiting %d from %s: %w", amount, userID, err)
	}
	if !ok {
		s.logger.Warn("debit rejected",
			slog.String("userID", userID),
			slog.Int("amount", amount),
		)
		return false, nil
	}

	s.logger.Info("balance debited",
		slog.String("userID", userID),
		slog.Int("amount", amount),
		slog.String("description", description),
	)
	return true, nil
}

// Credit adds amount to the balance and appends a positive Transaction.
// Authorization is the caller's job.
func (s *LedgerService) Credit(ctx context.Context, userID string, amount int, description string) (bool, error) {
	if amount <= 0 {
		return false, apperror.ValidationFailed("amount", "amount must be positive")
	}

	ok, err := s.ledger.Credit(ctx, userID, amount, description)
	if err != nil {
		return false, fmt.Errorf("service/ledger: crediting %d to %s: %w", amount, userID, err)
	}
	if ok {
		s.logger.Info("balance credited",
			slog.String("userID", userID),
			slog.Int("amount", amount),
			slog.String("description", description),
		)
	}
	return ok, nil
}

// RecordQuery appends q to the user's search history.
func (s *LedgerService) RecordQuery(ctx context.Context, q *model.Query) error {
	if err := s.queries.RecordQuery(ctx, q); err != nil {
		return fmt.Errorf("service/ledger: recording query: %w", err)
	}
	return nil
}

// History returns the newest limit transactions of userID.
func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	txs, err := s.ledger.Transactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("service/ledger: listing transactions of %s: %w", userID, err)
	}
	return txs, nil
}
