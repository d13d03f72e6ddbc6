package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

var (
	_ repository.LedgerRepository = (*Store)(nil)
	_ repository.QueryRepository  = (*Store)(nil)
)

func (s *Store) Balance(ctx context.Context, userID string) (int, bool, error) {
	var balance int
	err := s.db.GetContext(ctx, &balance, s.q(`SELECT balance FROM users WHERE id = ?`), userID)
	if err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlstore: reading balance of %s: %w", userID, err)
	}
	return balance, true, nil
}

// Debit subtracts amount only if the balance covers it. The guarded UPDATE is
// the serialization point: concurrent debits queue on the row (Postgres) or
// the database write lock (SQLite), and whichever runs second re-evaluates
// the guard against the committed balance.
func (s *Store) Debit(ctx context.Context, userID string, amount int, description string) (bool, error) {
	return s.applyMovement(ctx, userID, -amount, description,
		`UPDATE users SET balance = balance - ? WHERE id = ? AND balance >= ?`,
		amount, userID, amount,
	)
}

func (s *Store) Credit(ctx context.Context, userID string, amount int, description string) (bool, error) {
	return s.applyMovement(ctx, userID, amount, description,
		`UPDATE users SET balance = balance + ? WHERE id = ?`,
		amount, userID,
	)
}

// applyMovement runs the balance update and, if it touched a row, appends
// the Transaction with the signed amount. Both commit together.
func (s *Store) applyMovement(ctx context.Context, userID string, signed int, description, update string, args ...any) (bool, error) {
	applied := false

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(update), args...)
		if err != nil {
			return fmt.Errorf("sqlstore: updating balance of %s: %w", userID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("sqlstore: checking rows affected: %w", err)
		} else if n == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, s.q(
			`INSERT INTO transactions (id, user_id, amount, description, created_at)
			 VALUES (?, ?, ?, ?, ?)`),
			xid.New().String(), userID, signed, description, s.now(),
		)
		if err != nil {
			return fmt.Errorf("sqlstore: recording transaction for %s: %w", userID, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) Transactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	txs := []model.Transaction{}
	err := s.db.SelectContext(ctx, &txs, s.q(
		`SELECT id, user_id, amount, description, created_at FROM transactions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing transactions of %s: %w", userID, err)
	}
	return txs, nil
}

func (s *Store) RecordQuery(ctx context.Context, q *model.Query) error {
	q.ID = xid.New().String()
	q.CreatedAt = s.now()

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO queries (id, user_id, city, category, country, requested_limit, result_count, created_at)
		 VALUES (:id, :user_id, :city, :category, :country, :requested_limit, :result_count, :created_at)`,
		q,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: recording query for %s: %w", q.UserID, err)
	}
	return nil
}

func (s *Store) RecentQueries(ctx context.Context, userID string, limit int) ([]model.Query, error) {
	qs := []model.Query{}
	err := s.db.SelectContext(ctx, &qs, s.q(
		`SELECT id, user_id, city, category, country, requested_limit, result_count, created_at
		 FROM queries
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing queries of %s: %w", userID, err)
	}
	return qs, nil
}

func (s *Store) CountQueries(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM queries WHERE user_id = ? AND created_at >= ?`),
		userID, startOrEpoch(since))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting queries of %s: %w", userID, err)
	}
	return n, nil
}

// expectOne maps a zero-row UPDATE or DELETE to NotFound.
func expectOne(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
