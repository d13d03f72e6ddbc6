// Package sqlstore implements the repository interfaces on top of sqlx.
//
// Two drivers are supported:
//   - "sqlite": modernc.org/sqlite, pure Go, the default. Use ":memory:" in tests.
//   - "pgx":    Postgres through github.com/jackc/pgx/v5/stdlib.
//
// All DML is written once with "?" placeholders and passed through Rebind,
// so only the schema differs between the two (see schema.go).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	// sqlx does not know modernc's driver name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store is a single handle implementing every repository interface.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// Open connects, applies connection settings and runs migrations.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: pinging database: %w", err)
	}

	if driver == "sqlite" {
		// One connection: ":memory:" databases are per connection, PRAGMAs are
		// per connection, and SQLite allows a single writer anyway.
		db.SetMaxOpenConns(1)

		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	s := &Store{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	stmts := sqliteSchema
	if s.driver == "pgx" {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%.60s: %w", stmt, err)
		}
	}
	return nil
}

// q rebinds a "?" query for the active driver.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. fn must only use tx: the SQLite pool holds a single connection.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// startOrEpoch turns a zero "since" into a bound that matches every row.
func startOrEpoch(since time.Time) time.Time {
	if since.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return since.UTC()
}
