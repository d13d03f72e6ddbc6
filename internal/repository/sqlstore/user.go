package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

const userColumns = `id, email, username, password_hash, github_id, balance, is_admin, theme, created_at`

// CreateUser inserts user, filling in ID and CreatedAt. Email and username
// uniqueness is checked inside the insert transaction so the caller gets a
// Conflict naming the offending field.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = s.now()
	if user.Theme == "" {
		user.Theme = model.ThemeDark
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM users WHERE email = ?`), user.Email); err != nil {
			return fmt.Errorf("sqlstore: checking email: %w", err)
		}
		if n > 0 {
			return apperror.Conflict("email", user.Email)
		}
		if err := tx.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM users WHERE username = ?`), user.Username); err != nil {
			return fmt.Errorf("sqlstore: checking username: %w", err)
		}
		if n > 0 {
			return apperror.Conflict("username", user.Username)
		}

		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES (:id, :email, :username, :password_hash, :github_id, :balance, :is_admin, :theme, :created_at)`,
			user,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: inserting user %s: %w", user.Username, err)
		}
		return nil
	})
}

func (s *Store) getUser(ctx context.Context, label, where string, args ...any) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT `+userColumns+` FROM users WHERE `+where), args...)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", label, err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, id, `id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, email, `email = ?`, email)
}

func (s *Store) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return s.getUser(ctx, fmt.Sprint(githubID), `github_id = ?`, githubID)
}

// GetUserByLogin prefers a username match over an email match, so a user
// whose username looks like someone else's email still logs in as themself.
func (s *Store) GetUserByLogin(ctx context.Context, identifier string) (*model.User, error) {
	return s.getUser(ctx, identifier,
		`username = ? OR email = ?
		 ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		 LIMIT 1`,
		identifier, strings.ToLower(identifier), identifier,
	)
}

func (s *Store) LinkGitHub(ctx context.Context, userID string, githubID int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET github_id = ? WHERE id = ?`), githubID, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: linking github account to %s: %w", userID, err)
	}
	return expectOne(res, "user", userID)
}

func (s *Store) UpdateTheme(ctx context.Context, userID string, theme model.Theme) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET theme = ? WHERE id = ?`), theme, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: updating theme for %s: %w", userID, err)
	}
	return expectOne(res, "user", userID)
}

func (s *Store) PromoteAdmins(ctx context.Context, emails []string) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(strings.TrimSpace(e))
	}

	query, args, err := sqlx.In(`UPDATE users SET is_admin = ? WHERE is_admin = ? AND email IN (?)`, true, false, lowered)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: building admin promotion: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: promoting admins: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	return int(n), nil
}

func (s *Store) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	users := []model.User{}
	pattern := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"

	err := s.db.SelectContext(ctx, &users, s.q(
		`SELECT `+userColumns+` FROM users
		 WHERE LOWER(email) LIKE ? OR LOWER(username) LIKE ?
		 ORDER BY created_at DESC, id DESC`),
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	return users, nil
}
