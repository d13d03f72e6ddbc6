// Package repository declares the storage interfaces the services depend on.
// internal/repository/sqlstore provides the SQL implementation; service tests
// use hand-written fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/leadbook/internal/model"
)

type UserRepository interface {
	// CreateUser returns apperror.ErrConflict when the email or username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByLogin matches identifier against username first, then email.
	GetUserByLogin(ctx context.Context, identifier string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	LinkGitHub(ctx context.Context, userID string, githubID int64) error
	UpdateTheme(ctx context.Context, userID string, theme model.Theme) error
	// PromoteAdmins sets the admin flag on every user whose email is listed
	// and returns how many rows changed.
	PromoteAdmins(ctx context.Context, emails []string) (int, error)
	// ListUsers returns users whose email or username contains search,
	// newest first. An empty search returns everyone.
	ListUsers(ctx context.Context, search string) ([]model.User, error)
}

// LedgerRepository owns every balance mutation. Debit and Credit write the
// balance change and its Transaction row in one database transaction.
type LedgerRepository interface {
	// Balance returns the current balance and whether the user exists.
	Balance(ctx context.Context, userID string) (int, bool, error)
	// Debit returns false without error when the user is missing or the
	// balance is below amount.
	Debit(ctx context.Context, userID string, amount int, description string) (bool, error)
	// Credit returns false without error when the user is missing.
	Credit(ctx context.Context, userID string, amount int, description string) (bool, error)
	Transactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
}

type QueryRepository interface {
	RecordQuery(ctx context.Context, q *model.Query) error
	RecentQueries(ctx context.Context, userID string, limit int) ([]model.Query, error)
	// CountQueries counts queries created at or after since. A zero since
	// counts all of them.
	CountQueries(ctx context.Context, userID string, since time.Time) (int, error)
}

// PhoneFilter narrows a business listing by phone presence.
type PhoneFilter string

const (
	PhoneAny  PhoneFilter = "any"
	PhoneHas  PhoneFilter = "has"
	PhoneNone PhoneFilter = "none"
)

// BusinessFilter is already normalized: empty strings mean "no filter".
type BusinessFilter struct {
	City     string
	District string
	Stage    model.Stage
	Phone    PhoneFilter
}

type BusinessRepository interface {
	// UpsertBusinesses ingests records for userID in a single transaction,
	// keyed on (user, name, address). Existing rows keep their stage.
	UpsertBusinesses(ctx context.Context, userID, category string, records []model.BusinessRecord) error
	ListBusinesses(ctx context.Context, userID string, filter BusinessFilter) ([]model.Business, error)
	GetBusiness(ctx context.Context, userID, id string) (*model.Business, error)
	UpdateStage(ctx context.Context, userID, id string, stage model.Stage) (*model.Business, error)
	// DeleteBusiness removes the business and its activities.
	DeleteBusiness(ctx context.Context, userID, id string) error
	BusinessCities(ctx context.Context, userID string) ([]string, error)
	BusinessDistricts(ctx context.Context, userID, city string) ([]string, error)
	CountBusinesses(ctx context.Context, userID string, since time.Time) (int, error)
}

// ActivityRepository scopes every call by the owner of the parent business.
type ActivityRepository interface {
	ListActivities(ctx context.Context, userID, businessID string) ([]model.Activity, error)
	CreateActivity(ctx context.Context, userID string, a *model.Activity) error
	DeleteActivity(ctx context.Context, userID, businessID, activityID string) error
}

type IngestTaskRepository interface {
	CreateIngestTask(ctx context.Context, task *model.IngestTask) error
	FinishIngestTask(ctx context.Context, id string, status model.IngestStatus, errText string) error
	GetIngestTask(ctx context.Context, userID, id string) (*model.IngestTask, error)
}
