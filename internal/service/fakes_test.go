package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/places"
	"github.com/sakif/leadbook/internal/repository"
)

// In-memory stand-ins for the repositories. They follow the same contracts
// as sqlstore: NotFound for missing rows, Conflict for duplicate users, and
// an all-or-nothing Debit.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore implements UserRepository, LedgerRepository and QueryRepository
// over one user map so balances and users stay consistent.
type fakeStore struct {
	mu           sync.Mutex
	users        map[string]*model.User
	transactions []model.Transaction
	queries      []model.Query
	nextID       int

	createErr error
	debitErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*model.User)}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// addUser seeds a user directly and returns its id.
func (f *fakeStore) addUser(username string, balance int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{
		ID:        f.id("user"),
		Email:     username + "@example.com",
		Username:  username,
		Balance:   balance,
		Theme:     model.ThemeDark,
		CreatedAt: time.Now(),
	}
	f.users[u.ID] = u
	return u.ID
}

func (f *fakeStore) balanceOf(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID].Balance
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("email", user.Email)
		}
		if u.Username == user.Username {
			return apperror.Conflict("username", user.Username)
		}
	}
	user.ID = f.id("user")
	user.CreatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeStore) find(label string, match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", label)
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.find(id, func(u *model.User) bool { return u.ID == id })
}

func (f *fakeStore) GetUserByLogin(_ context.Context, identifier string) (*model.User, error) {
	if u, err := f.find(identifier, func(u *model.User) bool { return u.Username == identifier }); err == nil {
		return u, nil
	}
	lower := strings.ToLower(identifier)
	return f.find(identifier, func(u *model.User) bool { return u.Email == lower })
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(email, func(u *model.User) bool { return u.Email == email })
}

func (f *fakeStore) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	return f.find(fmt.Sprint(githubID), func(u *model.User) bool {
		return u.GitHubID != nil && *u.GitHubID == githubID
	})
}

func (f *fakeStore) LinkGitHub(_ context.Context, userID string, githubID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.GitHubID = &githubID
	return nil
}

func (f *fakeStore) UpdateTheme(_ context.Context, userID string, theme model.Theme) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.Theme = theme
	return nil
}

func (f *fakeStore) PromoteAdmins(_ context.Context, emails []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.users {
		for _, e := range emails {
			if !u.IsAdmin && u.Email == e {
				u.IsAdmin = true
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeStore) ListUsers(_ context.Context, search string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, u := range f.users {
		if strings.Contains(u.Email, search) || strings.Contains(u.Username, search) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) Balance(_ context.Context, userID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return 0, false, nil
	}
	return u.Balance, true, nil
}

func (f *fakeStore) move(userID string, delta int, description string) bool {
	u, ok := f.users[userID]
	if !ok || u.Balance+delta < 0 {
		return false
	}
	u.Balance += delta
	f.transactions = append(f.transactions, model.Transaction{
		ID:          f.id("tx"),
		UserID:      userID,
		Amount:      delta,
		Description: description,
		CreatedAt:   time.Now(),
	})
	return true
}

func (f *fakeStore) Debit(_ context.Context, userID string, amount int, description string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return false, f.debitErr
	}
	return f.move(userID, -amount, description), nil
}

func (f *fakeStore) Credit(_ context.Context, userID string, amount int, description string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.move(userID, amount, description), nil
}

func (f *fakeStore) Transactions(_ context.Context, userID string, limit int) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Transaction{}
	for i := len(f.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if f.transactions[i].UserID == userID {
			out = append(out, f.transactions[i])
		}
	}
	return out, nil
}

func (f *fakeStore) transactionsOf(userID string) []model.Transaction {
	txs, _ := f.Transactions(context.Background(), userID, 1<<20)
	return txs
}

func (f *fakeStore) RecordQuery(_ context.Context, q *model.Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = f.id("query")
	q.CreatedAt = time.Now()
	f.queries = append(f.queries, *q)
	return nil
}

func (f *fakeStore) RecentQueries(_ context.Context, userID string, limit int) ([]model.Query, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Query{}
	for i := len(f.queries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.queries[i].UserID == userID {
			out = append(out, f.queries[i])
		}
	}
	return out, nil
}

func (f *fakeStore) CountQueries(_ context.Context, userID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if q.UserID == userID && !q.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) queriesOf(userID string) []model.Query {
	qs, _ := f.RecentQueries(context.Background(), userID, 1<<20)
	return qs
}

// fakeSearcher returns canned records and counts calls.
type fakeSearcher struct {
	mu          sync.Mutex
	records     []model.BusinessRecord
	err         error
	calls       int
	allCalls    int
	lastRequest places.Request
	lastCtx     context.Context
	pacing      time.Duration
}

func (f *fakeSearcher) Search(ctx context.Context, req places.Request) ([]model.BusinessRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastRequest = req
	f.lastCtx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSearcher) SearchAllCities(ctx context.Context, category, country string, limitPerCity int, phoneOnly bool) ([]model.BusinessRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	f.lastRequest = places.Request{Country: country, Category: category, Limit: limitPerCity, PhoneOnly: phoneOnly}
	f.lastCtx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSearcher) AllCitiesPacing(int) time.Duration {
	return f.pacing
}

// fakeScheduler records enqueued batches instead of running them.
type fakeScheduler struct {
	mu      sync.Mutex
	batches [][]model.BusinessRecord
	err     error
}

func (f *fakeScheduler) Enqueue(_ context.Context, _ string, _ string, records []model.BusinessRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.batches = append(f.batches, records)
	return fmt.Sprintf("task-%d", len(f.batches)), nil
}

// fakeTasks implements IngestTaskRepository.
type fakeTasks struct {
	tasks map[string]model.IngestTask
}

func (f *fakeTasks) CreateIngestTask(_ context.Context, task *model.IngestTask) error {
	task.ID = fmt.Sprintf("task-%d", len(f.tasks)+1)
	task.Status = model.IngestPending
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTasks) FinishIngestTask(_ context.Context, id string, status model.IngestStatus, errText string) error {
	t, ok := f.tasks[id]
	if !ok {
		return apperror.NotFound("ingest task", id)
	}
	t.Status = status
	t.Error = errText
	f.tasks[id] = t
	return nil
}

func (f *fakeTasks) GetIngestTask(_ context.Context, userID, id string) (*model.IngestTask, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, apperror.NotFound("ingest task", id)
	}
	return &t, nil
}

// fakeBusinesses implements BusinessRepository and ActivityRepository with
// just enough behavior for the CRM and dashboard services.
type fakeBusinesses struct {
	businesses []model.Business
	activities []model.Activity
	lastFilter repository.BusinessFilter
	upserts    int
	nextID     int
}

func (f *fakeBusinesses) UpsertBusinesses(_ context.Context, userID, category string, records []model.BusinessRecord) error {
	f.upserts++
	for _, r := range records {
		f.nextID++
		f.businesses = append(f.businesses, model.Business{
			ID:        fmt.Sprintf("biz-%d", f.nextID),
			UserID:    userID,
			Name:      r.Name,
			City:      r.City,
			Address:   r.Address,
			Phone:     r.Phone,
			Stage:     model.StageNew,
			Category:  category,
			CreatedAt: time.Now(),
		})
	}
	return nil
}

func (f *fakeBusinesses) ListBusinesses(_ context.Context, userID string, filter repository.BusinessFilter) ([]model.Business, error) {
	f.lastFilter = filter
	out := []model.Business{}
	for _, b := range f.businesses {
		if b.UserID == userID && (filter.Stage == "" || b.Stage == filter.Stage) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBusinesses) index(userID, id string) int {
	for i, b := range f.businesses {
		if b.ID == id && b.UserID == userID {
			return i
		}
	}
	return -1
}

func (f *fakeBusinesses) GetBusiness(_ context.Context, userID, id string) (*model.Business, error) {
	i := f.index(userID, id)
	if i < 0 {
		return nil, apperror.NotFound("business", id)
	}
	b := f.businesses[i]
	return &b, nil
}

func (f *fakeBusinesses) UpdateStage(_ context.Context, userID, id string, stage model.Stage) (*model.Business, error) {
	i := f.index(userID, id)
	if i < 0 {
		return nil, apperror.NotFound("business", id)
	}
	f.businesses[i].Stage = stage
	b := f.businesses[i]
	return &b, nil
}

func (f *fakeBusinesses) DeleteBusiness(_ context.Context, userID, id string) error {
	i := f.index(userID, id)
	if i < 0 {
		return apperror.NotFound("business", id)
	}
	f.businesses = append(f.businesses[:i], f.businesses[i+1:]...)
	kept := f.activities[:0]
	for _, a := range f.activities {
		if a.BusinessID != id {
			kept = append(kept, a)
		}
	}
	f.activities = kept
	return nil
}

func (f *fakeBusinesses) BusinessCities(_ context.Context, userID string) ([]string, error) {
	return []string{"Ankara", "İstanbul"}, nil
}

func (f *fakeBusinesses) BusinessDistricts(_ context.Context, userID, city string) ([]string, error) {
	if city == "" {
		return []string{"Çankaya", "Kadıköy"}, nil
	}
	return []string{"Çankaya"}, nil
}

func (f *fakeBusinesses) CountBusinesses(_ context.Context, userID string, since time.Time) (int, error) {
	n := 0
	for _, b := range f.businesses {
		if b.UserID == userID && !b.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeBusinesses) ListActivities(_ context.Context, userID, businessID string) ([]model.Activity, error) {
	if f.index(userID, businessID) < 0 {
		return nil, apperror.NotFound("business", businessID)
	}
	out := []model.Activity{}
	for _, a := range f.activities {
		if a.BusinessID == businessID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBusinesses) CreateActivity(_ context.Context, userID string, a *model.Activity) error {
	if f.index(userID, a.BusinessID) < 0 {
		return apperror.NotFound("business", a.BusinessID)
	}
	f.nextID++
	a.ID = fmt.Sprintf("act-%d", f.nextID)
	a.CreatedAt = time.Now()
	f.activities = append(f.activities, *a)
	return nil
}

func (f *fakeBusinesses) DeleteActivity(_ context.Context, userID, businessID, activityID string) error {
	if f.index(userID, businessID) < 0 {
		return apperror.NotFound("activity", activityID)
	}
	for i, a := range f.activities {
		if a.ID == activityID && a.BusinessID == businessID {
			f.activities = append(f.activities[:i], f.activities[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("activity", activityID)
}
