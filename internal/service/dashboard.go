package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

const dashboardRecent = 10

type DashboardStats struct {
	Balance            int                 `json:"balance"`
	TotalQueries       int                 `json:"totalQueries"`
	QueriesToday       int                 `json:"queriesToday"`
	TotalBusinesses    int                 `json:"totalBusinesses"`
	BusinessesToday    int                 `json:"businessesToday"`
	RecentTransactions []model.Transaction `json:"recentTransactions"`
	RecentQueries      []model.Query       `json:"recentQueries"`
}

type DashboardService struct {
	ledger     *LedgerService
	queries    repository.QueryRepository
	businesses repository.BusinessRepository
	now        func() time.Time
}

func NewDashboardService(ledger *LedgerService, queries repository.QueryRepository, businesses repository.BusinessRepository) *DashboardService {
	return &DashboardService{
		ledger:     ledger,
		queries:    queries,
		businesses: businesses,
		now:        time.Now,
	}
}

// Stats summarizes the account of userID. "Today" starts at midnight UTC.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		stats DashboardStats
		err   error
	)
	if stats.Balance, err = s.ledger.Balance(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/dashboard: %w", err)
	}
	if stats.TotalQueries, err = s.queries.CountQueries(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("service/dashboard: counting queries: %w", err)
	}
	if stats.QueriesToday, err = s.queries.CountQueries(ctx, userID, today); err != nil {
		return nil, fmt.Errorf("service/dashboard: counting today's queries: %w", err)
	}
	if stats.TotalBusinesses, err = s.businesses.CountBusinesses(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("service/dashboard: counting businesses: %w", err)
	}
	if stats.BusinessesToday, err = s.businesses.CountBusinesses(ctx, userID, today); err != nil {
		return nil, fmt.Errorf("service/dashboard: counting today's businesses: %w", err)
	}
	if stats.RecentTransactions, err = s.ledger.History(ctx, userID, dashboardRecent); err != nil {
		return nil, fmt.Errorf("service/dashboard: %w", err)
	}
	if stats.RecentQueries, err = s.queries.RecentQueries(ctx, userID, dashboardRecent); err != nil {
		return nil, fmt.Errorf("service/dashboard: listing queries: %w", err)
	}
	return &stats, nil
}
