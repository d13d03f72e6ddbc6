package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/catalog"
	"github.com/sakif/leadbook/internal/config"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/places"
	"github.com/sakif/leadbook/internal/repository"
)

// DefaultSearchLimit applies when a request leaves the limit at zero.
const DefaultSearchLimit = 20

// PlaceSearcher is the part of places.Searcher the orchestrator needs.
type PlaceSearcher interface {
	Search(ctx context.Context, req places.Request) ([]model.BusinessRecord, error)
	SearchAllCities(ctx context.Context, category, country string, limitPerCity int, phoneOnly bool) ([]model.BusinessRecord, error)
	AllCitiesPacing(limitPerCity int) time.Duration
}

// IngestScheduler hands search results to the deferred CRM upsert.
type IngestScheduler interface {
	Enqueue(ctx context.Context, userID, category string, records []model.BusinessRecord) (string, error)
}

type SearchRequest struct {
	City      string `json:"city"`
	Country   string `json:"country"`
	Category  string `json:"category"`
	Limit     int    `json:"limit"`
	AllCities bool   `json:"allCities"`
	PhoneOnly bool   `json:"phoneOnly"`
}

type SearchResult struct {
	Businesses       []model.BusinessRecord `json:"businesses"`
	TotalFound       int                    `json:"totalFound"`
	CreditsUsed      int                    `json:"creditsUsed"`
	RemainingBalance int                    `json:"remainingBalance"`
	IngestTaskID     string                 `json:"ingestTaskId,omitempty"`
}

// SearchService runs a paid search: balance pre-check, provider call, debit,
// history entry and a deferred CRM upsert.
type SearchService struct {
	ledger   *LedgerService
	searcher PlaceSearcher
	ingest   IngestScheduler
	tasks    repository.IngestTaskRepository
	catalog  *catalog.Catalog
	credits  config.CreditConfig
	timeout  time.Duration
	logger   *slog.Logger

	// allCitiesTimeout replaces timeout for all-cities searches.
	allCitiesTimeout time.Duration
}

func NewSearchService(
	ledger *LedgerService,
	searcher PlaceSearcher,
	ingest IngestScheduler,
	tasks repository.IngestTaskRepository,
	cat *catalog.Catalog,
	credits config.CreditConfig,
	timeout, allCitiesTimeout time.Duration,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		ledger:   ledger,
		searcher: searcher,
		ingest:   ingest,
		tasks:    tasks,
		catalog:  cat,
		credits:  credits,
		timeout:  timeout,
		logger:   logger,

		allCitiesTimeout: allCitiesTimeout,
	}
}

// Execute runs a search on behalf of userID.
//
// The balance check is made against the requested limit; the debit is for
// the results actually returned. The debit itself is the serialization point:
// if a concurrent search spent the credits in between, Execute fails with
// apperror.CreditDeduction and nothing is recorded. Provider failures leave
// the balance and history untouched.
func (s *SearchService) Execute(ctx context.Context, userID string, req SearchRequest) (*SearchResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/search: %w", err)
	}
	required := req.Limit * s.credits.PerResultCost
	if balance < required {
		return nil, apperror.InsufficientBalance(required, balance)
	}

	records, err := s.run(ctx, req)
	if err != nil {
		s.logger.Warn("search failed",
			slog.String("userID", userID),
			slog.String("category", req.Category),
			slog.String("city", req.City),
			slog.Any("error", err),
		)
		return nil, err
	}

	cityLabel := req.City
	if req.AllCities {
		cityLabel = catalog.AllCities
	}

	creditsUsed := len(records) * s.credits.PerResultCost
	if creditsUsed > 0 {
		description := fmt.Sprintf("Search: %s - %s", req.Category, cityLabel)
		ok, err := s.ledger.Debit(ctx, userID, creditsUsed, description)
		if err != nil {
			return nil, fmt.Errorf("service/search: %w", err)
		}
		if !ok {
			return nil, apperror.CreditDeduction(creditsUsed)
		}
	}

	query := &model.Query{
		UserID:      userID,
		City:        cityLabel,
		Category:    req.Category,
		Country:     req.Country,
		Limit:       req.Limit,
		ResultCount: len(records),
	}
	if err := s.ledger.RecordQuery(ctx, query); err != nil {
		return nil, fmt.Errorf("service/search: %w", err)
	}

	result := &SearchResult{
		Businesses:  records,
		TotalFound:  len(records),
		CreditsUsed: creditsUsed,
	}

	if len(records) > 0 {
		taskID, err := s.ingest.Enqueue(ctx, userID, req.Category, records)
		if err != nil {
			// The search is paid for; report it and leave the CRM as it is.
			s.logger.Error("scheduling ingest",
				slog.String("userID", userID),
				slog.Any("error", err),
			)
		}
		result.IngestTaskID = taskID
	}

	result.RemainingBalance, err = s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/search: %w", err)
	}

	s.logger.Info("search completed",
		slog.String("userID", userID),
		slog.String("category", req.Category),
		slog.String("city", cityLabel),
		slog.Int("results", len(records)),
		slog.Int("creditsUsed", creditsUsed),
	)
	return result, nil
}

// IngestStatus returns the deferred upsert task created by a search of userID.
func (s *SearchService) IngestStatus(ctx context.Context, userID, taskID string) (*model.IngestTask, error) {
	task, err := s.tasks.GetIngestTask(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("service/search: fetching ingest task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *SearchService) normalize(req SearchRequest) (SearchRequest, error) {
	req.Category = strings.TrimSpace(req.Category)
	req.City = strings.TrimSpace(req.City)
	req.Country = strings.TrimSpace(req.Country)

	if req.Category == "" {
		return req, apperror.ValidationFailed("category", "category is required")
	}
	if req.AllCities {
		req.City = ""
	} else if req.City == "" {
		return req, apperror.ValidationFailed("city", "city is required unless allCities is set")
	}
	if req.Limit == 0 {
		req.Limit = DefaultSearchLimit
	}
	if req.Limit < 1 || req.Limit > s.credits.MaxSearchLimit {
		return req, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 1 and %d", s.credits.MaxSearchLimit))
	}
	if req.Country == "" {
		req.Country = s.catalog.DefaultCountry()
	}
	if req.AllCities && s.allCitiesTimeout > 0 {
		if need := s.searcher.AllCitiesPacing(req.Limit); need > s.allCitiesTimeout {
			return req, apperror.ValidationFailed("limit",
				fmt.Sprintf("an all-cities search with limit %d takes at least %s, over the %s limit; lower the limit",
					req.Limit, need.Round(time.Second), s.allCitiesTimeout))
		}
	}
	return req, nil
}

// run calls the provider under the timeout for the request's kind. Errors
// that are not already classified are reported as provider failures.
func (s *SearchService) run(ctx context.Context, req SearchRequest) ([]model.BusinessRecord, error) {
	timeout := s.timeout
	if req.AllCities {
		timeout = s.allCitiesTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		records []model.BusinessRecord
		err     error
	)
	if req.AllCities {
		records, err = s.searcher.SearchAllCities(ctx, req.Category, req.Country, req.Limit, req.PhoneOnly)
	} else {
		records, err = s.searcher.Search(ctx, places.Request{
			City:      req.City,
			Country:   req.Country,
			Category:  req.Category,
			Limit:     req.Limit,
			PhoneOnly: req.PhoneOnly,
		})
	}
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.SearchProvider(err)
	}
	return records, nil
}
