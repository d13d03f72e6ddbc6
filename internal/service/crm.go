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

// MaxOutcomeLength bounds the free-text outcome of an activity.
const MaxOutcomeLength = 2000

// ListFilter is the raw filter as received from a client. "all" or an empty
// value disables a field.
type ListFilter struct {
	City     string
	District string
	Stage    string
	Phone    string
}

// CRMService manages a user's businesses and their activity logs. Every call
// is scoped by the owning user; another user's records look like NotFound.
type CRMService struct {
	businesses repository.BusinessRepository
	activities repository.ActivityRepository
	logger     *slog.Logger
}

func NewCRMService(businesses repository.BusinessRepository, activities repository.ActivityRepository, logger *slog.Logger) *CRMService {
	return &CRMService{
		businesses: businesses,
		activities: activities,
		logger:     logger,
	}
}

// UpsertBusinesses stores search results for userID, tagged with category.
// The ingest queue calls this through its Sink interface.
func (s *CRMService) UpsertBusinesses(ctx context.Context, userID, category string, records []model.BusinessRecord) error {
	if err := s.businesses.UpsertBusinesses(ctx, userID, category, records); err != nil {
		return fmt.Errorf("service/crm: upserting %d businesses: %w", len(records), err)
	}
	return nil
}

func (s *CRMService) List(ctx context.Context, userID string, f ListFilter) ([]model.Business, error) {
	filter, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}

	list, err := s.businesses.ListBusinesses(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("service/crm: listing businesses: %w", err)
	}
	return list, nil
}

func (s *CRMService) Get(ctx context.Context, userID, id string) (*model.Business, error) {
	b, err := s.businesses.GetBusiness(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("service/crm: fetching business %s: %w", id, err)
	}
	return b, nil
}

// UpdateStage moves a business to another pipeline stage. Unknown stage names
// are rejected.
func (s *CRMService) UpdateStage(ctx context.Context, userID, id, stage string) (*model.Business, error) {
	st, ok := model.ParseStage(stage)
	if !ok {
		return nil, apperror.ValidationFailed("stage", fmt.Sprintf("unknown stage %q", stage))
	}

	b, err := s.businesses.UpdateStage(ctx, userID, id, st)
	if err != nil {
		return nil, fmt.Errorf("service/crm: updating stage of %s: %w", id, err)
	}

	s.logger.Info("stage updated",
		slog.String("userID", userID),
		slog.String("businessID", id),
		slog.String("stage", string(st)),
	)
	return b, nil
}

// Delete removes a business together with its activities.
func (s *CRMService) Delete(ctx context.Context, userID, id string) error {
	if err := s.businesses.DeleteBusiness(ctx, userID, id); err != nil {
		return fmt.Errorf("service/crm: deleting business %s: %w", id, err)
	}
	s.logger.Info("business deleted", slog.String("userID", userID), slog.String("businessID", id))
	return nil
}

func (s *CRMService) Cities(ctx context.Context, userID string) ([]string, error) {
	cities, err := s.businesses.BusinessCities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/crm: listing cities: %w", err)
	}
	return cities, nil
}

// Districts lists the districts of userID's businesses, optionally within
// one city.
func (s *CRMService) Districts(ctx context.Context, userID, city string) ([]string, error) {
	city = strings.TrimSpace(city)
	if isAll(city) {
		city = ""
	}
	districts, err := s.businesses.BusinessDistricts(ctx, userID, city)
	if err != nil {
		return nil, fmt.Errorf("service/crm: listing districts: %w", err)
	}
	return districts, nil
}

func (s *CRMService) ListActivities(ctx context.Context, userID, businessID string) ([]model.Activity, error) {
	list, err := s.activities.ListActivities(ctx, userID, businessID)
	if err != nil {
		return nil, fmt.Errorf("service/crm: listing activities of %s: %w", businessID, err)
	}
	return list, nil
}

func (s *CRMService) CreateActivity(ctx context.Context, userID, businessID, activityType, outcome string) (*model.Activity, error) {
	at, ok := model.ParseActivityType(activityType)
	if !ok {
		return nil, apperror.ValidationFailed("type", fmt.Sprintf("unknown activity type %q", activityType))
	}
	outcome = strings.TrimSpace(outcome)
	if len(outcome) > MaxOutcomeLength {
		return nil, apperror.ValidationFailed("outcome",
			fmt.Sprintf("outcome must be at most %d characters", MaxOutcomeLength))
	}

	a := &model.Activity{
		BusinessID: businessID,
		Type:       at,
		Outcome:    outcome,
	}
	if err := s.activities.CreateActivity(ctx, userID, a); err != nil {
		return nil, fmt.Errorf("service/crm: creating activity for %s: %w", businessID, err)
	}
	return a, nil
}

func (s *CRMService) DeleteActivity(ctx context.Context, userID, businessID, activityID string) error {
	if err := s.activities.DeleteActivity(ctx, userID, businessID, activityID); err != nil {
		return fmt.Errorf("service/crm: deleting activity %s: %w", activityID, err)
	}
	return nil
}

func normalizeFilter(f ListFilter) (repository.BusinessFilter, error) {
	var out repository.BusinessFilter

	if city := strings.TrimSpace(f.City); !isAll(city) {
		out.City = city
	}
	if district := strings.TrimSpace(f.District); !isAll(district) {
		out.District = district
	}

	if stage := strings.TrimSpace(f.Stage); !isAll(stage) {
		st, ok := model.ParseStage(stage)
		if !ok {
			return out, apperror.ValidationFailed("stage", fmt.Sprintf("unknown stage %q", stage))
		}
		out.Stage = st
	}

	switch phone := strings.ToLower(strings.TrimSpace(f.Phone)); phone {
	case "", "all", string(repository.PhoneAny):
		out.Phone = ""
	case string(repository.PhoneHas):
		out.Phone = repository.PhoneHas
	case string(repository.PhoneNone):
		out.Phone = repository.PhoneNone
	default:
		return out, apperror.ValidationFailed("phone", "phone must be one of has, none, any")
	}
	return out, nil
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}
