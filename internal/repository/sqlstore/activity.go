package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

var _ repository.ActivityRepository = (*Store)(nil)

// ownsBusiness reports NotFound unless businessID exists and belongs to userID.
func (s *Store) ownsBusiness(ctx context.Context, q sqlx.QueryerContext, userID, businessID string) error {
	var n int
	err := sqlx.GetContext(ctx, q, &n, s.q(`SELECT COUNT(*) FROM businesses WHERE id = ? AND user_id = ?`), businessID, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: checking business %s: %w", businessID, err)
	}
	if n == 0 {
		return apperror.NotFound("business", businessID)
	}
	return nil
}

func (s *Store) ListActivities(ctx context.Context, userID, businessID string) ([]model.Activity, error) {
	if err := s.ownsBusiness(ctx, s.db, userID, businessID); err != nil {
		return nil, err
	}

	activities := []model.Activity{}
	err := s.db.SelectContext(ctx, &activities, s.q(
		`SELECT id, business_id, type, outcome, created_at FROM activities
		 WHERE business_id = ?
		 ORDER BY created_at DESC, id DESC`),
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing activities of %s: %w", businessID, err)
	}
	return activities, nil
}

func (s *Store) CreateActivity(ctx context.Context, userID string, a *model.Activity) error {
	a.ID = xid.New().String()
	a.CreatedAt = s.now()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ownsBusiness(ctx, tx, userID, a.BusinessID); err != nil {
			return err
		}
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO activities (id, business_id, type, outcome, created_at)
			 VALUES (:id, :business_id, :type, :outcome, :created_at)`,
			a,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: inserting activity for %s: %w", a.BusinessID, err)
		}
		return nil
	})
}

func (s *Store) DeleteActivity(ctx context.Context, userID, businessID, activityID string) error {
	res, err := s.db.ExecContext(ctx, s.q(
		`DELETE FROM activities
		 WHERE id = ? AND business_id IN (SELECT id FROM businesses WHERE id = ? AND user_id = ?)`),
		activityID, businessID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting activity %s: %w", activityID, err)
	}
	return expectOne(res, "activity", activityID)
}
