package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

var _ repository.BusinessRepository = (*Store)(nil)

const businessColumns = `id, user_id, name, city, district, country, address, phone, website, stage,
	rating, rating_count, price_level, status, intl_phone, url, primary_type, types,
	category, created_at`

// upsertBusiness matches on (user_id, name, address). Text columns and the
// category are overwritten; numeric columns keep their stored value when the
// incoming one is NULL. stage and created_at are never touched on update.
const upsertBusiness = `INSERT INTO businesses (` + businessColumns + `)
	VALUES (:id, :user_id, :name, :city, :district, :country, :address, :phone, :website, :stage,
		:rating, :rating_count, :price_level, :status, :intl_phone, :url, :primary_type, :types,
		:category, :created_at)
	ON CONFLICT (user_id, name, address) DO UPDATE SET
		city         = excluded.city,
		district     = excluded.district,
		country      = excluded.country,
		phone        = excluded.phone,
		website      = excluded.website,
		rating       = COALESCE(excluded.rating, businesses.rating),
		rating_count = COALESCE(excluded.rating_count, businesses.rating_count),
		price_level  = COALESCE(excluded.price_level, businesses.price_level),
		status       = excluded.status,
		intl_phone   = excluded.intl_phone,
		url          = excluded.url,
		primary_type = excluded.primary_type,
		types        = excluded.types,
		category     = excluded.category`

func (s *Store) UpsertBusinesses(ctx context.Context, userID, category string, records []model.BusinessRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, upsertBusiness)
		if err != nil {
			return fmt.Errorf("sqlstore: preparing business upsert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			b := businessFromRecord(userID, category, rec)
			b.ID = xid.New().String()
			b.CreatedAt = s.now()

			if _, err := stmt.ExecContext(ctx, b); err != nil {
				return fmt.Errorf("sqlstore: upserting business %q: %w", rec.Name, err)
			}
		}
		return nil
	})
}

func businessFromRecord(userID, category string, rec model.BusinessRecord) *model.Business {
	return &model.Business{
		UserID:      userID,
		Name:        rec.Name,
		City:        rec.City,
		District:    rec.District,
		Country:     rec.Country,
		Address:     rec.Address,
		Phone:       rec.Phone,
		Website:     rec.Website,
		Stage:       model.StageNew,
		Rating:      rec.Rating,
		RatingCount: rec.RatingCount,
		PriceLevel:  rec.PriceLevel,
		Status:      rec.Status,
		IntlPhone:   rec.IntlPhone,
		URL:         rec.URL,
		PrimaryType: rec.PrimaryType,
		Types:       rec.Types,
		Category:    category,
	}
}

func (s *Store) ListBusinesses(ctx context.Context, userID string, f repository.BusinessFilter) ([]model.Business, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.City != "" {
		where = append(where, "city = ?")
		args = append(args, f.City)
	}
	if f.District != "" {
		where = append(where, "district = ?")
		args = append(args, f.District)
	}
	if f.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, f.Stage)
	}
	switch f.Phone {
	case repository.PhoneHas:
		where = append(where, "phone <> ''")
	case repository.PhoneNone:
		where = append(where, "phone = ''")
	}

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`

	businesses := []model.Business{}
	if err := s.db.SelectContext(ctx, &businesses, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing businesses of %s: %w", userID, err)
	}
	return businesses, nil
}

func (s *Store) GetBusiness(ctx context.Context, userID, id string) (*model.Business, error) {
	var b model.Business
	err := s.db.GetContext(ctx, &b, s.q(`SELECT `+businessColumns+` FROM businesses WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("business", id)
		}
		return nil, fmt.Errorf("sqlstore: getting business %s: %w", id, err)
	}
	return &b, nil
}

func (s *Store) UpdateStage(ctx context.Context, userID, id string, stage model.Stage) (*model.Business, error) {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE businesses SET stage = ? WHERE id = ? AND user_id = ?`), stage, id, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating stage of %s: %w", id, err)
	}
	if err := expectOne(res, "business", id); err != nil {
		return nil, err
	}
	return s.GetBusiness(ctx, userID, id)
}

// DeleteBusiness removes activities explicitly before the business so the
// cascade holds even on SQLite connections opened without foreign keys.
func (s *Store) DeleteBusiness(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(
			`DELETE FROM activities WHERE business_id IN (SELECT id FROM businesses WHERE id = ? AND user_id = ?)`),
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting activities of %s: %w", id, err)
		}

		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM businesses WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting business %s: %w", id, err)
		}
		return expectOne(res, "business", id)
	})
}

func (s *Store) BusinessCities(ctx context.Context, userID string) ([]string, error) {
	cities := []string{}
	err := s.db.SelectContext(ctx, &cities, s.q(
		`SELECT DISTINCT city FROM businesses WHERE user_id = ? AND city <> '' ORDER BY city`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing cities of %s: %w", userID, err)
	}
	return cities, nil
}

// BusinessDistricts lists districts, limited to one city when city is set.
func (s *Store) BusinessDistricts(ctx context.Context, userID, city string) ([]string, error) {
	query := `SELECT DISTINCT district FROM businesses WHERE user_id = ? AND district <> ''`
	args := []any{userID}
	if city != "" {
		query += ` AND city = ?`
		args = append(args, city)
	}
	query += ` ORDER BY district`

	districts := []string{}
	if err := s.db.SelectContext(ctx, &districts, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing districts of %s: %w", userID, err)
	}
	return districts, nil
}

func (s *Store) CountBusinesses(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM businesses WHERE user_id = ? AND created_at >= ?`),
		userID, startOrEpoch(since))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting businesses of %s: %w", userID, err)
	}
	return n, nil
}
