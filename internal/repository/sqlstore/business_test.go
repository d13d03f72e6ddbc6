package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
	"github.com/sakif/leadbook/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func record(name, city, district, phone string) model.BusinessRecord {
	return model.BusinessRecord{
		Name:     name,
		City:     city,
		District: district,
		Country:  "Türkiye",
		Address:  name + " Cad. No:1, " + city,
		Phone:    phone,
		Rating:   ptr(4.5),
	}
}

func seedBusinesses(t *testing.T, s *Store, userID string, recs ...model.BusinessRecord) []model.Business {
	t.Helper()
	ctx := context.Background()
	if err := s.UpsertBusinesses(ctx, userID, "kafe", recs); err != nil {
		t.Fatalf("UpsertBusinesses() error = %v", err)
	}
	all, err := s.ListBusinesses(ctx, userID, repository.BusinessFilter{})
	if err != nil {
		t.Fatalf("ListBusinesses() error = %v", err)
	}
	return all
}

func TestUpsertBusinesses_InsertsWithStageNew(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "u", 0)

	all := seedBusinesses(t, s, u.ID, record("Kahve Durağı", "Ankara", "Çankaya", "0312 000 00 00"))

	if len(all) != 1 {
		t.Fatalf("got %d businesses, want 1", len(all))
	}
	b := all[0]
	if b.Stage != model.StageNew || b.Category != "kafe" || b.Rating == nil || *b.Rating != 4.5 {
		t.Errorf("business = %+v", b)
	}
	if b.RatingCount != nil || b.PriceLevel != nil {
		t.Errorf("absent numbers should stay NULL: %+v", b)
	}
}

func TestUpsertBusinesses_IdempotentAndKeepsStage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "u", 0)

	rec := record("Kahve Durağı", "Ankara", "Çankaya", "0312 000 00 00")
	rec.RatingCount = ptr(120)
	first := seedBusinesses(t, s, u.ID, rec)

	if _, err := s.UpdateStage(ctx, u.ID, first[0].ID, model.StageProposal); err != nil {
		t.Fatalf("UpdateStage() error = %v", err)
	}

	// Same natural key, new phone, no rating information.
	again := rec
	again.Phone = "0312 111 11 11"
	again.Rating = nil
	again.RatingCount = nil
	if err := s.UpsertBusinesses(ctx, u.ID, "restoran", []model.BusinessRecord{again}); err != nil {
		t.Fatalf("second UpsertBusinesses() error = %v", err)
	}

	all, _ := s.ListBusinesses(ctx, u.ID, repository.BusinessFilter{})
	if len(all) != 1 {
		t.Fatalf("got %d businesses after re-ingest, want 1", len(all))
	}
	b := all[0]
	if b.ID != first[0].ID {
		t.Errorf("ID changed from %s to %s", first[0].ID, b.ID)
	}
	if b.Stage != model.StageProposal {
		t.Errorf("Stage = %q, want Proposal", b.Stage)
	}
	if b.Phone != "0312 111 11 11" || b.Category != "restoran" {
		t.Errorf("fields not overwritten: %+v", b)
	}
	if b.Rating == nil || *b.Rating != 4.5 || b.RatingCount == nil || *b.RatingCount != 120 {
		t.Errorf("NULL incoming numbers must keep stored values: rating=%v count=%v", b.Rating, b.RatingCount)
	}
}

func TestUpsertBusinesses_DifferentAddressIsNewRow(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "u", 0)

	a := record("Simit Sarayı", "İstanbul", "Kadıköy", "")
	b := a
	b.Address = "Başka Sok. No:2"

	if all := seedBusinesses(t, s, u.ID, a, b); len(all) != 2 {
		t.Errorf("got %d businesses, want 2", len(all))
	}
}

func TestListBusinesses_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixedClock(s, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	u := createTestUser(t, s, "u", 0)

	all := seedBusinesses(t, s, u.ID,
		record("A", "Ankara", "Çankaya", "1"),
		record("B", "Ankara", "Keçiören", ""),
		record("C", "İzmir", "Konak", "3"),
	)
	// Newest first: C was inserted last.
	if all[0].Name != "C" || all[2].Name != "A" {
		t.Fatalf("order = %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}
	byName := map[string]string{}
	for _, b := range all {
		byName[b.Name] = b.ID
	}
	s.UpdateStage(ctx, u.ID, byName["B"], model.StageContacted)

	cases := []struct {
		name   string
		filter repository.BusinessFilter
		want   []string
	}{
		{"no filter", repository.BusinessFilter{}, []string{"C", "B", "A"}},
		{"city", repository.BusinessFilter{City: "Ankara"}, []string{"B", "A"}},
		{"city and district", repository.BusinessFilter{City: "Ankara", District: "Çankaya"}, []string{"A"}},
		{"stage", repository.BusinessFilter{Stage: model.StageContacted}, []string{"B"}},
		{"stage new", repository.BusinessFilter{Stage: model.StageNew}, []string{"C", "A"}},
		{"has phone", repository.BusinessFilter{Phone: repository.PhoneHas}, []string{"C", "A"}},
		{"no phone", repository.BusinessFilter{Phone: repository.PhoneNone}, []string{"B"}},
		{"any phone", repository.BusinessFilter{Phone: repository.PhoneAny}, []string{"C", "B", "A"}},
		{"no match", repository.BusinessFilter{City: "Van"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListBusinesses(ctx, u.ID, tc.filter)
			if err != nil {
				t.Fatalf("ListBusinesses() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d businesses, want %d", len(got), len(tc.want))
			}
			for i, name := range tc.want {
				if got[i].Name != name {
					t.Errorf("got[%d] = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestBusinesses_ScopedByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner", 0)
	other := createTestUser(t, s, "other", 0)

	b := seedBusinesses(t, s, owner.ID, record("A", "Ankara", "Çankaya", "1"))[0]

	if list, _ := s.ListBusinesses(ctx, other.ID, repository.BusinessFilter{}); len(list) != 0 {
		t.Errorf("other user sees %d businesses", len(list))
	}
	if _, err := s.GetBusiness(ctx, other.ID, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetBusiness(other) error = %v", err)
	}
	if _, err := s.UpdateStage(ctx, other.ID, b.ID, model.StageClosed); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateStage(other) error = %v", err)
	}
	if err := s.DeleteBusiness(ctx, other.ID, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteBusiness(other) error = %v", err)
	}
	if _, err := s.GetBusiness(ctx, owner.ID, b.ID); err != nil {
		t.Errorf("owner lost the business: %v", err)
	}
}

func TestDeleteBusiness_CascadesActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "u", 0)
	b := seedBusinesses(t, s, u.ID, record("A", "Ankara", "Çankaya", "1"))[0]

	for _, typ := range []model.ActivityType{model.ActivityCall, model.ActivityVisit} {
		if err := s.CreateActivity(ctx, u.ID, &model.Activity{BusinessID: b.ID, Type: typ, Outcome: "ok"}); err != nil {
			t.Fatalf("CreateActivity() error = %v", err)
		}
	}

	if err := s.DeleteBusiness(ctx, u.ID, b.ID); err != nil {
		t.Fatalf("DeleteBusiness() error = %v", err)
	}

	var left int
	if err := s.db.Get(&left, `SELECT COUNT(*) FROM activities WHERE business_id = ?`, b.ID); err != nil {
		t.Fatalf("counting activities: %v", err)
	}
	if left != 0 {
		t.Errorf("%d activities survived the delete", left)
	}
	if _, err := s.ListActivities(ctx, u.ID, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListActivities() after delete error = %v", err)
	}
}

func TestCitiesAndDistricts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "u", 0)

	seedBusinesses(t, s, u.ID,
		record("A", "Ankara", "Çankaya", ""),
		record("B", "Ankara", "Keçiören", ""),
		record("C", "İzmir", "", ""),
		record("D", "Ankara", "Çankaya", ""),
	)

	cities, _ := s.BusinessCities(ctx, u.ID)
	if len(cities) != 2 {
		t.Errorf("BusinessCities() = %v", cities)
	}

	all, _ := s.BusinessDistricts(ctx, u.ID, "")
	ankara, _ := s.BusinessDistricts(ctx, u.ID, "Ankara")
	izmir, _ := s.BusinessDistricts(ctx, u.ID, "İzmir")
	if len(all) != 2 || len(ankara) != 2 || len(izmir) != 0 {
		t.Errorf("districts: all=%v ankara=%v izmir=%v", all, ankara, izmir)
	}
}

func TestCountBusinesses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 10, 23, 59, 58, 0, time.UTC)
	fixedClock(s, start)
	u := createTestUser(t, s, "u", 0)

	// Inserted at 23:59:59, 00:00:00 and 00:00:01.
	seedBusinesses(t, s, u.ID, record("A", "Ankara", "", ""), record("B", "Ankara", "", ""), record("C", "Ankara", "", ""))

	midnight := time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)
	total, _ := s.CountBusinesses(ctx, u.ID, time.Time{})
	today, _ := s.CountBusinesses(ctx, u.ID, midnight)
	if total != 3 || today != 2 {
		t.Errorf("total = %d, today = %d; want 3 and 2", total, today)
	}
}
