package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	propertieserrors "stayhub/internal/properties/errors"
	"stayhub/internal/properties/validator"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

const (
	testHostID     = "507f1f77bcf86cd799439021"
	otherHostID    = "507f1f77bcf86cd799439022"
	testPropertyID = "507f1f77bcf86cd799439011"
)

type mockPropertyRepository struct {
	createFunc   func(ctx context.Context, property *model.Property) error
	findByIDFunc func(ctx context.Context, id string) (*model.Property, error)
	searchFunc   func(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error)
	deleteFunc   func(ctx context.Context, id string) error
}

func (m *mockPropertyRepository) Create(ctx context.Context, property *model.Property) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, property)
	}
	property.ID = testPropertyID
	return nil
}

func (m *mockPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, propertieserrors.ErrNotFound
}

func (m *mockPropertyRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Property, error) {
	return []*model.Property{}, nil
}

func (m *mockPropertyRepository) FindByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Property, error) {
	return []*model.Property{}, nil
}

func (m *mockPropertyRepository) Search(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filter, limit, offset)
	}
	return []*model.Property{}, nil
}

func (m *mockPropertyRepository) Update(ctx context.Context, id string, update *model.PropertyUpdate) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockPropertyRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockPropertyRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func newTestService(repo *mockPropertyRepository) PropertyService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.FormatText}),
	}
	return NewPropertyService(repo, validator.NewPropertyValidator(cfg.Log), cfg)
}

func validProperty() *model.Property {
	return &model.Property{
		Title:        "  Seaside   Loft ",
		Location:     "Tel Aviv",
		PropertyType: "Apartment",
		MaxGuests:    4,
		Price:        120,
		Amenities:    []string{" WiFi ", "wifi", "Pool"},
	}
}

func TestCreateProperty(t *testing.T) {
	svc := newTestService(&mockPropertyRepository{})

	created, err := svc.Create(context.Background(), testHostID, validProperty())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.Title != "Seaside Loft" {
		t.Errorf("title not normalized: %q", created.Title)
	}
	if created.Location != "tel aviv" {
		t.Errorf("location not normalized: %q", created.Location)
	}
	if len(created.Amenities) != 2 {
		t.Errorf("amenities not deduplicated: %v", created.Amenities)
	}
	if created.HostID != testHostID {
		t.Errorf("host ID = %q, want %q", created.HostID, testHostID)
	}
}

func TestCreatePropertyValidation(t *testing.T) {
	touched := false
	repo := &mockPropertyRepository{
		createFunc: func(ctx context.Context, property *model.Property) error {
			touched = true
			return nil
		},
	}
	svc := newTestService(repo)

	property := validProperty()
	property.Price = 0

	_, err := svc.Create(context.Background(), testHostID, property)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeValidation)
	}
	if touched {
		t.Error("storage accessed despite validation failure")
	}
}

func TestUpdateForeignPropertyForbidden(t *testing.T) {
	repo := &mockPropertyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return &model.Property{ID: id, HostID: otherHostID}, nil
		},
	}
	svc := newTestService(repo)

	newTitle := "Renamed"
	_, err := svc.Update(context.Background(), testPropertyID, testHostID, &model.PropertyUpdate{Title: newTitle})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeForbidden {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeForbidden)
	}
}

func TestDeleteForeignPropertyForbidden(t *testing.T) {
	deleted := false
	repo := &mockPropertyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return &model.Property{ID: id, HostID: otherHostID}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), testPropertyID, testHostID)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if deleted {
		t.Error("property deleted despite ownership failure")
	}
}

func TestSearchFilterValidation(t *testing.T) {
	svc := newTestService(&mockPropertyRepository{})
	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)

	t.Run("date range accepted together", func(t *testing.T) {
		filter := &model.PropertyFilter{CheckIn: &checkIn, CheckOut: &checkOut}
		if _, err := svc.Search(context.Background(), filter, 10, 0); err != nil {
			t.Errorf("valid filter rejected: %v", err)
		}
	})

	t.Run("lone check_in rejected", func(t *testing.T) {
		filter := &model.PropertyFilter{CheckIn: &checkIn}
		if _, err := svc.Search(context.Background(), filter, 10, 0); err == nil {
			t.Error("half-specified date range accepted")
		}
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		filter := &model.PropertyFilter{CheckIn: &checkOut, CheckOut: &checkIn}
		if _, err := svc.Search(context.Background(), filter, 10, 0); err == nil {
			t.Error("inverted date range accepted")
		}
	})
}
