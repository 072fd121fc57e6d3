package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"stayhub/internal/bookings/service"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

const testSecret = "test-secret"

type mockBookingService struct {
	createFunc            func(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error)
	cancelFunc            func(ctx context.Context, id, reason string) (*model.Booking, error)
	checkAvailabilityFunc func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (bool, error)
}

func (m *mockBookingService) Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, req)
	}
	return &model.Booking{ID: "507f1f77bcf86cd799439031", UserID: userID, Status: model.BookingConfirmed}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) ListByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) ListActiveByProperty(ctx context.Context, propertyID string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (bool, error) {
	if m.checkAvailabilityFunc != nil {
		return m.checkAvailabilityFunc(ctx, propertyID, checkIn, checkOut)
	}
	return true, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id, reason string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, reason)
	}
	return &model.Booking{ID: id, Status: model.BookingCancelled}, nil
}

func (m *mockBookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id, Status: model.BookingConfirmed}, nil
}

func (m *mockBookingService) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Booking, error) {
	return &model.Booking{ID: id, PaymentStatus: status}, nil
}

var _ service.BookingService = (*mockBookingService)(nil)

func newTestRouter(svc service.BookingService) *httprouter.Router {
	cfg := &config.Config{
		JWTSecret: testSecret,
		Log:       logger.New(logger.Config{Level: "error", Format: logger.FormatText}),
	}
	router := httprouter.New()
	NewBookingHandler(svc, cfg).RegisterRoutes(router)
	return router
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return "Bearer " + signed
}

func createBody() string {
	return `{
		"property_id": "507f1f77bcf86cd799439011",
		"check_in": "2026-07-01T00:00:00Z",
		"check_out": "2026-07-05T00:00:00Z",
		"guests": 2,
		"total_price": 300
	}`
}

func TestCreateBooking(t *testing.T) {
	var gotUserID string
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
			gotUserID = userID
			return &model.Booking{ID: "507f1f77bcf86cd799439031", UserID: userID}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(createBody()))
	req.Header.Set("Authorization", bearerToken(t, "507f1f77bcf86cd799439021"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != "507f1f77bcf86cd799439021" {
		t.Errorf("user ID from token = %q", gotUserID)
	}
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(createBody()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.Conflict(service.ConflictMessage)
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(createBody()))
	req.Header.Set("Authorization", bearerToken(t, "507f1f77bcf86cd799439021"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != service.ConflictMessage {
		t.Errorf("message = %q, want %q", resp.Error, service.ConflictMessage)
	}
}

func TestCreateBookingValidationStatus(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.Validation("Booking validation failed", map[string]any{"TotalPrice": "TotalPrice is required"})
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"property_id":"507f1f77bcf86cd799439011"}`))
	req.Header.Set("Authorization", bearerToken(t, "507f1f77bcf86cd799439021"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestCreateBookingMalformedBody(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	req.Header.Set("Authorization", bearerToken(t, "507f1f77bcf86cd799439021"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheckAvailabilityIsPublic(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/bookings/check-availability?property_id=507f1f77bcf86cd799439011&check_in=2026-07-01&check_out=2026-07-05", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"available":true`) {
		t.Errorf("body missing availability flag: %s", rec.Body.String())
	}
}

func TestCheckAvailabilityAcceptsPostBody(t *testing.T) {
	var gotPropertyID string
	svc := &mockBookingService{
		checkAvailabilityFunc: func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (bool, error) {
			gotPropertyID = propertyID
			return false, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/check-availability",
		strings.NewReader(`{"property_id":"507f1f77bcf86cd799439011","check_in":"2026-07-01","check_out":"2026-07-05"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if gotPropertyID != "507f1f77bcf86cd799439011" {
		t.Errorf("property_id = %q", gotPropertyID)
	}
	if !strings.Contains(rec.Body.String(), `"available":false`) {
		t.Errorf("body missing availability flag: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"nights":4`) {
		t.Errorf("body missing night count: %s", rec.Body.String())
	}
}

func TestCheckAvailabilityBadDates(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/bookings/check-availability?property_id=x&check_in=not-a-date&check_out=2026-07-05", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCancelBooking(t *testing.T) {
	var gotReason string
	svc := &mockBookingService{
		cancelFunc: func(ctx context.Context, id, reason string) (*model.Booking, error) {
			gotReason = reason
			return &model.Booking{ID: id, Status: model.BookingCancelled}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/bookings/id/507f1f77bcf86cd799439031/cancel",
		strings.NewReader(`{"reason":"plans changed"}`))
	req.Header.Set("Authorization", bearerToken(t, "507f1f77bcf86cd799439021"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if gotReason != "plans changed" {
		t.Errorf("reason = %q", gotReason)
	}
}

func TestPaymentWebhookWithoutSecretConfigured(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		strings.NewReader(`{"booking_id":"507f1f77bcf86cd799439031","status":"paid"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"payment_status":"paid"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
