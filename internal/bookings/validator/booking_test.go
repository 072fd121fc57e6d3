package validator

import (
	"strings"
	"testing"
	"time"

	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

func newTestValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{Level: "error", Format: logger.FormatText}))
}

func validRequest() *model.BookingRequest {
	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)
	guests := 2
	price := 480.0

	return &model.BookingRequest{
		PropertyID: "507f1f77bcf86cd799439011",
		CheckIn:    &checkIn,
		CheckOut:   &checkOut,
		Guests:     &guests,
		TotalPrice: &price,
	}
}

func TestValidateRequest(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateRequest(validRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestValidateRequestMissingFields(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(req *model.BookingRequest)
		wantField string
	}{
		{"missing property ID", func(r *model.BookingRequest) { r.PropertyID = "" }, "PropertyID"},
		{"missing check-in", func(r *model.BookingRequest) { r.CheckIn = nil }, "CheckIn"},
		{"missing check-out", func(r *model.BookingRequest) { r.CheckOut = nil }, "CheckOut"},
		{"missing total price", func(r *model.BookingRequest) { r.TotalPrice = nil }, "TotalPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateRequest(req)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention field %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateRequestZeroPriceIsLegal(t *testing.T) {
	v := newTestValidator()

	req := validRequest()
	zero := 0.0
	req.TotalPrice = &zero

	if err := v.ValidateRequest(req); err != nil {
		t.Errorf("zero total price rejected: %v", err)
	}
}

func TestValidateRequestNegativePrice(t *testing.T) {
	v := newTestValidator()

	req := validRequest()
	negative := -10.0
	req.TotalPrice = &negative

	if err := v.ValidateRequest(req); err == nil {
		t.Error("negative total price accepted")
	}
}

func TestValidateRequestDateOrder(t *testing.T) {
	v := newTestValidator()

	t.Run("checkout before checkin", func(t *testing.T) {
		req := validRequest()
		req.CheckIn, req.CheckOut = req.CheckOut, req.CheckIn

		if err := v.ValidateRequest(req); err == nil {
			t.Error("inverted date range accepted")
		}
	})

	t.Run("checkout equals checkin", func(t *testing.T) {
		req := validRequest()
		req.CheckOut = req.CheckIn

		if err := v.ValidateRequest(req); err == nil {
			t.Error("zero-length stay accepted")
		}
	})
}

func TestValidateDateRange(t *testing.T) {
	v := newTestValidator()

	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)

	if err := v.ValidateDateRange(checkIn, checkOut); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if err := v.ValidateDateRange(time.Time{}, checkOut); err == nil {
		t.Error("zero check-in accepted")
	}
	if err := v.ValidateDateRange(checkOut, checkIn); err == nil {
		t.Error("inverted range accepted")
	}
}
