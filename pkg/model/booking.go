package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking is one reservation of a property for a half-open date range
// [check_in, check_out). Cancelled bookings are kept as soft state and no
// longer count toward date conflicts.
type Booking struct {
	ID                 string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID             string        `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	PropertyID         string        `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	CheckIn            time.Time     `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut           time.Time     `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Guests             int           `json:"guests" bson:"guests" validate:"required,min=1"`
	TotalPrice         float64       `json:"total_price" bson:"total_price" validate:"gte=0"`
	Status             BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	PaymentStatus      PaymentStatus `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending paid failed"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// BookingRequest is the creation payload. Pointer fields distinguish
// "absent" from zero so required-field errors fire before any storage
// access.
type BookingRequest struct {
	PropertyID string     `json:"property_id" validate:"required,mongodb"`
	CheckIn    *time.Time `json:"check_in" validate:"required"`
	CheckOut   *time.Time `json:"check_out" validate:"required"`
	Guests     *int       `json:"guests" validate:"omitempty,min=1"`
	TotalPrice *float64   `json:"total_price" validate:"required,gte=0"`
}

// IsActive reports whether the booking holds its date range against new
// reservations.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// CanTransitionTo encodes the booking status machine:
// pending -> confirmed, pending|confirmed -> cancelled. Cancelled is
// terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	default:
		return false
	}
}

// CanTransitionTo encodes the payment status machine: pending -> paid and
// pending -> failed, both terminal. Payment outcome is independent of the
// booking status axis; a failed payment does not cancel the booking.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentPaid || next == PaymentFailed)
}
