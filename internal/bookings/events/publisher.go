// Package events publishes booking lifecycle events. Events for the same
// property share a partition key so consumers observe them in order.
package events

import (
	"context"
	"time"

	"stayhub/pkg/kafka"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentUpdated   = "booking.payment_updated"

	schemaVersion = "1"
	source        = "bookings-service"
)

// BookingEvent is the payload carried by every booking topic message.
type BookingEvent struct {
	EventType     string              `json:"event_type"`
	BookingID     string              `json:"booking_id"`
	PropertyID    string              `json:"property_id"`
	UserID        string              `json:"user_id"`
	CheckIn       time.Time           `json:"check_in"`
	CheckOut      time.Time           `json:"check_out"`
	Status        model.BookingStatus `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
	PaymentUpdated(ctx context.Context, booking *model.Booking)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCreated, booking)
}

func (p *kafkaPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCancelled, booking)
}

func (p *kafkaPublisher) PaymentUpdated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventPaymentUpdated, booking)
}

// publish is best-effort: the reservation is already committed, so a broker
// outage is logged rather than surfaced to the caller.
func (p *kafkaPublisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	event := BookingEvent{
		EventType:     eventType,
		BookingID:     booking.ID,
		PropertyID:    booking.PropertyID,
		UserID:        booking.UserID,
		CheckIn:       booking.CheckIn,
		CheckOut:      booking.CheckOut,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.PropertyID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	p.log.Debug("Booking event published",
		"event_type", eventType,
		"booking_id", booking.ID,
		"property_id", booking.PropertyID,
	)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) BookingCreated(context.Context, *model.Booking)   {}
func (NoopPublisher) BookingCancelled(context.Context, *model.Booking) {}
func (NoopPublisher) PaymentUpdated(context.Context, *model.Booking)   {}
func (NoopPublisher) Close() error                                     { return nil }
