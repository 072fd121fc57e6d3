// Package consumer processes payment outcome events from the payment
// collaborator and applies them to bookings.
package consumer

import (
	"context"
	"errors"

	"stayhub/internal/bookings/service"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/kafka"
	kafka_config "stayhub/pkg/kafka/config"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

// PaymentEvent is the payload published by the payment collaborator.
type PaymentEvent struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"` // "paid" or "failed"
}

type PaymentConsumer struct {
	consumer *kafka.Consumer
	log      *logger.Logger
}

func NewPaymentConsumer(
	kafkaCfg *kafka_config.Config,
	topic, groupID, dlqTopic string,
	svc service.BookingService,
	log *logger.Logger,
) (*PaymentConsumer, error) {
	handler := newPaymentHandler(svc, log)

	consumer, err := kafka.NewConsumer(kafkaCfg, topic, groupID, dlqTopic, handler)
	if err != nil {
		return nil, err
	}

	return &PaymentConsumer{consumer: consumer, log: log}, nil
}

func newPaymentHandler(svc service.BookingService, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event PaymentEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode payment event", err)
		}
		if event.BookingID == "" {
			return kafka.NewPermanentError("payment event missing booking_id", nil)
		}

		_, err := svc.UpdatePaymentStatus(ctx, event.BookingID, model.PaymentStatus(event.Status))
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				switch appErr.Code {
				case apperrors.CodeNotFound, apperrors.CodeInvalidInput, apperrors.CodeConflict:
					// Unknown booking or terminal payment state will not heal
					// on retry; park the message.
					return kafka.NewPermanentError("payment event rejected", err)
				}
			}
			return kafka.NewTransientError("failed to apply payment event", err)
		}

		log.Info("Payment event applied",
			"booking_id", event.BookingID,
			"status", event.Status,
			"event_id", msg.GetEventID(),
		)
		return nil
	}
}

// Start consumes until the context is cancelled.
func (c *PaymentConsumer) Start(ctx context.Context) {
	if err := c.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Error("Payment consumer stopped", "error", err)
	}
}

func (c *PaymentConsumer) Close() error {
	return c.consumer.Close()
}
