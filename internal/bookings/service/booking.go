package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/internal/bookings/events"
	"stayhub/internal/bookings/repository"
	"stayhub/internal/bookings/validator"
	"stayhub/pkg/client"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/model"
	"stayhub/pkg/sanitizer"
)

// ConflictMessage is the caller-facing message for a date conflict.
const ConflictMessage = "Property already booked for selected dates."

type BookingService interface {
	Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListActiveByProperty(ctx context.Context, propertyID string) ([]*model.Booking, error)
	CheckAvailability(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (bool, error)
	Cancel(ctx context.Context, id, reason string) (*model.Booking, error)
	Confirm(ctx context.Context, id string) (*model.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Booking, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	lockRepo   repository.ReservationLockRepository
	validator  *validator.BookingValidator
	properties *client.PropertyClient
	publisher  events.Publisher
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.ReservationLockRepository,
	bookingValidator *validator.BookingValidator,
	properties *client.PropertyClient,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		lockRepo:   lockRepo,
		validator:  bookingValidator,
		properties: properties,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Create reserves [check_in, check_out) on the property. Validation runs
// before any storage access, then the overlap check and insert execute inside
// a transaction under a per-property advisory lock, so two concurrent
// requests for the same property serialize and the loser sees the winner's
// booking.
func (s *bookingService) Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("Missing user identity")
	}

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, validationError(err)
	}

	if err := s.verifyPropertyExists(ctx, req.PropertyID); err != nil {
		return nil, err
	}

	booking := s.buildBooking(userID, req)

	lockID, err := s.acquirePropertyLock(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The request context may already be cancelled by the time the
		// reservation commits; the release must still reach storage or the
		// property stays locked until the TTL reaper catches up.
		if releaseErr := s.lockRepo.Delete(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsAppError(err) || apperrors.AsAppError(err).Code == apperrors.CodeInternal {
			s.cfg.Log.Error("Failed to create booking", "property_id", booking.PropertyID, "error", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"property_id", booking.PropertyID,
		"user_id", booking.UserID,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
	)
	s.publisher.BookingCreated(ctx, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if propertyID == "" {
		return nil, 0, apperrors.InvalidInput("Property ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByProperty(ctx, propertyID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings by property", "property_id", propertyID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByProperty(ctx, propertyID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings by property", "property_id", propertyID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// ListActiveByProperty returns the bookings currently holding dates on the
// property, sorted by check-in.
func (s *bookingService) ListActiveByProperty(ctx context.Context, propertyID string) ([]*model.Booking, error) {
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	bookings, err := s.repo.FindActiveByProperty(ctx, propertyID)
	if err != nil {
		s.cfg.Log.Error("Failed to list active bookings", "property_id", propertyID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// CheckAvailability reports whether the range is free of active bookings. A
// positive answer is advisory only; Create re-checks inside its transaction.
func (s *bookingService) CheckAvailability(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (bool, error) {
	if propertyID == "" {
		return false, apperrors.InvalidInput("Property ID cannot be empty")
	}
	if err := s.validator.ValidateDateRange(checkIn, checkOut); err != nil {
		return false, validationError(err)
	}

	overlapping, err := s.repo.FindOverlapping(ctx, propertyID, checkIn, checkOut)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "property_id", propertyID, "error", err)
		return false, apperrors.Internal("Failed to check availability", err)
	}

	return len(overlapping) == 0, nil
}

// Cancel releases the booking's dates. Cancelling an already cancelled
// booking is an idempotent no-op.
func (s *bookingService) Cancel(ctx context.Context, id, reason string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	reason = sanitizer.NormalizeReason(reason)

	result, err := s.repo.Cancel(ctx, id, reason, time.Now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	booking, findErr := s.repo.FindByID(ctx, id)
	if findErr != nil {
		return nil, mapLookupError(findErr, id)
	}

	if result.MatchedCount == 0 {
		// Conditional update matched nothing but the booking exists, so it
		// was already cancelled.
		s.cfg.Log.Debug("Cancel was a no-op", "id", id, "status", booking.Status)
		return booking, nil
	}

	s.cfg.Log.Info("Booking cancelled", "id", id, "property_id", booking.PropertyID, "reason", reason)
	s.publisher.BookingCancelled(ctx, booking)
	return booking, nil
}

// Confirm moves a pending booking to confirmed. Bookings default to
// confirmed at creation, so this path only applies to bookings created
// pending through the events pipeline.
func (s *bookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	if booking.Status == model.BookingConfirmed {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(model.BookingConfirmed) {
		return nil, apperrors.Conflict("Booking cannot be confirmed from status " + string(booking.Status))
	}

	result, err := s.repo.UpdateStatus(ctx, id, booking.Status, model.BookingConfirmed)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	if result.MatchedCount == 0 {
		// The status moved between our read and the conditional write.
		// Re-read to tell an idempotent replay from a real conflict.
		fresh, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			return nil, mapLookupError(findErr, id)
		}
		if fresh.Status == model.BookingConfirmed {
			return fresh, nil
		}
		return nil, apperrors.Conflict("Booking cannot be confirmed from status " + string(fresh.Status))
	}
	booking.Status = model.BookingConfirmed

	s.cfg.Log.Info("Booking confirmed", "id", id)
	return booking, nil
}

// UpdatePaymentStatus applies a payment outcome. Paid and failed are
// terminal; a failed payment leaves the booking itself active.
func (s *bookingService) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if status != model.PaymentPaid && status != model.PaymentFailed && status != model.PaymentPending {
		return nil, apperrors.InvalidInput("Invalid payment status: " + string(status))
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	if booking.PaymentStatus == status {
		return booking, nil
	}
	if !booking.PaymentStatus.CanTransitionTo(status) {
		return nil, apperrors.Conflict("Payment status cannot change from " +
			string(booking.PaymentStatus) + " to " + string(status))
	}

	result, err := s.repo.UpdatePaymentStatus(ctx, id, booking.PaymentStatus, status)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	if result.MatchedCount == 0 {
		// A concurrent outcome won the conditional write. The first terminal
		// state sticks; a replay of the same outcome is a no-op.
		fresh, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			return nil, mapLookupError(findErr, id)
		}
		if fresh.PaymentStatus == status {
			return fresh, nil
		}
		return nil, apperrors.Conflict("Payment status cannot change from " +
			string(fresh.PaymentStatus) + " to " + string(status))
	}
	booking.PaymentStatus = status

	s.cfg.Log.Info("Payment status updated", "id", id, "payment_status", status)
	s.publisher.PaymentUpdated(ctx, booking)
	return booking, nil
}

// --- Helpers ---

func (s *bookingService) buildBooking(userID string, req *model.BookingRequest) *model.Booking {
	guests := 1
	if req.Guests != nil {
		guests = *req.Guests
	}

	return &model.Booking{
		UserID:        userID,
		PropertyID:    req.PropertyID,
		CheckIn:       req.CheckIn.UTC(),
		CheckOut:      req.CheckOut.UTC(),
		Guests:        guests,
		TotalPrice:    *req.TotalPrice,
		Status:        model.BookingConfirmed,
		PaymentStatus: model.PaymentPending,
	}
}

func (s *bookingService) verifyPropertyExists(ctx context.Context, propertyID string) error {
	if s.properties == nil {
		return nil
	}

	exists, err := s.properties.Exists(ctx, propertyID)
	if err != nil {
		s.cfg.Log.Error("Property existence check failed", "property_id", propertyID, "error", err)
		return apperrors.Unavailable("Property catalog")
	}
	if !exists {
		return apperrors.NotFoundWithID("Property", propertyID)
	}
	return nil
}

func (s *bookingService) verifyNoOverlap(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindOverlapping(ctx, booking.PropertyID, booking.CheckIn, booking.CheckOut)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == booking.ID {
			continue
		}
		return apperrors.Conflict(ConflictMessage).WithDetails(map[string]any{
			"property_id": booking.PropertyID,
			"check_in":    booking.CheckIn.Format(time.RFC3339),
			"check_out":   booking.CheckOut.Format(time.RFC3339),
		})
	}
	return nil
}

// acquirePropertyLock inserts the property's advisory lock document, retrying
// while another request holds it. Keying by property alone serializes all
// reserves on the property; requests for disjoint ranges queue briefly behind
// each other and then both succeed, rather than one failing spuriously.
func (s *bookingService) acquirePropertyLock(ctx context.Context, propertyID string) (string, error) {
	lockID := "reservation_lock_" + propertyID
	deadline := time.Now().Add(s.cfg.ReserveLockWaitTimeout)

	for {
		lock := &model.ReservationLock{
			ID:        lockID,
			ExpiresAt: time.Now().Add(s.cfg.ReserveLockTTL),
		}

		_, err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Internal("Failed to acquire reservation lock", err)
		}

		if time.Now().After(deadline) {
			return "", apperrors.Conflict("Property is busy processing another reservation. Please try again.")
		}

		select {
		case <-ctx.Done():
			return "", apperrors.Timeout("Reservation lock wait cancelled")
		case <-time.After(s.cfg.ReserveLockRetryInterval):
		}
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking validation failed", verrs.Fields())
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
}

func mapLookupError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to access booking", err)
}
