package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/internal/bookings/events"
	"stayhub/internal/bookings/interval"
	"stayhub/internal/bookings/validator"
	"stayhub/pkg/config"
	mongotx "stayhub/pkg/db/mongo"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

const (
	testUserID     = "507f1f77bcf86cd799439021"
	testPropertyID = "507f1f77bcf86cd799439011"
	testBookingID  = "507f1f77bcf86cd799439031"
)

func day(d int) time.Time {
	return time.Date(2026, time.July, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:  "error",
			Format: logger.FormatText,
		}),
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             5 * time.Second,
		ReserveLockTTL:           10 * time.Second,
		ReserveLockRetryInterval: 5 * time.Millisecond,
		ReserveLockWaitTimeout:   2 * time.Second,
	}
}

func request(checkIn, checkOut time.Time) *model.BookingRequest {
	guests := 2
	price := 300.0
	return &model.BookingRequest{
		PropertyID: testPropertyID,
		CheckIn:    &checkIn,
		CheckOut:   &checkOut,
		Guests:     &guests,
		TotalPrice: &price,
	}
}

// ────────────────────────────────────────────────
// Func-field mock repository
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findOverlappingFunc func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error)
	cancelFunc          func(ctx context.Context, id, reason string, at time.Time) (*mongo.UpdateResult, error)
	updateStatusFunc    func(ctx context.Context, id string, from, to model.BookingStatus) (*mongo.UpdateResult, error)
	updatePaymentFunc   func(ctx context.Context, id string, from, to model.PaymentStatus) (*mongo.UpdateResult, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = testBookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindActiveByProperty(ctx context.Context, propertyID string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, propertyID, checkIn, checkOut)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, id, reason string, at time.Time) (*mongo.UpdateResult, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, reason, at)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (*mongo.UpdateResult, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) UpdatePaymentStatus(ctx context.Context, id string, from, to model.PaymentStatus) (*mongo.UpdateResult, error) {
	if m.updatePaymentFunc != nil {
		return m.updatePaymentFunc(ctx, id, from, to)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) CountByProperty(ctx context.Context, propertyID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLockRepository struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{locks: make(map[string]struct{})}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[lock.ID]; held {
		return nil, duplicateKeyError()
	}
	m.locks[lock.ID] = struct{}{}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockID)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	created   []*model.Booking
	cancelled []*model.Booking
	payments  []*model.Booking
}

func (p *recordingPublisher) BookingCreated(_ context.Context, b *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, b)
}

func (p *recordingPublisher) BookingCancelled(_ context.Context, b *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, b)
}

func (p *recordingPublisher) PaymentUpdated(_ context.Context, b *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, b)
}

func (p *recordingPublisher) Close() error { return nil }

func newService(repo *mockBookingRepository, locks *mockLockRepository, pub events.Publisher) BookingService {
	cfg := testConfig()
	if locks == nil {
		locks = newMockLockRepository()
	}
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return NewBookingService(repo, locks, validator.NewBookingValidator(cfg.Log), nil, pub, cfg)
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreateSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(&mockBookingRepository{}, nil, pub)

	booking, err := svc.Create(context.Background(), testUserID, request(day(1), day(5)))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if booking.ID != testBookingID {
		t.Errorf("booking ID not set, got %q", booking.ID)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("new booking status = %s, want confirmed", booking.Status)
	}
	if booking.PaymentStatus != model.PaymentPending {
		t.Errorf("new booking payment status = %s, want pending", booking.PaymentStatus)
	}
	if len(pub.created) != 1 {
		t.Errorf("expected 1 created event, got %d", len(pub.created))
	}
}

func TestCreateDefaultsGuests(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil, nil)

	req := request(day(1), day(5))
	req.Guests = nil

	booking, err := svc.Create(context.Background(), testUserID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if booking.Guests != 1 {
		t.Errorf("guests = %d, want default 1", booking.Guests)
	}
}

func TestCreateValidationRunsBeforeStorage(t *testing.T) {
	storageTouched := false
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
			storageTouched = true
			return nil, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			storageTouched = true
			return nil
		},
	}
	svc := newService(repo, nil, nil)

	req := request(day(1), day(5))
	req.TotalPrice = nil

	_, err := svc.Create(context.Background(), testUserID, req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeValidation)
	}
	if appErr.HTTPStatus != 422 {
		t.Errorf("HTTP status = %d, want 422", appErr.HTTPStatus)
	}
	if storageTouched {
		t.Error("storage was accessed before validation failed")
	}
}

func TestCreateInvertedDatesRejected(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil, nil)

	_, err := svc.Create(context.Background(), testUserID, request(day(5), day(1)))
	if err == nil {
		t.Fatal("expected validation error for inverted dates")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeValidation)
	}
}

func TestCreateConflict(t *testing.T) {
	existing := &model.Booking{
		ID:         "507f1f77bcf86cd799439099",
		PropertyID: testPropertyID,
		CheckIn:    day(3),
		CheckOut:   day(8),
		Status:     model.BookingConfirmed,
	}
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
			return []*model.Booking{existing}, nil
		},
	}
	svc := newService(repo, nil, nil)

	_, err := svc.Create(context.Background(), testUserID, request(day(1), day(5)))
	if err == nil {
		t.Fatal("expected conflict error")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeConflict)
	}
	if appErr.HTTPStatus != 409 {
		t.Errorf("HTTP status = %d, want 409", appErr.HTTPStatus)
	}
	if appErr.Message != ConflictMessage {
		t.Errorf("message = %q, want %q", appErr.Message, ConflictMessage)
	}
}

func TestCreateReleasesLockOnConflict(t *testing.T) {
	locks := newMockLockRepository()
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
			return []*model.Booking{{ID: "x", CheckIn: day(1), CheckOut: day(5), Status: model.BookingConfirmed}}, nil
		},
	}
	svc := newService(repo, locks, nil)

	if _, err := svc.Create(context.Background(), testUserID, request(day(1), day(5))); err == nil {
		t.Fatal("expected conflict error")
	}

	locks.mu.Lock()
	held := len(locks.locks)
	locks.mu.Unlock()
	if held != 0 {
		t.Errorf("%d lock(s) still held after failed create", held)
	}
}

func TestCreateReleasesLockWhenRequestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	locks := newMockLockRepository()
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = testBookingID
			// The caller goes away while the reservation commits.
			cancel()
			return nil
		},
	}
	svc := newService(repo, locks, nil)

	if _, err := svc.Create(ctx, testUserID, request(day(1), day(5))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	locks.mu.Lock()
	held := len(locks.locks)
	locks.mu.Unlock()
	if held != 0 {
		t.Errorf("%d lock(s) still held after the request context was cancelled", held)
	}
}

func TestCreateMissingUser(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil, nil)

	_, err := svc.Create(context.Background(), "", request(day(1), day(5)))
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeUnauthorized {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeUnauthorized)
	}
}

// ────────────────────────────────────────────────
// In-memory store for overlap and concurrency behavior
// ────────────────────────────────────────────────

type memoryBookingRepository struct {
	mockBookingRepository
	mu       sync.Mutex
	bookings map[string]*model.Booking
	seq      int
}

func newMemoryBookingRepository() *memoryBookingRepository {
	return &memoryBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (m *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	booking.ID = strings.Repeat("0", 23) + string(rune('a'+m.seq))
	clone := *booking
	m.bookings[booking.ID] = &clone
	return nil
}

func (m *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *memoryBookingRepository) FindOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Booking
	for _, b := range m.bookings {
		if b.PropertyID != propertyID || !b.IsActive() {
			continue
		}
		if interval.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			clone := *b
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *memoryBookingRepository) Cancel(ctx context.Context, id, reason string, at time.Time) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	if !b.IsActive() {
		return &mongo.UpdateResult{MatchedCount: 0}, nil
	}
	b.Status = model.BookingCancelled
	b.CancelledAt = &at
	b.CancellationReason = reason
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *memoryBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return &mongo.UpdateResult{}, nil
	}
	b.Status = to
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *memoryBookingRepository) UpdatePaymentStatus(ctx context.Context, id string, from, to model.PaymentStatus) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.PaymentStatus != from {
		return &mongo.UpdateResult{}, nil
	}
	b.PaymentStatus = to
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func TestCreateAdjacentRangesBothSucceed(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	if _, err := svc.Create(context.Background(), testUserID, request(day(1), day(5))); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Back-to-back: check-in equals the prior check-out.
	if _, err := svc.Create(context.Background(), testUserID, request(day(5), day(9))); err != nil {
		t.Fatalf("back-to-back booking rejected: %v", err)
	}
}

func TestCancelFreesDates(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	first, err := svc.Create(context.Background(), testUserID, request(day(1), day(5)))
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	if _, err := svc.Create(context.Background(), testUserID, request(day(3), day(7))); err == nil {
		t.Fatal("overlapping booking accepted while dates held")
	}

	if _, err := svc.Cancel(context.Background(), first.ID, "plans changed"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Create(context.Background(), testUserID, request(day(3), day(7))); err != nil {
		t.Errorf("dates still blocked after cancellation: %v", err)
	}
}

func TestCancelIdempotent(t *testing.T) {
	repo := newMemoryBookingRepository()
	pub := &recordingPublisher{}
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, pub, testConfig())

	booking, err := svc.Create(context.Background(), testUserID, request(day(1), day(5)))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), booking.ID, "first"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	again, err := svc.Cancel(context.Background(), booking.ID, "second")
	if err != nil {
		t.Fatalf("second cancel errored, want no-op: %v", err)
	}
	if again.Status != model.BookingCancelled {
		t.Errorf("status = %s, want cancelled", again.Status)
	}
	if again.CancellationReason != "first" {
		t.Errorf("reason overwritten by no-op cancel: %q", again.CancellationReason)
	}
	if len(pub.cancelled) != 1 {
		t.Errorf("expected 1 cancelled event, got %d", len(pub.cancelled))
	}
}

func TestCancelNotFound(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	_, err := svc.Cancel(context.Background(), testBookingID, "")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeNotFound)
	}
}

func TestConcurrentCreateExactlyOneWins(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), testUserID, request(day(10), day(15)))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
			t.Errorf("loser got %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeConflict)
		}
	}
	if winners != 1 {
		t.Fatalf("%d requests succeeded for the same dates, want exactly 1", winners)
	}
}

func TestConcurrentCreateDisjointRangesAllSucceed(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	var wg sync.WaitGroup
	errs := make([]error, 4)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := day(1 + i*5)
			end := day(5 + i*5)
			_, errs[i] = svc.Create(context.Background(), testUserID, request(start, end))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("disjoint booking %d rejected: %v", i, err)
		}
	}
}

// ────────────────────────────────────────────────
// Availability
// ────────────────────────────────────────────────

func TestCheckAvailability(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	available, err := svc.CheckAvailability(context.Background(), testPropertyID, day(1), day(5))
	if err != nil {
		t.Fatalf("availability check failed: %v", err)
	}
	if !available {
		t.Error("empty property reported unavailable")
	}

	if _, err := svc.Create(context.Background(), testUserID, request(day(1), day(5))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	available, err = svc.CheckAvailability(context.Background(), testPropertyID, day(3), day(7))
	if err != nil {
		t.Fatalf("availability check failed: %v", err)
	}
	if available {
		t.Error("overlapping range reported available")
	}

	available, err = svc.CheckAvailability(context.Background(), testPropertyID, day(5), day(9))
	if err != nil {
		t.Fatalf("availability check failed: %v", err)
	}
	if !available {
		t.Error("back-to-back range reported unavailable")
	}
}

func TestCheckAvailabilityInvalidRange(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil, nil)

	if _, err := svc.CheckAvailability(context.Background(), testPropertyID, day(5), day(1)); err == nil {
		t.Error("inverted range accepted")
	}
	if _, err := svc.CheckAvailability(context.Background(), "", day(1), day(5)); err == nil {
		t.Error("empty property ID accepted")
	}
}

// ────────────────────────────────────────────────
// Lifecycle
// ────────────────────────────────────────────────

func TestConfirmPendingBooking(t *testing.T) {
	pending := &model.Booking{ID: testBookingID, Status: model.BookingPending, PaymentStatus: model.PaymentPending}
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			clone := *pending
			return &clone, nil
		},
	}
	svc := newService(repo, nil, nil)

	booking, err := svc.Confirm(context.Background(), testBookingID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
}

func TestConfirmCancelledBookingRejected(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: testBookingID, Status: model.BookingCancelled}, nil
		},
	}
	svc := newService(repo, nil, nil)

	_, err := svc.Confirm(context.Background(), testBookingID)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeConflict)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  model.PaymentStatus
		next     model.PaymentStatus
		wantErr  bool
		wantCode string
	}{
		{"pending to paid", model.PaymentPending, model.PaymentPaid, false, ""},
		{"pending to failed", model.PaymentPending, model.PaymentFailed, false, ""},
		{"paid is terminal", model.PaymentPaid, model.PaymentFailed, true, apperrors.CodeConflict},
		{"failed is terminal", model.PaymentFailed, model.PaymentPaid, true, apperrors.CodeConflict},
		{"same status is a no-op", model.PaymentPaid, model.PaymentPaid, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
					return &model.Booking{
						ID:            testBookingID,
						Status:        model.BookingConfirmed,
						PaymentStatus: tt.current,
					}, nil
				},
			}
			svc := newService(repo, nil, nil)

			booking, err := svc.UpdatePaymentStatus(context.Background(), testBookingID, tt.next)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperrors.AsAppError(err).Code != tt.wantCode {
					t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.PaymentStatus != tt.next {
				t.Errorf("payment status = %s, want %s", booking.PaymentStatus, tt.next)
			}
		})
	}
}

func TestConcurrentPaymentOutcomesFirstWins(t *testing.T) {
	repo := newMemoryBookingRepository()
	svc := NewBookingService(repo, newMockLockRepository(), validator.NewBookingValidator(testConfig().Log), nil, events.NoopPublisher{}, testConfig())

	booking, err := svc.Create(context.Background(), testUserID, request(day(1), day(5)))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	outcomes := []model.PaymentStatus{model.PaymentPaid, model.PaymentFailed}
	errs := make([]error, len(outcomes))
	var wg sync.WaitGroup

	for i, status := range outcomes {
		wg.Add(1)
		go func(i int, status model.PaymentStatus) {
			defer wg.Done()
			_, errs[i] = svc.UpdatePaymentStatus(context.Background(), booking.ID, status)
		}(i, status)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
			t.Errorf("loser got %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeConflict)
		}
	}
	if winners != 1 {
		t.Fatalf("%d payment outcomes applied, want exactly 1", winners)
	}

	final, err := repo.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	for i, status := range outcomes {
		if errs[i] == nil && final.PaymentStatus != status {
			t.Errorf("stored payment status = %s, winner applied %s", final.PaymentStatus, status)
		}
	}
}

func TestConfirmLostRaceIsIdempotent(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: testBookingID, Status: model.BookingPending}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from, to model.BookingStatus) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{}, nil
		},
	}
	// After the conditional write misses, the re-read sees the booking
	// already confirmed by the concurrent writer.
	confirmed := false
	baseFind := repo.findByIDFunc
	repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		if confirmed {
			return &model.Booking{ID: testBookingID, Status: model.BookingConfirmed}, nil
		}
		confirmed = true
		return baseFind(ctx, id)
	}
	svc := newService(repo, nil, nil)

	booking, err := svc.Confirm(context.Background(), testBookingID)
	if err != nil {
		t.Fatalf("confirm errored after losing the race, want idempotent success: %v", err)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
}

func TestPaymentFailureKeepsBookingActive(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:            testBookingID,
				Status:        model.BookingConfirmed,
				PaymentStatus: model.PaymentPending,
			}, nil
		},
	}
	svc := newService(repo, nil, nil)

	booking, err := svc.UpdatePaymentStatus(context.Background(), testBookingID, model.PaymentFailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("booking status changed to %s after payment failure, want confirmed", booking.Status)
	}
	if !booking.IsActive() {
		t.Error("booking no longer active after payment failure")
	}
}

func TestListActiveByPropertyRequiresID(t *testing.T) {
	svc := newService(&mockBookingRepository{}, nil, nil)

	_, err := svc.ListActiveByProperty(context.Background(), "")
	if err == nil {
		t.Fatal("expected invalid input error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeInvalidInput)
	}
}
