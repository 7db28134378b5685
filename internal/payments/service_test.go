package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakePaymentRepository mirrors the guarded-transition semantics of the real
// repository: Mark* only applies from an eligible status and reports whether
// it did.
type fakePaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*Payment
}

func newFakePaymentRepository() *fakePaymentRepository {
	return &fakePaymentRepository{payments: make(map[uuid.UUID]*Payment)}
}

func (f *fakePaymentRepository) CreatePayment(ctx context.Context, payment *Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirrors the unique index on booking_id.
	for _, existing := range f.payments {
		if existing.BookingID == payment.BookingID {
			return gorm.ErrDuplicatedKey
		}
	}
	payment.CreatedAt = time.Now()
	stored := *payment
	f.payments[payment.ID] = &stored
	return nil
}

func (f *fakePaymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (f *fakePaymentRepository) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.BookingID == bookingID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (f *fakePaymentRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.TransactionID == transactionID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (f *fakePaymentRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.transition(id, []Status{StatusPending}, func(p *Payment) {
		p.Status = StatusProcessing
	})
}

func (f *fakePaymentRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return f.transition(id, []Status{StatusPending, StatusProcessing}, func(p *Payment) {
		p.Status = StatusCompleted
		p.CompletedAt = &at
	})
}

func (f *fakePaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	return f.transition(id, []Status{StatusPending, StatusProcessing}, func(p *Payment) {
		p.Status = StatusFailed
		p.FailureReason = reason
	})
}

func (f *fakePaymentRepository) MarkRefunded(ctx context.Context, id uuid.UUID, amount float64, reason string, at time.Time) (bool, error) {
	return f.transition(id, []Status{StatusCompleted}, func(p *Payment) {
		p.Status = StatusRefunded
		p.RefundAmount = &amount
		p.RefundReason = reason
		p.RefundedAt = &at
	})
}

func (f *fakePaymentRepository) transition(id uuid.UUID, from []Status, apply func(*Payment)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if payment.Status == status {
			apply(payment)
			payment.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

// fakeBookingService tracks booking statuses and the calls made into it.
type fakeBookingService struct {
	mu            sync.Mutex
	bookings      map[uuid.UUID]*bookings.Booking
	confirmed     []uuid.UUID
	cancelReasons map[uuid.UUID]string
}

func newFakeBookingService() *fakeBookingService {
	return &fakeBookingService{
		bookings:      make(map[uuid.UUID]*bookings.Booking),
		cancelReasons: make(map[uuid.UUID]string),
	}
}

func (f *fakeBookingService) add(userID uuid.UUID, status bookings.Status, amount float64) *bookings.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking := &bookings.Booking{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      status,
		TotalAmount: amount,
	}
	f.bookings[booking.ID] = booking
	return booking
}

func (f *fakeBookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*bookings.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, bookings.ErrNotBookingOwner
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingService) Confirm(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	if booking.Status != bookings.StatusPending {
		return nil, bookings.ErrInvalidTransition
	}
	booking.Status = bookings.StatusConfirmed
	f.confirmed = append(f.confirmed, bookingID)
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingService) CancelInternal(ctx context.Context, bookingID uuid.UUID, reason string) (*bookings.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	if !booking.Status.CanCancel() {
		return nil, bookings.ErrInvalidTransition
	}
	booking.Status = bookings.StatusCancelled
	f.cancelReasons[bookingID] = reason
	copied := *booking
	return &copied, nil
}

// missOncePaymentRepository hides the existing payment from the first lookup,
// reproducing the window in which two StartPayment calls both decide to insert.
type missOncePaymentRepository struct {
	*fakePaymentRepository
	misses int
}

func (r *missOncePaymentRepository) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	if r.misses > 0 {
		r.misses--
		return nil, ErrPaymentNotFound
	}
	return r.fakePaymentRepository.GetPaymentByBookingID(ctx, bookingID)
}

type paymentFixture struct {
	repo     *fakePaymentRepository
	bookings *fakeBookingService
	service  Service
	userID   uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	repo := newFakePaymentRepository()
	bookingSvc := newFakeBookingService()
	cfg := config.BookingConfig{
		DefaultPaymentMethod: "STRIPE",
		Currency:             "USD",
	}
	return &paymentFixture{
		repo:     repo,
		bookings: bookingSvc,
		service:  NewService(repo, bookingSvc, NewMockGateway(), cfg, logger.New()),
		userID:   uuid.New(),
	}
}

func TestStartPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates payment for pending booking", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)

		payment, secret, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		// The gateway intent is open, so the payment is already PROCESSING.
		assert.Equal(t, StatusProcessing, payment.Status)
		assert.Equal(t, MethodStripe, payment.Method)
		assert.Equal(t, "USD", payment.Currency)
		assert.InDelta(t, 25.00, payment.Amount, 0.001)
		assert.NotEmpty(t, payment.TransactionID)
		assert.NotEmpty(t, secret)
	})

	t.Run("second start returns the same payment", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)

		first, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		second, secret, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.TransactionID, second.TransactionID)
		assert.NotEmpty(t, secret)
		assert.Len(t, fx.repo.payments, 1)
	})

	t.Run("insert race falls back to the winner's payment", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)

		winner, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		// The loser of a concurrent StartPayment read no payment yet; its
		// insert then hits the unique index on booking_id.
		raced := &missOncePaymentRepository{fakePaymentRepository: fx.repo, misses: 1}
		svc := NewService(raced, fx.bookings, NewMockGateway(), config.BookingConfig{
			DefaultPaymentMethod: "STRIPE",
			Currency:             "USD",
		}, logger.New())

		loser, secret, err := svc.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)
		assert.Equal(t, winner.ID, loser.ID)
		assert.Equal(t, winner.TransactionID, loser.TransactionID)
		assert.NotEmpty(t, secret)
		assert.Len(t, fx.repo.payments, 1)
	})

	t.Run("honors the requested method", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 12.50)

		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{
			BookingID: booking.ID,
			Method:    "PAYPAL",
		})
		require.NoError(t, err)
		assert.Equal(t, MethodPaypal, payment.Method)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 12.50)

		_, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{
			BookingID: booking.ID,
			Method:    "BARTER",
		})
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("rejects booking that is not pending", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusExpired, 12.50)

		_, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		assert.ErrorIs(t, err, ErrBookingNotPayable)
	})

	t.Run("rejects someone else's booking", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(uuid.New(), bookings.StatusPending, 12.50)

		_, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		assert.ErrorIs(t, err, bookings.ErrNotBookingOwner)
	})
}

func TestCompletePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("completes payment and confirms booking", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		completed, err := fx.service.CompletePayment(ctx, payment.TransactionID)
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, completed.Status)
		assert.NotNil(t, completed.CompletedAt)
		assert.Equal(t, []uuid.UUID{booking.ID}, fx.bookings.confirmed)
	})

	t.Run("replayed webhook is a no-op", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		_, err = fx.service.CompletePayment(ctx, payment.TransactionID)
		require.NoError(t, err)

		again, err := fx.service.CompletePayment(ctx, payment.TransactionID)
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, again.Status)
		assert.Len(t, fx.bookings.confirmed, 1)
	})

	t.Run("refunds when the booking already expired", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		// Sweeper wins the race before the webhook arrives.
		fx.bookings.mu.Lock()
		fx.bookings.bookings[booking.ID].Status = bookings.StatusExpired
		fx.bookings.mu.Unlock()

		refunded, err := fx.service.CompletePayment(ctx, payment.TransactionID)
		require.NoError(t, err)

		assert.Equal(t, StatusRefunded, refunded.Status)
		require.NotNil(t, refunded.RefundAmount)
		assert.InDelta(t, 25.00, *refunded.RefundAmount, 0.001)
		assert.Equal(t, "Booking no longer payable", refunded.RefundReason)
		assert.Empty(t, fx.bookings.confirmed)
	})

	t.Run("unknown transaction id", func(t *testing.T) {
		fx := newPaymentFixture(t)
		_, err := fx.service.CompletePayment(ctx, "TXN-0-ffffff")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestFailPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("fails payment and cancels booking", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		failed, err := fx.service.FailPayment(ctx, payment.TransactionID, "card declined")
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, failed.Status)
		assert.Equal(t, "card declined", failed.FailureReason)
		assert.Equal(t, "Payment failed", fx.bookings.cancelReasons[booking.ID])
	})

	t.Run("defaults the failure reason", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		failed, err := fx.service.FailPayment(ctx, payment.TransactionID, "")
		require.NoError(t, err)
		assert.Equal(t, "Payment declined by gateway", failed.FailureReason)
	})

	t.Run("replayed failure webhook is a no-op", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		_, err = fx.service.FailPayment(ctx, payment.TransactionID, "card declined")
		require.NoError(t, err)

		again, err := fx.service.FailPayment(ctx, payment.TransactionID, "card declined")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, again.Status)
	})
}

func TestRefundForCancelledBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds the completed payment", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)
		_, err = fx.service.CompletePayment(ctx, payment.TransactionID)
		require.NoError(t, err)

		err = fx.service.RefundForCancelledBooking(ctx, booking.ID, "Cancelled by user")
		require.NoError(t, err)

		refunded, err := fx.repo.GetPaymentByBookingID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, refunded.Status)
		require.NotNil(t, refunded.RefundAmount)
		assert.InDelta(t, 25.00, *refunded.RefundAmount, 0.001)
		assert.Equal(t, "Cancelled by user", refunded.RefundReason)
	})

	t.Run("no payment means nothing to refund", func(t *testing.T) {
		fx := newPaymentFixture(t)
		err := fx.service.RefundForCancelledBooking(ctx, uuid.New(), "Cancelled by user")
		assert.NoError(t, err)
	})

	t.Run("unsettled payment is left untouched", func(t *testing.T) {
		fx := newPaymentFixture(t)
		booking := fx.bookings.add(fx.userID, bookings.StatusPending, 25.00)
		payment, _, err := fx.service.StartPayment(ctx, fx.userID, StartPaymentRequest{BookingID: booking.ID})
		require.NoError(t, err)

		err = fx.service.RefundForCancelledBooking(ctx, booking.ID, "Cancelled by user")
		require.NoError(t, err)

		got, err := fx.repo.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, got.Status)
	})
}
