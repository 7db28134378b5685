package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrBookingNotPayable is returned when payment is started for a booking
	// that is not PENDING.
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")

	// ErrInvalidMethod is returned for an unknown payment method.
	ErrInvalidMethod = errors.New("unsupported payment method")
)

// BookingService is the slice of the booking lifecycle this package drives.
type BookingService interface {
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*bookings.Booking, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
	CancelInternal(ctx context.Context, bookingID uuid.UUID, reason string) (*bookings.Booking, error)
}

// Service interface defines the contract for payment orchestration
type Service interface {
	StartPayment(ctx context.Context, userID uuid.UUID, req StartPaymentRequest) (*Payment, string, error)
	GetBookingPayment(ctx context.Context, userID, bookingID uuid.UUID) (*Payment, error)

	// Webhook-driven transitions. Both are idempotent per transaction id.
	CompletePayment(ctx context.Context, transactionID string) (*Payment, error)
	FailPayment(ctx context.Context, transactionID, reason string) (*Payment, error)

	// RefundForCancelledBooking records the refund when a confirmed booking
	// is cancelled. Satisfies bookings.RefundProcessor.
	RefundForCancelledBooking(ctx context.Context, bookingID uuid.UUID, reason string) error
}

// service implements the Service interface
type service struct {
	repo     Repository
	bookings BookingService
	gateway  GatewayClient
	cfg      config.BookingConfig
	logger   *logger.Logger
}

// NewService creates a new payment orchestration service instance
func NewService(repo Repository, bookingSvc BookingService, gateway GatewayClient, cfg config.BookingConfig, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		bookings: bookingSvc,
		gateway:  gateway,
		cfg:      cfg,
		logger:   log,
	}
}

// StartPayment creates (or returns) the payment for a PENDING booking and
// opens a gateway intent. Calling it twice for the same booking returns the
// existing payment rather than a duplicate charge.
func (s *service) StartPayment(ctx context.Context, userID uuid.UUID, req StartPaymentRequest) (*Payment, string, error) {
	method := Method(req.Method)
	if req.Method == "" {
		method = Method(s.cfg.DefaultPaymentMethod)
	}
	if !method.IsValid() {
		return nil, "", ErrInvalidMethod
	}

	booking, err := s.bookings.GetBooking(ctx, userID, req.BookingID)
	if err != nil {
		return nil, "", err
	}

	existing, err := s.repo.GetPaymentByBookingID(ctx, booking.ID)
	if err == nil {
		secret, gwErr := s.gateway.CreateIntent(ctx, existing.TransactionID, existing.Amount, existing.Currency, existing.Method)
		if gwErr != nil {
			return nil, "", fmt.Errorf("failed to create payment intent: %w", gwErr)
		}
		return existing, secret, nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		return nil, "", err
	}

	if booking.Status != bookings.StatusPending {
		return nil, "", ErrBookingNotPayable
	}

	payment := &Payment{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		Amount:        booking.TotalAmount,
		Currency:      s.cfg.Currency,
		Method:        method,
		Status:        StatusPending,
		TransactionID: generateTransactionID(),
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		// A concurrent StartPayment may have created the row between the
		// lookup above and this insert; the unique index on booking_id makes
		// the loser's insert fail. Fall back to the winner's payment.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.resumeExistingPayment(ctx, booking.ID)
		}
		return nil, "", fmt.Errorf("failed to create payment: %w", err)
	}

	secret, err := s.gateway.CreateIntent(ctx, payment.TransactionID, payment.Amount, payment.Currency, payment.Method)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	// The gateway now holds an open intent for this payment.
	ok, err := s.repo.MarkProcessing(ctx, payment.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mark payment processing: %w", err)
	}
	if ok {
		payment.Status = StatusProcessing
	}

	s.logger.LogPaymentEvent(ctx, payment.ID.String(), booking.ID.String(), payment.Status.String())
	return payment, secret, nil
}

func (s *service) resumeExistingPayment(ctx context.Context, bookingID uuid.UUID) (*Payment, string, error) {
	existing, err := s.repo.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	secret, err := s.gateway.CreateIntent(ctx, existing.TransactionID, existing.Amount, existing.Currency, existing.Method)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return existing, secret, nil
}

func (s *service) GetBookingPayment(ctx context.Context, userID, bookingID uuid.UUID) (*Payment, error) {
	// Ownership check rides on the booking lookup.
	if _, err := s.bookings.GetBooking(ctx, userID, bookingID); err != nil {
		return nil, err
	}
	return s.repo.GetPaymentByBookingID(ctx, bookingID)
}

// CompletePayment settles a payment and confirms its booking. If the booking
// already left PENDING (expired or cancelled while the gateway processed),
// the payment flips to REFUNDED instead so money and seats stay consistent.
func (s *service) CompletePayment(ctx context.Context, transactionID string) (*Payment, error) {
	payment, err := s.repo.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Replayed webhook.
	if payment.Status == StatusCompleted || payment.Status == StatusRefunded {
		return payment, nil
	}

	now := time.Now()
	ok, err := s.repo.MarkCompleted(ctx, payment.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}
	if !ok {
		return s.repo.GetPaymentByID(ctx, payment.ID)
	}

	s.logger.LogPaymentEvent(ctx, payment.ID.String(), payment.BookingID.String(), StatusCompleted.String())

	_, err = s.bookings.Confirm(ctx, payment.BookingID)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidTransition) {
			// Paid for a dead booking: keep the money trail honest.
			if _, rErr := s.repo.MarkRefunded(ctx, payment.ID, payment.Amount, "Booking no longer payable", now); rErr != nil {
				return nil, fmt.Errorf("failed to refund payment: %w", rErr)
			}
			s.logger.LogPaymentEvent(ctx, payment.ID.String(), payment.BookingID.String(), StatusRefunded.String())
			return s.repo.GetPaymentByID(ctx, payment.ID)
		}
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	return s.repo.GetPaymentByID(ctx, payment.ID)
}

// FailPayment marks the payment FAILED and cancels the booking so its seats
// return to the pool immediately instead of waiting for the sweeper.
func (s *service) FailPayment(ctx context.Context, transactionID, reason string) (*Payment, error) {
	payment, err := s.repo.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if payment.Status == StatusFailed {
		return payment, nil
	}

	if reason == "" {
		reason = "Payment declined by gateway"
	}

	ok, err := s.repo.MarkFailed(ctx, payment.ID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	if !ok {
		return s.repo.GetPaymentByID(ctx, payment.ID)
	}

	s.logger.LogPaymentEvent(ctx, payment.ID.String(), payment.BookingID.String(), StatusFailed.String())

	_, err = s.bookings.CancelInternal(ctx, payment.BookingID, "Payment failed")
	if err != nil && !errors.Is(err, bookings.ErrInvalidTransition) {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	return s.repo.GetPaymentByID(ctx, payment.ID)
}

// RefundForCancelledBooking records a full refund against the booking's
// completed payment. Bookings without a completed payment have nothing to
// refund.
func (s *service) RefundForCancelledBooking(ctx context.Context, bookingID uuid.UUID, reason string) error {
	payment, err := s.repo.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil
		}
		return err
	}

	ok, err := s.repo.MarkRefunded(ctx, payment.ID, payment.Amount, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failed to refund payment: %w", err)
	}
	if ok {
		s.logger.LogPaymentEvent(ctx, payment.ID.String(), bookingID.String(), StatusRefunded.String())
	}
	return nil
}

// generateTransactionID builds the gateway-facing id, e.g. TXN-1756684800-9f2c1a.
func generateTransactionID() string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("TXN-%d-%s", time.Now().Unix(), hex.EncodeToString(buf))
}
