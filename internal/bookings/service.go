package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/seats"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
)

// SeatService is the slice of the seat inventory this package needs.
type SeatService interface {
	GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]seats.Seat, error)
	ListSeats(ctx context.Context, theaterID uuid.UUID) ([]seats.Seat, error)
}

// ShowtimeService is the slice of the catalog this package needs.
type ShowtimeService interface {
	GetShowtime(ctx context.Context, id uuid.UUID) (*catalog.Showtime, error)
}

// EventPublisher emits booking lifecycle events. Publishing is best-effort:
// failures are logged, never surfaced to the caller.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, booking *Booking) error
	PublishBookingConfirmed(ctx context.Context, booking *Booking) error
	PublishBookingCancelled(ctx context.Context, booking *Booking, reason string) error
	PublishBookingExpired(ctx context.Context, booking *Booking) error
}

// RefundProcessor records a refund when a paid booking is cancelled.
type RefundProcessor interface {
	RefundForCancelledBooking(ctx context.Context, bookingID uuid.UUID, reason string) error
}

// Service interface defines the contract for the booking lifecycle
type Service interface {
	ReserveSeats(ctx context.Context, userID uuid.UUID, req ReserveSeatsRequest) (*Booking, error)
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error)

	Confirm(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*Booking, error)
	CancelInternal(ctx context.Context, bookingID uuid.UUID, reason string) (*Booking, error)
	Expire(ctx context.Context, bookingID uuid.UUID) error
	SweepExpired(ctx context.Context, batchSize int) (int, error)

	GetSeatMap(ctx context.Context, showtimeID uuid.UUID) ([]seats.SeatResponse, error)
	GetBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error)
}

// service implements the Service interface
type service struct {
	repo      Repository
	seats     SeatService
	showtimes ShowtimeService
	publisher EventPublisher
	refunds   RefundProcessor
	cfg       config.BookingConfig
	logger    *logger.Logger
}

// NewService creates a new booking service instance. publisher and refunds
// may be nil; the corresponding side effects are then skipped.
func NewService(repo Repository, seatSvc SeatService, showtimeSvc ShowtimeService, publisher EventPublisher, cfg config.BookingConfig, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		seats:     seatSvc,
		showtimes: showtimeSvc,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
	}
}

// SetRefundProcessor wires the payment side after construction. Both services
// need each other, so one of the edges is set late.
func (s *service) SetRefundProcessor(rp RefundProcessor) {
	s.refunds = rp
}

// RefundWirer is implemented by the concrete booking service so the router can
// connect payments without a package cycle.
type RefundWirer interface {
	SetRefundProcessor(rp RefundProcessor)
}

// ReserveSeats validates the request, then hands the seat set to the
// repository for the atomic claim. Validation failures cost nothing; only a
// clean request reaches the locked transaction.
func (s *service) ReserveSeats(ctx context.Context, userID uuid.UUID, req ReserveSeatsRequest) (*Booking, error) {
	seatIDs := dedupeSeatIDs(req.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrEmptySeatSelection
	}

	showtime, err := s.showtimes.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		if errors.Is(err, catalog.ErrShowtimeNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	if !showtime.IsActive {
		return nil, ErrShowtimeInactive
	}

	seatList, err := s.seats.GetSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}
	if len(seatList) != len(seatIDs) {
		return nil, ErrSeatNotFound
	}
	for _, seat := range seatList {
		if seat.TheaterID != showtime.TheaterID {
			return nil, ErrSeatWrongTheater
		}
		if !seat.IsActive {
			return nil, ErrSeatInactive
		}
	}

	bookingRef, err := s.generateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	now := time.Now()
	booking := &Booking{
		ID:              uuid.New(),
		BookingRef:      bookingRef,
		UserID:          userID,
		ShowtimeID:      req.ShowtimeID,
		TotalAmount:     showtime.Price * float64(len(seatIDs)),
		Status:          StatusPending,
		PaymentDeadline: now.Add(s.cfg.PaymentDeadline),
	}
	for _, seatID := range seatIDs {
		booking.Seats = append(booking.Seats, BookingSeat{
			ID:         uuid.New(),
			BookingID:  booking.ID,
			SeatID:     seatID,
			ShowtimeID: req.ShowtimeID,
			IsBooked:   true,
		})
	}

	if err := s.repo.ReserveSeats(ctx, booking, seatIDs); err != nil {
		var conflict *SeatConflictError
		if errors.As(err, &conflict) {
			ids := make([]string, len(conflict.SeatIDs))
			for i, id := range conflict.SeatIDs {
				ids[i] = id.String()
			}
			s.logger.LogSeatConflict(ctx, req.ShowtimeID.String(), ids)
		}
		return nil, err
	}

	s.logger.LogBookingCreated(ctx, booking.ID.String(), req.ShowtimeID.String(), userID.String(), len(seatIDs))
	s.publish(ctx, func(p EventPublisher) error { return p.PublishBookingCreated(ctx, booking) })

	return booking, nil
}

func (s *service) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetUserBookings(ctx, userID, limit, offset)
}

// Confirm moves a booking to CONFIRMED. Only the payment orchestrator calls
// this; a booking whose deadline passed but is still PENDING confirms fine,
// the sweeper only wins if it committed first.
func (s *service) Confirm(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	if err := s.repo.ConfirmBooking(ctx, bookingID, time.Now()); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.LogBookingConfirmed(ctx, booking.ID.String(), booking.UserID.String())
	s.publish(ctx, func(p EventPublisher) error { return p.PublishBookingConfirmed(ctx, booking) })

	return booking, nil
}

// Cancel is the user-initiated cancellation. PENDING and CONFIRMED bookings
// both cancel; for CONFIRMED the payment side records a refund.
func (s *service) Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}

	return s.cancel(ctx, booking, reason)
}

// CancelInternal cancels without an ownership check, for system-initiated
// cancellations such as payment failure.
func (s *service) CancelInternal(ctx context.Context, bookingID uuid.UUID, reason string) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, booking, reason)
}

func (s *service) cancel(ctx context.Context, booking *Booking, reason string) (*Booking, error) {
	// The refund decision rides on the status the release transaction saw,
	// not on the read above: a payment webhook may confirm the booking
	// between that read and the release.
	prior, err := s.repo.ReleaseBooking(ctx, booking.ID, StatusCancelled, time.Now(), reason)
	if err != nil {
		return nil, err
	}

	if prior == StatusConfirmed && s.refunds != nil {
		if err := s.refunds.RefundForCancelledBooking(ctx, booking.ID, reason); err != nil {
			s.logger.WithError(err).Error("failed to record refund", "booking_id", booking.ID.String())
		}
	}

	updated, err := s.repo.GetBookingByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.logger.LogBookingCancelled(ctx, updated.ID.String(), reason)
	s.publish(ctx, func(p EventPublisher) error { return p.PublishBookingCancelled(ctx, updated, reason) })

	return updated, nil
}

// Expire moves a single overdue PENDING booking to EXPIRED and releases its
// seats. ErrInvalidTransition means someone confirmed or cancelled first.
func (s *service) Expire(ctx context.Context, bookingID uuid.UUID) error {
	if _, err := s.repo.ReleaseBooking(ctx, bookingID, StatusExpired, time.Now(), "Payment deadline passed"); err != nil {
		return err
	}

	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}

	s.logger.LogBookingExpired(ctx, booking.ID.String())
	s.publish(ctx, func(p EventPublisher) error { return p.PublishBookingExpired(ctx, booking) })

	return nil
}

// SweepExpired expires one batch of overdue PENDING bookings and returns how
// many it expired. Race losses (a booking confirmed between the scan and the
// flip) are skipped silently.
func (s *service) SweepExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.SweepBatchSize
	}

	overdue, err := s.repo.GetExpiredPending(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired bookings: %w", err)
	}

	expired := 0
	for _, booking := range overdue {
		err := s.Expire(ctx, booking.ID)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrBookingNotFound):
			// Lost the race to a confirm or cancel.
		default:
			s.logger.WithError(err).Error("failed to expire booking", "booking_id", booking.ID.String())
		}
	}
	return expired, nil
}

// GetSeatMap renders the showtime's seat map with a booked flag per seat.
func (s *service) GetSeatMap(ctx context.Context, showtimeID uuid.UUID) ([]seats.SeatResponse, error) {
	showtime, err := s.showtimes.GetShowtime(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, catalog.ErrShowtimeNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}

	seatList, err := s.seats.ListSeats(ctx, showtime.TheaterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat map: %w", err)
	}

	bookedIDs, err := s.repo.GetBookedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked seats: %w", err)
	}
	booked := make(map[uuid.UUID]struct{}, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = struct{}{}
	}

	responses := make([]seats.SeatResponse, 0, len(seatList))
	for _, seat := range seatList {
		_, isBooked := booked[seat.ID]
		responses = append(responses, seat.ToResponse(isBooked))
	}
	return responses, nil
}

func (s *service) GetBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.GetBookedSeatIDs(ctx, showtimeID)
}

func (s *service) publish(ctx context.Context, fn func(EventPublisher) error) {
	if s.publisher == nil {
		return
	}
	if err := fn(s.publisher); err != nil {
		s.logger.WithError(err).Warn("failed to publish booking event")
	}
}

// generateBookingReference builds the ticket-facing code, e.g.
// CIN-20260901-QKZLMA.
func (s *service) generateBookingReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("CIN-%s-%s", timestamp, string(randomPart)), nil
}

func dedupeSeatIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
