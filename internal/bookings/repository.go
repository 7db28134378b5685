package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Core booking operations
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error)

	// Availability reads
	GetBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error)

	// Concurrency-safe seat reservation
	ReserveSeats(ctx context.Context, booking *Booking, seatIDs []uuid.UUID) error

	// Status transitions. ReleaseBooking reports the status the booking held
	// when the transition committed, so callers can act on what the booking
	// actually was rather than on a stale read.
	ConfirmBooking(ctx context.Context, id uuid.UUID, at time.Time) error
	ReleaseBooking(ctx context.Context, id uuid.UUID, to Status, at time.Time, reason string) (Status, error)

	// Sweeper support
	GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Seats").
		Preload("Seats.Seat").
		First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Preload("Seats").
		Preload("Seats.Seat").
		Where("user_id = ?", userID).
		Order("booking_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// GetBookedSeatIDs returns the seats with an active reservation for the
// showtime. Reads outside the reservation transaction are best-effort
// snapshots and may be briefly stale.
func (r *repository) GetBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	var seatIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&BookingSeat{}).
		Where("showtime_id = ? AND is_booked = ?", showtimeID, true).
		Pluck("seat_id", &seatIDs).Error
	return seatIDs, err
}

// ReserveSeats atomically claims a seat set for a showtime. One transaction:
// lock the showtime row, re-check that none of the requested seats has an
// active reservation, create the PENDING booking with its seat rows, and
// decrement available_seats by the seat count. Any conflict aborts the whole
// request with SeatConflictError; the partial unique index on
// (seat_id, showtime_id) WHERE is_booked backs the same invariant at the
// database level.
func (r *repository) ReserveSeats(ctx context.Context, booking *Booking, seatIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the showtime row so concurrent reservations for the same
		// showtime serialize here.
		var showtime struct {
			ID             uuid.UUID `gorm:"column:id"`
			AvailableSeats int       `gorm:"column:available_seats"`
			IsActive       bool      `gorm:"column:is_active"`
		}

		err := tx.Table("showtimes").
			Select("id, available_seats, is_active").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", booking.ShowtimeID).
			First(&showtime).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShowtimeNotFound
			}
			return fmt.Errorf("failed to lock showtime: %w", err)
		}

		if !showtime.IsActive {
			return ErrShowtimeInactive
		}

		// 2. Re-check for active reservations on the requested seats. The
		// lock above guarantees no concurrent reservation interleaves
		// between this check and the writes below.
		var conflicting []uuid.UUID
		err = tx.Model(&BookingSeat{}).
			Where("showtime_id = ? AND seat_id IN ? AND is_booked = ?", booking.ShowtimeID, seatIDs, true).
			Pluck("seat_id", &conflicting).Error
		if err != nil {
			return fmt.Errorf("failed to check seat availability: %w", err)
		}
		if len(conflicting) > 0 {
			return &SeatConflictError{ShowtimeID: booking.ShowtimeID, SeatIDs: conflicting}
		}

		if showtime.AvailableSeats < len(seatIDs) {
			return &SeatConflictError{ShowtimeID: booking.ShowtimeID, SeatIDs: seatIDs}
		}

		// 3. Create the booking and its seat rows.
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		// 4. Decrement the denormalized counter in the same transaction.
		err = tx.Table("showtimes").
			Where("id = ?", booking.ShowtimeID).
			Update("available_seats", gorm.Expr("available_seats - ?", len(seatIDs))).Error
		if err != nil {
			return fmt.Errorf("failed to update available seats: %w", err)
		}

		return nil
	})
}

// ConfirmBooking flips PENDING to CONFIRMED. The guarded update makes racing
// transitions lose cleanly: zero affected rows on an existing booking means
// the status changed underneath us.
func (r *repository) ConfirmBooking(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":            StatusConfirmed,
			"confirmation_time": at,
			"updated_at":        at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.transitionFailure(ctx, id)
	}
	return nil
}

// ReleaseBooking moves a booking to CANCELLED or EXPIRED, flips its seat rows
// to is_booked=false and returns the seats to the showtime counter. The
// status flip, the seat release and the counter increment commit together or
// not at all. The returned status is the one the locked row held going into
// the transition; a booking confirmed moments before a cancel reports
// CONFIRMED here even if the caller last saw it PENDING.
func (r *repository) ReleaseBooking(ctx context.Context, id uuid.UUID, to Status, at time.Time, reason string) (Status, error) {
	from := eligibleFrom(to)
	if len(from) == 0 {
		return "", ErrInvalidTransition
	}

	var prior Status
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		prior = booking.Status

		res := tx.Model(&Booking{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(map[string]interface{}{
				"status":              to,
				"cancellation_time":   at,
				"cancellation_reason": reason,
				"updated_at":          at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		// Release the seat rows; RowsAffected is the exact number of seats
		// to hand back to the counter.
		release := tx.Model(&BookingSeat{}).
			Where("booking_id = ? AND is_booked = ?", id, true).
			Update("is_booked", false)
		if release.Error != nil {
			return fmt.Errorf("failed to release seats: %w", release.Error)
		}

		if release.RowsAffected > 0 {
			err = tx.Table("showtimes").
				Where("id = ?", booking.ShowtimeID).
				Update("available_seats", gorm.Expr("available_seats + ?", release.RowsAffected)).Error
			if err != nil {
				return fmt.Errorf("failed to update available seats: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}
	return prior, nil
}

// GetExpiredPending returns PENDING bookings whose payment deadline passed.
func (r *repository) GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_deadline < ?", StatusPending, now).
		Order("payment_deadline ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// transitionFailure distinguishes a missing booking from a lost race after a
// guarded update touched zero rows.
func (r *repository) transitionFailure(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrBookingNotFound
	}
	return ErrInvalidTransition
}
