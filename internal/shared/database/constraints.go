package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// At most one active reservation per seat per showtime. Cancelled and
	// expired seat rows keep is_booked=false, so history stays intact while
	// the seat frees up for a new booking.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_seat_per_showtime
		ON booking_seats (seat_id, showtime_id)
		WHERE is_booked;
	`).Error
	if err != nil {
		return err
	}

	// Speeds up the seat-map overlay and the reservation conflict check.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_seats_showtime_active
		ON booking_seats (showtime_id)
		WHERE is_booked;
	`).Error
	if err != nil {
		return err
	}

	// Sweeper scan: PENDING bookings ordered by deadline.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_pending_deadline
		ON bookings (payment_deadline)
		WHERE status = 'PENDING';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
