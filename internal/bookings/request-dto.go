package bookings

import "github.com/google/uuid"

// ReserveSeatsRequest starts a booking: a showtime and the seats to hold.
type ReserveSeatsRequest struct {
	ShowtimeID uuid.UUID   `json:"showtime_id" binding:"required"`
	SeatIDs    []uuid.UUID `json:"seat_ids" binding:"required,min=1,max=10"`
}

// CancelBookingRequest carries the optional user-supplied reason.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}
