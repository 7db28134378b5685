package bookings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrBookingNotFound is returned when a booking id resolves to nothing.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidTransition is returned when a status change is requested from
	// a state that does not allow it. The sweeper treats this as an expected
	// race loss and skips the booking.
	ErrInvalidTransition = errors.New("booking status does not allow this action")

	// ErrNotBookingOwner is returned when a user acts on someone else's booking.
	ErrNotBookingOwner = errors.New("booking does not belong to user")

	// Validation failures, rejected before any mutation.
	ErrEmptySeatSelection = errors.New("no seats selected")
	ErrSeatNotFound       = errors.New("one or more seats do not exist")
	ErrSeatInactive       = errors.New("one or more seats are not active")
	ErrSeatWrongTheater   = errors.New("one or more seats do not belong to the showtime's theater")
	ErrShowtimeNotFound   = errors.New("showtime not found")
	ErrShowtimeInactive   = errors.New("showtime is not open for booking")
)

// SeatConflictError reports a lost seat race: at least one requested seat
// already has an active reservation for the showtime. The whole request is
// aborted; callers should re-render the seat map.
type SeatConflictError struct {
	ShowtimeID uuid.UUID
	SeatIDs    []uuid.UUID
}

func (e *SeatConflictError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("seats already booked for showtime %s: %s", e.ShowtimeID, strings.Join(ids, ", "))
}

// IsSeatConflict reports whether err is a seat conflict.
func IsSeatConflict(err error) bool {
	var conflict *SeatConflictError
	return errors.As(err, &conflict)
}
