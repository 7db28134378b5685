package bookings

import "time"

// BookingResponse is the API shape of a booking.
type BookingResponse struct {
	ID                 string     `json:"id"`
	BookingRef         string     `json:"booking_ref"`
	ShowtimeID         string     `json:"showtime_id"`
	Status             string     `json:"status"`
	TotalAmount        float64    `json:"total_amount"`
	SeatLabels         []string   `json:"seat_labels"`
	BookingTime        time.Time  `json:"booking_time"`
	PaymentDeadline    time.Time  `json:"payment_deadline"`
	ConfirmationTime   *time.Time `json:"confirmation_time,omitempty"`
	CancellationTime   *time.Time `json:"cancellation_time,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
}

// ToResponse converts a Booking for API responses
func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:                 b.ID.String(),
		BookingRef:         b.BookingRef,
		ShowtimeID:         b.ShowtimeID.String(),
		Status:             b.Status.String(),
		TotalAmount:        b.TotalAmount,
		SeatLabels:         b.SeatLabels(),
		BookingTime:        b.BookingTime,
		PaymentDeadline:    b.PaymentDeadline,
		ConfirmationTime:   b.ConfirmationTime,
		CancellationTime:   b.CancellationTime,
		CancellationReason: b.CancellationReason,
	}
}
