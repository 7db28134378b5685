package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a booking lifecycle event.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingExpired   EventType = "booking.expired"
)

// BookingEvent is the wire format published to Kafka for every booking
// transition. Consumers render tickets and emails off this payload.
type BookingEvent struct {
	ID              uuid.UUID `json:"id" validate:"required"`
	Type            EventType `json:"type" validate:"required"`
	BookingID       uuid.UUID `json:"booking_id" validate:"required"`
	BookingRef      string    `json:"booking_ref"`
	UserID          uuid.UUID `json:"user_id"`
	ShowtimeID      uuid.UUID `json:"showtime_id"`
	Status          string    `json:"status"`
	TotalAmount     float64   `json:"total_amount"`
	SeatLabels      []string  `json:"seat_labels,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	PaymentDeadline time.Time `json:"payment_deadline"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ToJSON serializes the event for the Kafka message value
func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events for one booking to the same partition so
// consumers see its transitions in order.
func (e *BookingEvent) PartitionKey() string {
	return e.BookingID.String()
}
