package notifications

import (
	"context"
	"time"

	"cinebook/internal/bookings"

	"github.com/google/uuid"
)

// BookingEventAdapter implements bookings.EventPublisher on top of the Kafka
// producer so the bookings package stays ignorant of the transport.
type BookingEventAdapter struct {
	producer EventProducer
}

// NewBookingEventAdapter creates an adapter around the given producer
func NewBookingEventAdapter(producer EventProducer) *BookingEventAdapter {
	return &BookingEventAdapter{producer: producer}
}

func (a *BookingEventAdapter) PublishBookingCreated(ctx context.Context, booking *bookings.Booking) error {
	return a.producer.PublishEvent(ctx, a.toEvent(EventBookingCreated, booking, ""))
}

func (a *BookingEventAdapter) PublishBookingConfirmed(ctx context.Context, booking *bookings.Booking) error {
	return a.producer.PublishEvent(ctx, a.toEvent(EventBookingConfirmed, booking, ""))
}

func (a *BookingEventAdapter) PublishBookingCancelled(ctx context.Context, booking *bookings.Booking, reason string) error {
	return a.producer.PublishEvent(ctx, a.toEvent(EventBookingCancelled, booking, reason))
}

func (a *BookingEventAdapter) PublishBookingExpired(ctx context.Context, booking *bookings.Booking) error {
	return a.producer.PublishEvent(ctx, a.toEvent(EventBookingExpired, booking, "Payment deadline passed"))
}

func (a *BookingEventAdapter) toEvent(eventType EventType, booking *bookings.Booking, reason string) *BookingEvent {
	return &BookingEvent{
		ID:              uuid.New(),
		Type:            eventType,
		BookingID:       booking.ID,
		BookingRef:      booking.BookingRef,
		UserID:          booking.UserID,
		ShowtimeID:      booking.ShowtimeID,
		Status:          booking.Status.String(),
		TotalAmount:     booking.TotalAmount,
		SeatLabels:      booking.SeatLabels(),
		Reason:          reason,
		PaymentDeadline: booking.PaymentDeadline,
		OccurredAt:      time.Now(),
	}
}
