package notifications

import (
	"context"
	"log"
	"strings"
)

// Notifier delivers a user-facing message for a booking event.
type Notifier interface {
	Notify(ctx context.Context, event *BookingEvent) error
}

// logNotifier stands in for an email/SMS integration: it renders the message
// and writes it to the application log.
type logNotifier struct{}

// NewLogNotifier returns a notifier that logs instead of sending.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Notify(ctx context.Context, event *BookingEvent) error {
	var b strings.Builder
	switch event.Type {
	case EventBookingCreated:
		b.WriteString("Seats reserved for booking ")
		b.WriteString(event.BookingRef)
		b.WriteString(", complete payment by ")
		b.WriteString(event.PaymentDeadline.Format("15:04 Jan 2"))
	case EventBookingConfirmed:
		b.WriteString("Booking ")
		b.WriteString(event.BookingRef)
		b.WriteString(" confirmed")
		if len(event.SeatLabels) > 0 {
			b.WriteString(", seats ")
			b.WriteString(strings.Join(event.SeatLabels, ", "))
		}
	case EventBookingCancelled:
		b.WriteString("Booking ")
		b.WriteString(event.BookingRef)
		b.WriteString(" cancelled")
		if event.Reason != "" {
			b.WriteString(": ")
			b.WriteString(event.Reason)
		}
	case EventBookingExpired:
		b.WriteString("Booking ")
		b.WriteString(event.BookingRef)
		b.WriteString(" expired, seats released")
	default:
		b.WriteString("Booking ")
		b.WriteString(event.BookingRef)
		b.WriteString(" update: ")
		b.WriteString(string(event.Type))
	}

	log.Printf("Notification for user %s: %s", event.UserID, b.String())
	return nil
}
