package bookings

import (
	"time"

	"cinebook/internal/seats"

	"github.com/google/uuid"
)

// Booking defines the main booking structure. The UUID primary key doubles as
// the opaque public booking id; BookingRef is the short human-facing code
// printed on tickets.
type Booking struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingRef         string     `gorm:"unique;not null" json:"booking_ref"`
	UserID             uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	ShowtimeID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"showtime_id"`
	TotalAmount        float64    `gorm:"not null" json:"total_amount"`
	Status             Status     `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'EXPIRED');default:'PENDING'" json:"status"`
	BookingTime        time.Time  `gorm:"autoCreateTime" json:"booking_time"`
	PaymentDeadline    time.Time  `gorm:"not null" json:"payment_deadline"`
	ConfirmationTime   *time.Time `json:"confirmation_time,omitempty"`
	CancellationTime   *time.Time `json:"cancellation_time,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relationships
	Seats []BookingSeat `json:"seats,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingSeat links one booking to one seat for one showtime. The partial
// unique index on (seat_id, showtime_id) WHERE is_booked enforces at most one
// active reservation per seat per showtime (see database.MigrateConstraints).
type BookingSeat struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID  uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	SeatID     uuid.UUID `gorm:"type:uuid;index;not null" json:"seat_id"`
	ShowtimeID uuid.UUID `gorm:"type:uuid;index;not null" json:"showtime_id"`
	IsBooked   bool      `gorm:"default:true" json:"is_booked"`
	BookedAt   time.Time `gorm:"autoCreateTime" json:"booked_at"`

	// Relationships
	Seat *seats.Seat `json:"seat,omitempty" gorm:"foreignKey:SeatID;constraint:OnDelete:RESTRICT;"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for BookingSeat
func (BookingSeat) TableName() string {
	return "booking_seats"
}

// IsExpired reports whether the payment deadline has passed while the booking
// is still unpaid. Advisory only: the booking stays PENDING until the sweeper
// commits the EXPIRED transition.
func (b *Booking) IsExpired() bool {
	return time.Now().After(b.PaymentDeadline) && b.Status == StatusPending
}

// SeatLabels returns the ticket-facing seat labels, e.g. ["A1", "A2"].
func (b *Booking) SeatLabels() []string {
	labels := make([]string, 0, len(b.Seats))
	for _, bs := range b.Seats {
		if bs.Seat != nil {
			labels = append(labels, bs.Seat.Label())
		}
	}
	return labels
}
