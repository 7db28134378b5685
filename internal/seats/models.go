package seats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeatType classifies a physical seat
type SeatType string

const (
	TypeRegular SeatType = "REGULAR"
	TypePremium SeatType = "PREMIUM"
	TypeVIP     SeatType = "VIP"
)

func (t SeatType) IsValid() bool {
	switch t {
	case TypeRegular, TypePremium, TypeVIP:
		return true
	}
	return false
}

// Seat is one physical seat in a theater. Identity is (theater, row, number).
// Seats are created at theater setup and never deleted while bookings
// reference them; operators may toggle type and active flag.
type Seat struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TheaterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_theater_row_number" json:"theater_id"`
	Row       string    `gorm:"size:5;not null;uniqueIndex:idx_theater_row_number" json:"row"`
	Number    int       `gorm:"not null;check:number > 0;uniqueIndex:idx_theater_row_number" json:"number"`
	SeatType  SeatType  `gorm:"type:varchar(20);check:seat_type IN ('REGULAR', 'PREMIUM', 'VIP');default:'REGULAR'" json:"seat_type"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

// Label renders the seat the way it appears on a ticket, e.g. "B5".
func (s *Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}

// SeatResponse for API responses; Booked is showtime-specific.
type SeatResponse struct {
	ID       string `json:"id"`
	Row      string `json:"row"`
	Number   int    `json:"number"`
	Label    string `json:"label"`
	SeatType string `json:"seat_type"`
	IsActive bool   `json:"is_active"`
	Booked   bool   `json:"booked"`
}

// ToResponse converts a Seat with its showtime-specific booked flag
func (s *Seat) ToResponse(booked bool) SeatResponse {
	return SeatResponse{
		ID:       s.ID.String(),
		Row:      s.Row,
		Number:   s.Number,
		Label:    s.Label(),
		SeatType: string(s.SeatType),
		IsActive: s.IsActive,
		Booked:   booked,
	}
}

type UpdateSeatRequest struct {
	SeatType *string `json:"seat_type" binding:"omitempty,oneof=REGULAR PREMIUM VIP"`
	IsActive *bool   `json:"is_active" binding:"omitempty"`
}
