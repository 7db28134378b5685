package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Movie is a read-mostly catalog record. The booking core never mutates it.
type Movie struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title           string    `gorm:"not null;size:200" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Genre           string    `gorm:"type:varchar(20)" json:"genre"`
	Rating          string    `gorm:"type:varchar(10)" json:"rating"`
	DurationMinutes int       `gorm:"not null;check:duration_minutes > 0" json:"duration_minutes"`
	ReleaseDate     time.Time `gorm:"type:date" json:"release_date"`
	Language        string    `gorm:"size:50;default:'English'" json:"language"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Theater holds the fixed physical seat layout referenced by Seat rows.
type Theater struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Location    string    `gorm:"not null;size:200" json:"location"`
	TotalSeats  int       `gorm:"not null;check:total_seats > 0" json:"total_seats"`
	Rows        int       `gorm:"default:10" json:"rows"`
	SeatsPerRow int       `gorm:"default:10" json:"seats_per_row"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Showtime schedules a movie in a theater. available_seats is a denormalized
// counter owned by the booking core: every mutation happens inside the same
// transaction as the booking-seat rows that justify it.
type Showtime struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MovieID        uuid.UUID `gorm:"type:uuid;index;not null" json:"movie_id"`
	TheaterID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_theater_slot" json:"theater_id"`
	ShowDate       time.Time `gorm:"type:date;not null;uniqueIndex:idx_theater_slot" json:"show_date"`
	ShowTime       string    `gorm:"type:varchar(8);not null;uniqueIndex:idx_theater_slot" json:"show_time"`
	Price          float64   `gorm:"not null;check:price >= 0" json:"price"`
	AvailableSeats int       `gorm:"not null;check:available_seats >= 0" json:"available_seats"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`

	// Relationships
	Movie   *Movie   `json:"movie,omitempty" gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE;"`
	Theater *Theater `json:"theater,omitempty" gorm:"foreignKey:TheaterID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Movie
func (Movie) TableName() string {
	return "movies"
}

// TableName sets the table name for Theater
func (Theater) TableName() string {
	return "theaters"
}

// TableName sets the table name for Showtime
func (Showtime) TableName() string {
	return "showtimes"
}
