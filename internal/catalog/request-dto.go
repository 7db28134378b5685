package catalog

import (
	"time"

	"github.com/google/uuid"
)

type CreateTheaterRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Location    string `json:"location" binding:"required,min=2,max=200"`
	Rows        int    `json:"rows" binding:"required,min=1,max=50"`
	SeatsPerRow int    `json:"seats_per_row" binding:"required,min=1,max=50"`
}

type CreateShowtimeRequest struct {
	MovieID   uuid.UUID `json:"movie_id" binding:"required"`
	TheaterID uuid.UUID `json:"theater_id" binding:"required"`
	ShowDate  time.Time `json:"show_date" binding:"required"`
	ShowTime  string    `json:"show_time" binding:"required,len=5"` // "18:30"
	Price     float64   `json:"price" binding:"required,min=0"`
}
