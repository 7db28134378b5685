package seats

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateSeats(ctx context.Context, seats []Seat) error
	GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]Seat, error)
	GetSeatsByTheaterID(ctx context.Context, theaterID uuid.UUID) ([]Seat, error)
	UpdateSeat(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	return r.db.WithContext(ctx).Create(&seats).Error
}

func (r *repository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	if err := r.db.WithContext(ctx).First(&seat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *repository) GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("id IN ?", seatIDs).
		Find(&seats).Error
	return seats, err
}

// GetSeatsByTheaterID returns the theater's seats in stable seat-map order.
func (r *repository) GetSeatsByTheaterID(ctx context.Context, theaterID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("theater_id = ?", theaterID).
		Order("row ASC, number ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) UpdateSeat(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&Seat{}).Where("id = ?", id).Updates(updates).Error
}
