package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Movies
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovieByID(ctx context.Context, id uuid.UUID) (*Movie, error)

	// Theaters
	CreateTheater(ctx context.Context, theater *Theater) error
	GetTheaterByID(ctx context.Context, id uuid.UUID) (*Theater, error)

	// Showtimes
	CreateShowtime(ctx context.Context, showtime *Showtime) error
	GetShowtimeByID(ctx context.Context, id uuid.UUID) (*Showtime, error)
	GetShowtimesByMovieID(ctx context.Context, movieID uuid.UUID, from time.Time) ([]Showtime, error)
	ShowtimeSlotTaken(ctx context.Context, theaterID uuid.UUID, showDate time.Time, showTime string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("release_date DESC").
		Find(&movies).Error
	return movies, err
}

func (r *repository) GetMovieByID(ctx context.Context, id uuid.UUID) (*Movie, error) {
	var movie Movie
	if err := r.db.WithContext(ctx).First(&movie, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *repository) CreateTheater(ctx context.Context, theater *Theater) error {
	return r.db.WithContext(ctx).Create(theater).Error
}

func (r *repository) GetTheaterByID(ctx context.Context, id uuid.UUID) (*Theater, error) {
	var theater Theater
	if err := r.db.WithContext(ctx).First(&theater, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &theater, nil
}

func (r *repository) CreateShowtime(ctx context.Context, showtime *Showtime) error {
	return r.db.WithContext(ctx).Create(showtime).Error
}

func (r *repository) GetShowtimeByID(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	var showtime Showtime
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Preload("Theater").
		First(&showtime, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &showtime, nil
}

func (r *repository) GetShowtimesByMovieID(ctx context.Context, movieID uuid.UUID, from time.Time) ([]Showtime, error) {
	var showtimes []Showtime
	err := r.db.WithContext(ctx).
		Preload("Theater").
		Where("movie_id = ? AND is_active = ? AND show_date >= ?", movieID, true, from).
		Order("show_date ASC, show_time ASC").
		Find(&showtimes).Error
	return showtimes, err
}

func (r *repository) ShowtimeSlotTaken(ctx context.Context, theaterID uuid.UUID, showDate time.Time, showTime string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Showtime{}).
		Where("theater_id = ? AND show_date = ? AND show_time = ?", theaterID, showDate, showTime).
		Count(&count).Error
	return count > 0, err
}
