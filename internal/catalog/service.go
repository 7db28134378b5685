package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/shared/constants"
	"cinebook/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrTheaterNotFound  = errors.New("theater not found")
	ErrShowtimeNotFound = errors.New("showtime not found")
	ErrSlotTaken        = errors.New("theater already has a showtime in this slot")
)

// Service interface defines the contract for catalog reads and operator setup
type Service interface {
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)

	CreateTheater(ctx context.Context, req CreateTheaterRequest) (*Theater, error)
	GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error)

	CreateShowtime(ctx context.Context, req CreateShowtimeRequest) (*Showtime, error)
	GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error)
	GetShowtimesByMovie(ctx context.Context, movieID uuid.UUID) ([]Showtime, error)
}

// service implements the Service interface
type service struct {
	repo  Repository
	cache cache.Service
	ttl   time.Duration
}

// NewService creates a new catalog service instance
func NewService(repo Repository, cacheService cache.Service, showtimeTTL time.Duration) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
		ttl:   showtimeTTL,
	}
}

func (s *service) ListMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if s.cache != nil {
		err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_MOVIES_LIST, s.ttl, func() (interface{}, error) {
			return s.repo.ListMovies(ctx)
		}, &movies)
		return movies, err
	}
	return s.repo.ListMovies(ctx)
}

func (s *service) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	movie, err := s.repo.GetMovieByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return movie, nil
}

func (s *service) CreateTheater(ctx context.Context, req CreateTheaterRequest) (*Theater, error) {
	theater := &Theater{
		Name:        req.Name,
		Location:    req.Location,
		Rows:        req.Rows,
		SeatsPerRow: req.SeatsPerRow,
		TotalSeats:  req.Rows * req.SeatsPerRow,
		IsActive:    true,
	}

	if err := s.repo.CreateTheater(ctx, theater); err != nil {
		return nil, fmt.Errorf("failed to create theater: %w", err)
	}
	return theater, nil
}

func (s *service) GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error) {
	theater, err := s.repo.GetTheaterByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTheaterNotFound
		}
		return nil, err
	}
	return theater, nil
}

// CreateShowtime schedules a screening. The slot (theater, date, time) must be
// free and available_seats starts at the theater's full capacity.
func (s *service) CreateShowtime(ctx context.Context, req CreateShowtimeRequest) (*Showtime, error) {
	theater, err := s.GetTheater(ctx, req.TheaterID)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetMovie(ctx, req.MovieID); err != nil {
		return nil, err
	}

	taken, err := s.repo.ShowtimeSlotTaken(ctx, req.TheaterID, req.ShowDate, req.ShowTime)
	if err != nil {
		return nil, fmt.Errorf("failed to check showtime slot: %w", err)
	}
	if taken {
		return nil, ErrSlotTaken
	}

	showtime := &Showtime{
		MovieID:        req.MovieID,
		TheaterID:      req.TheaterID,
		ShowDate:       req.ShowDate,
		ShowTime:       req.ShowTime,
		Price:          req.Price,
		AvailableSeats: theater.TotalSeats,
		IsActive:       true,
	}

	if err := s.repo.CreateShowtime(ctx, showtime); err != nil {
		return nil, fmt.Errorf("failed to create showtime: %w", err)
	}

	if s.cache != nil {
		// Stale listings are tolerable; a failed invalidation just shortens
		// the window in which they are served.
		_ = s.cache.Delete(ctx, constants.BuildShowtimesByMovieKey(req.MovieID.String()))
	}

	return showtime, nil
}

func (s *service) GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	showtime, err := s.repo.GetShowtimeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return showtime, nil
}

func (s *service) GetShowtimesByMovie(ctx context.Context, movieID uuid.UUID) ([]Showtime, error) {
	today := time.Now().Truncate(24 * time.Hour)

	var showtimes []Showtime
	if s.cache != nil {
		key := constants.BuildShowtimesByMovieKey(movieID.String())
		err := s.cache.GetOrSet(ctx, key, s.ttl, func() (interface{}, error) {
			return s.repo.GetShowtimesByMovieID(ctx, movieID, today)
		}, &showtimes)
		return showtimes, err
	}
	return s.repo.GetShowtimesByMovieID(ctx, movieID, today)
}
