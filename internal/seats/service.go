package seats

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

var ErrSeatNotFound = errors.New("seat not found")

// Service interface defines the contract for seat inventory
type Service interface {
	GenerateTheaterSeats(ctx context.Context, theaterID uuid.UUID, rows, seatsPerRow int) ([]Seat, error)
	ListSeats(ctx context.Context, theaterID uuid.UUID) ([]Seat, error)
	GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]Seat, error)
	UpdateSeat(ctx context.Context, seatID uuid.UUID, req UpdateSeatRequest) (*Seat, error)
}

// service implements the Service interface
type service struct {
	repo  Repository
	cache cache.Service
	ttl   time.Duration
}

// NewService creates a new seat inventory service instance
func NewService(repo Repository, cacheService cache.Service, seatMapTTL time.Duration) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
		ttl:   seatMapTTL,
	}
}

// GenerateTheaterSeats creates the fixed seat grid for a theater: rows are
// lettered A..Z, numbers start at 1.
func (s *service) GenerateTheaterSeats(ctx context.Context, theaterID uuid.UUID, rows, seatsPerRow int) ([]Seat, error) {
	if rows < 1 || rows > 26 || seatsPerRow < 1 {
		return nil, fmt.Errorf("invalid seat grid: %d rows x %d seats", rows, seatsPerRow)
	}

	seatList := make([]Seat, 0, rows*seatsPerRow)
	for r := 0; r < rows; r++ {
		row := string(rune('A' + r))
		for n := 1; n <= seatsPerRow; n++ {
			seatList = append(seatList, Seat{
				TheaterID: theaterID,
				Row:       row,
				Number:    n,
				SeatType:  TypeRegular,
				IsActive:  true,
			})
		}
	}

	if err := s.repo.CreateSeats(ctx, seatList); err != nil {
		return nil, fmt.Errorf("failed to create seats: %w", err)
	}

	s.invalidateSeatMap(ctx, theaterID)
	return seatList, nil
}

// ListSeats returns a theater's seats ordered by row then number, stable for
// rendering a seat map. The layout rarely changes so it is cached.
func (s *service) ListSeats(ctx context.Context, theaterID uuid.UUID) ([]Seat, error) {
	var seatList []Seat
	if s.cache != nil {
		key := seatMapKey(theaterID)
		err := s.cache.GetOrSet(ctx, key, s.ttl, func() (interface{}, error) {
			return s.repo.GetSeatsByTheaterID(ctx, theaterID)
		}, &seatList)
		return seatList, err
	}
	return s.repo.GetSeatsByTheaterID(ctx, theaterID)
}

func (s *service) GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]Seat, error) {
	return s.repo.GetSeatsByIDs(ctx, seatIDs)
}

// UpdateSeat applies operator mutations (type/active toggles). These have no
// booking-time side effects.
func (s *service) UpdateSeat(ctx context.Context, seatID uuid.UUID, req UpdateSeatRequest) (*Seat, error) {
	seat, err := s.repo.GetSeatByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.SeatType != nil {
		updates["seat_type"] = *req.SeatType
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return seat, nil
	}
	updates["updated_at"] = time.Now()

	if err := s.repo.UpdateSeat(ctx, seatID, updates); err != nil {
		return nil, fmt.Errorf("failed to update seat: %w", err)
	}

	s.invalidateSeatMap(ctx, seat.TheaterID)
	return s.repo.GetSeatByID(ctx, seatID)
}

func (s *service) invalidateSeatMap(ctx context.Context, theaterID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, seatMapKey(theaterID))
	}
}

func seatMapKey(theaterID uuid.UUID) string {
	return constants.BuildSeatMapKey(theaterID.String())
}
