package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCatalogRepository struct {
	movies    map[uuid.UUID]*Movie
	theaters  map[uuid.UUID]*Theater
	showtimes map[uuid.UUID]*Showtime
}

func newFakeCatalogRepository() *fakeCatalogRepository {
	return &fakeCatalogRepository{
		movies:    make(map[uuid.UUID]*Movie),
		theaters:  make(map[uuid.UUID]*Theater),
		showtimes: make(map[uuid.UUID]*Showtime),
	}
}

func (f *fakeCatalogRepository) ListMovies(ctx context.Context) ([]Movie, error) {
	var out []Movie
	for _, movie := range f.movies {
		if movie.IsActive {
			out = append(out, *movie)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepository) GetMovieByID(ctx context.Context, id uuid.UUID) (*Movie, error) {
	movie, ok := f.movies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *movie
	return &copied, nil
}

func (f *fakeCatalogRepository) CreateTheater(ctx context.Context, theater *Theater) error {
	if theater.ID == uuid.Nil {
		theater.ID = uuid.New()
	}
	stored := *theater
	f.theaters[theater.ID] = &stored
	return nil
}

func (f *fakeCatalogRepository) GetTheaterByID(ctx context.Context, id uuid.UUID) (*Theater, error) {
	theater, ok := f.theaters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *theater
	return &copied, nil
}

func (f *fakeCatalogRepository) CreateShowtime(ctx context.Context, showtime *Showtime) error {
	if showtime.ID == uuid.Nil {
		showtime.ID = uuid.New()
	}
	stored := *showtime
	f.showtimes[showtime.ID] = &stored
	return nil
}

func (f *fakeCatalogRepository) GetShowtimeByID(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	showtime, ok := f.showtimes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *showtime
	return &copied, nil
}

func (f *fakeCatalogRepository) GetShowtimesByMovieID(ctx context.Context, movieID uuid.UUID, from time.Time) ([]Showtime, error) {
	var out []Showtime
	for _, showtime := range f.showtimes {
		if showtime.MovieID == movieID && showtime.IsActive && !showtime.ShowDate.Before(from) {
			out = append(out, *showtime)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepository) ShowtimeSlotTaken(ctx context.Context, theaterID uuid.UUID, showDate time.Time, showTime string) (bool, error) {
	for _, showtime := range f.showtimes {
		if showtime.TheaterID == theaterID && showtime.ShowDate.Equal(showDate) && showtime.ShowTime == showTime {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalogRepository) addMovie() *Movie {
	movie := &Movie{ID: uuid.New(), Title: "The Long Night", IsActive: true}
	f.movies[movie.ID] = movie
	return movie
}

func TestCreateShowtime(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (Service, *fakeCatalogRepository, *Movie, *Theater) {
		t.Helper()
		repo := newFakeCatalogRepository()
		svc := NewService(repo, nil, 0)
		movie := repo.addMovie()
		theater, err := svc.CreateTheater(ctx, CreateTheaterRequest{
			Name:        "Screen 1",
			Location:    "Downtown",
			Rows:        8,
			SeatsPerRow: 12,
		})
		require.NoError(t, err)
		return svc, repo, movie, theater
	}

	t.Run("seeds availability from theater capacity", func(t *testing.T) {
		svc, _, movie, theater := setup(t)
		date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

		showtime, err := svc.CreateShowtime(ctx, CreateShowtimeRequest{
			MovieID:   movie.ID,
			TheaterID: theater.ID,
			ShowDate:  date,
			ShowTime:  "20:30",
			Price:     12.50,
		})
		require.NoError(t, err)

		assert.Equal(t, 96, showtime.AvailableSeats)
		assert.Equal(t, 96, theater.TotalSeats)
		assert.True(t, showtime.IsActive)
	})

	t.Run("rejects a taken slot", func(t *testing.T) {
		svc, _, movie, theater := setup(t)
		date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
		req := CreateShowtimeRequest{
			MovieID:   movie.ID,
			TheaterID: theater.ID,
			ShowDate:  date,
			ShowTime:  "20:30",
			Price:     12.50,
		}

		_, err := svc.CreateShowtime(ctx, req)
		require.NoError(t, err)

		_, err = svc.CreateShowtime(ctx, req)
		assert.ErrorIs(t, err, ErrSlotTaken)

		// Same theater, different time slot is fine.
		req.ShowTime = "15:00"
		_, err = svc.CreateShowtime(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("rejects unknown movie or theater", func(t *testing.T) {
		svc, _, movie, theater := setup(t)
		date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

		_, err := svc.CreateShowtime(ctx, CreateShowtimeRequest{
			MovieID:   uuid.New(),
			TheaterID: theater.ID,
			ShowDate:  date,
			ShowTime:  "20:30",
			Price:     12.50,
		})
		assert.ErrorIs(t, err, ErrMovieNotFound)

		_, err = svc.CreateShowtime(ctx, CreateShowtimeRequest{
			MovieID:   movie.ID,
			TheaterID: uuid.New(),
			ShowDate:  date,
			ShowTime:  "20:30",
			Price:     12.50,
		})
		assert.ErrorIs(t, err, ErrTheaterNotFound)
	})
}

func TestGetShowtime(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCatalogRepository()
	svc := NewService(repo, nil, 0)

	_, err := svc.GetShowtime(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
}
