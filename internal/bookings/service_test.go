package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/seats"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is a mutex-guarded in-memory Repository. It mirrors the
// transactional semantics of the real one: the whole ReserveSeats call
// succeeds or fails atomically, and transitions are guarded by status.
type fakeRepository struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*Booking
	available map[uuid.UUID]int
	inactive  map[uuid.UUID]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		bookings:  make(map[uuid.UUID]*Booking),
		available: make(map[uuid.UUID]int),
		inactive:  make(map[uuid.UUID]bool),
	}
}

func (f *fakeRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *booking
	copied.Seats = append([]BookingSeat(nil), booking.Seats...)
	return &copied, nil
}

func (f *fakeRepository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetBookedSeatIDs(ctx context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for _, b := range f.bookings {
		for _, bs := range b.Seats {
			if bs.ShowtimeID == showtimeID && bs.IsBooked {
				out = append(out, bs.SeatID)
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) ReserveSeats(ctx context.Context, booking *Booking, seatIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inactive[booking.ShowtimeID] {
		return ErrShowtimeInactive
	}

	var conflicting []uuid.UUID
	for _, b := range f.bookings {
		for _, bs := range b.Seats {
			if bs.ShowtimeID != booking.ShowtimeID || !bs.IsBooked {
				continue
			}
			for _, want := range seatIDs {
				if bs.SeatID == want {
					conflicting = append(conflicting, want)
				}
			}
		}
	}
	if len(conflicting) > 0 {
		return &SeatConflictError{ShowtimeID: booking.ShowtimeID, SeatIDs: conflicting}
	}

	if f.available[booking.ShowtimeID] < len(seatIDs) {
		return &SeatConflictError{ShowtimeID: booking.ShowtimeID, SeatIDs: seatIDs}
	}

	booking.BookingTime = time.Now()
	stored := *booking
	stored.Seats = append([]BookingSeat(nil), booking.Seats...)
	f.bookings[booking.ID] = &stored
	f.available[booking.ShowtimeID] -= len(seatIDs)
	return nil
}

func (f *fakeRepository) ConfirmBooking(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if booking.Status != StatusPending {
		return ErrInvalidTransition
	}
	booking.Status = StatusConfirmed
	booking.ConfirmationTime = &at
	return nil
}

func (f *fakeRepository) ReleaseBooking(ctx context.Context, id uuid.UUID, to Status, at time.Time, reason string) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return "", ErrBookingNotFound
	}

	eligible := false
	for _, from := range eligibleFrom(to) {
		if booking.Status == from {
			eligible = true
		}
	}
	if !eligible {
		return "", ErrInvalidTransition
	}

	prior := booking.Status
	booking.Status = to
	booking.CancellationTime = &at
	booking.CancellationReason = reason

	released := 0
	for i := range booking.Seats {
		if booking.Seats[i].IsBooked {
			booking.Seats[i].IsBooked = false
			released++
		}
	}
	f.available[booking.ShowtimeID] += released
	return prior, nil
}

func (f *fakeRepository) GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.Status == StatusPending && b.PaymentDeadline.Before(now) {
			out = append(out, *b)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepository) availableSeats(showtimeID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[showtimeID]
}

// fakeSeatService serves a fixed theater of seats.
type fakeSeatService struct {
	theaterID uuid.UUID
	seats     map[uuid.UUID]seats.Seat
}

func newFakeSeatService(theaterID uuid.UUID, count int) *fakeSeatService {
	f := &fakeSeatService{theaterID: theaterID, seats: make(map[uuid.UUID]seats.Seat)}
	for i := 0; i < count; i++ {
		id := uuid.New()
		f.seats[id] = seats.Seat{
			ID:        id,
			TheaterID: theaterID,
			Row:       "A",
			Number:    i + 1,
			SeatType:  seats.TypeRegular,
			IsActive:  true,
		}
	}
	return f
}

func (f *fakeSeatService) GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]seats.Seat, error) {
	var out []seats.Seat
	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (f *fakeSeatService) ListSeats(ctx context.Context, theaterID uuid.UUID) ([]seats.Seat, error) {
	var out []seats.Seat
	for _, seat := range f.seats {
		out = append(out, seat)
	}
	return out, nil
}

func (f *fakeSeatService) ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, 0, n)
	for id := range f.seats {
		out = append(out, id)
		if len(out) == n {
			break
		}
	}
	return out
}

type fakeShowtimeService struct {
	showtimes map[uuid.UUID]*catalog.Showtime
}

func (f *fakeShowtimeService) GetShowtime(ctx context.Context, id uuid.UUID) (*catalog.Showtime, error) {
	showtime, ok := f.showtimes[id]
	if !ok {
		return nil, catalog.ErrShowtimeNotFound
	}
	return showtime, nil
}

type bookingFixture struct {
	repo       *fakeRepository
	seats      *fakeSeatService
	service    Service
	showtimeID uuid.UUID
	userID     uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	theaterID := uuid.New()
	showtimeID := uuid.New()

	seatSvc := newFakeSeatService(theaterID, 10)
	showtimeSvc := &fakeShowtimeService{showtimes: map[uuid.UUID]*catalog.Showtime{
		showtimeID: {
			ID:             showtimeID,
			TheaterID:      theaterID,
			Price:          12.50,
			AvailableSeats: 10,
			IsActive:       true,
		},
	}}

	repo := newFakeRepository()
	repo.available[showtimeID] = 10

	cfg := config.BookingConfig{
		PaymentDeadline: 15 * time.Minute,
		SweepBatchSize:  100,
	}

	svc := NewService(repo, seatSvc, showtimeSvc, nil, cfg, logger.New())

	return &bookingFixture{
		repo:       repo,
		seats:      seatSvc,
		service:    svc,
		showtimeID: showtimeID,
		userID:     uuid.New(),
	}
}

func TestReserveSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending booking with deadline and total", func(t *testing.T) {
		fx := newBookingFixture(t)
		seatIDs := fx.seats.ids(2)

		before := time.Now()
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    seatIDs,
		})
		require.NoError(t, err)

		assert.Equal(t, StatusPending, booking.Status)
		assert.InDelta(t, 25.00, booking.TotalAmount, 0.001)
		assert.Len(t, booking.Seats, 2)
		assert.NotEmpty(t, booking.BookingRef)
		assert.WithinDuration(t, before.Add(15*time.Minute), booking.PaymentDeadline, 2*time.Second)
		assert.Equal(t, 8, fx.repo.availableSeats(fx.showtimeID))
	})

	t.Run("rejects empty selection", func(t *testing.T) {
		fx := newBookingFixture(t)
		_, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    nil,
		})
		assert.ErrorIs(t, err, ErrEmptySeatSelection)
	})

	t.Run("dedupes repeated seat ids", func(t *testing.T) {
		fx := newBookingFixture(t)
		seatID := fx.seats.ids(1)[0]

		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    []uuid.UUID{seatID, seatID, seatID},
		})
		require.NoError(t, err)
		assert.Len(t, booking.Seats, 1)
		assert.InDelta(t, 12.50, booking.TotalAmount, 0.001)
	})

	t.Run("rejects unknown seats", func(t *testing.T) {
		fx := newBookingFixture(t)
		_, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    []uuid.UUID{uuid.New()},
		})
		assert.ErrorIs(t, err, ErrSeatNotFound)
	})

	t.Run("rejects unknown showtime", func(t *testing.T) {
		fx := newBookingFixture(t)
		_, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: uuid.New(),
			SeatIDs:    fx.seats.ids(1),
		})
		assert.ErrorIs(t, err, ErrShowtimeNotFound)
	})

	t.Run("second booking for same seats loses", func(t *testing.T) {
		fx := newBookingFixture(t)
		seatIDs := fx.seats.ids(2)

		_, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    seatIDs,
		})
		require.NoError(t, err)

		_, err = fx.service.ReserveSeats(ctx, uuid.New(), ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    seatIDs,
		})
		require.Error(t, err)
		assert.True(t, IsSeatConflict(err))

		var conflict *SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Len(t, conflict.SeatIDs, 2)
	})

	t.Run("concurrent overlapping requests produce one winner", func(t *testing.T) {
		fx := newBookingFixture(t)
		seatIDs := fx.seats.ids(3)

		const attempts = 8
		errs := make([]error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = fx.service.ReserveSeats(ctx, uuid.New(), ReserveSeatsRequest{
					ShowtimeID: fx.showtimeID,
					SeatIDs:    seatIDs,
				})
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.True(t, IsSeatConflict(err))
			}
		}
		assert.Equal(t, 1, winners)
		assert.Equal(t, 7, fx.repo.availableSeats(fx.showtimeID))
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms pending booking", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		confirmed, err := fx.service.Confirm(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, confirmed.Status)
		assert.NotNil(t, confirmed.ConfirmationTime)
	})

	t.Run("rejects double confirm", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		_, err = fx.service.Confirm(ctx, booking.ID)
		require.NoError(t, err)

		_, err = fx.service.Confirm(ctx, booking.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rejects unknown booking", func(t *testing.T) {
		fx := newBookingFixture(t)
		_, err := fx.service.Confirm(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels pending booking and releases seats", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(2),
		})
		require.NoError(t, err)
		assert.Equal(t, 8, fx.repo.availableSeats(fx.showtimeID))

		cancelled, err := fx.service.Cancel(ctx, fx.userID, booking.ID, "Changed plans")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, "Changed plans", cancelled.CancellationReason)
		assert.Equal(t, 10, fx.repo.availableSeats(fx.showtimeID))
	})

	t.Run("seats are rebookable after cancellation", func(t *testing.T) {
		fx := newBookingFixture(t)
		seatIDs := fx.seats.ids(2)

		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    seatIDs,
		})
		require.NoError(t, err)

		_, err = fx.service.Cancel(ctx, fx.userID, booking.ID, "Changed plans")
		require.NoError(t, err)

		_, err = fx.service.ReserveSeats(ctx, uuid.New(), ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    seatIDs,
		})
		assert.NoError(t, err)
	})

	t.Run("rejects cancelling someone else's booking", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		_, err = fx.service.Cancel(ctx, uuid.New(), booking.ID, "not mine")
		assert.ErrorIs(t, err, ErrNotBookingOwner)
	})

	t.Run("second cancel fails cleanly", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(2),
		})
		require.NoError(t, err)

		_, err = fx.service.Cancel(ctx, fx.userID, booking.ID, "first")
		require.NoError(t, err)

		_, err = fx.service.Cancel(ctx, fx.userID, booking.ID, "second")
		assert.ErrorIs(t, err, ErrInvalidTransition)

		// Seats are returned exactly once.
		assert.Equal(t, 10, fx.repo.availableSeats(fx.showtimeID))
	})

	t.Run("refund still recorded when confirm lands mid-cancel", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		// A payment webhook confirms the booking after Cancel reads it but
		// before the release transaction runs.
		raced := &confirmMidCancelRepository{fakeRepository: fx.repo}
		svc := NewService(raced, fx.seats, nil, nil, config.BookingConfig{}, logger.New())

		refunds := &recordingRefundProcessor{}
		svc.(RefundWirer).SetRefundProcessor(refunds)

		cancelled, err := svc.Cancel(ctx, fx.userID, booking.ID, "Changed plans")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, []uuid.UUID{booking.ID}, refunds.calls)
	})

	t.Run("confirmed booking cancels and records refund", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		_, err = fx.service.Confirm(ctx, booking.ID)
		require.NoError(t, err)

		refunds := &recordingRefundProcessor{}
		fx.service.(RefundWirer).SetRefundProcessor(refunds)

		cancelled, err := fx.service.Cancel(ctx, fx.userID, booking.ID, "Plans changed")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, []uuid.UUID{booking.ID}, refunds.calls)
	})
}

// confirmMidCancelRepository confirms a pending booking immediately after it
// is read, simulating a payment webhook winning the race against a cancel.
type confirmMidCancelRepository struct {
	*fakeRepository
	confirmed bool
}

func (r *confirmMidCancelRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := r.fakeRepository.GetBookingByID(ctx, id)
	if err == nil && !r.confirmed && booking.Status == StatusPending {
		r.confirmed = true
		if cErr := r.fakeRepository.ConfirmBooking(ctx, id, time.Now()); cErr != nil {
			return nil, cErr
		}
	}
	return booking, err
}

type recordingRefundProcessor struct {
	calls []uuid.UUID
}

func (r *recordingRefundProcessor) RefundForCancelledBooking(ctx context.Context, bookingID uuid.UUID, reason string) error {
	r.calls = append(r.calls, bookingID)
	return nil
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("expires overdue pending bookings once", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(2),
		})
		require.NoError(t, err)

		// Backdate the deadline directly in the fake.
		fx.repo.mu.Lock()
		fx.repo.bookings[booking.ID].PaymentDeadline = time.Now().Add(-time.Minute)
		fx.repo.mu.Unlock()

		expired, err := fx.service.SweepExpired(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Equal(t, 10, fx.repo.availableSeats(fx.showtimeID))

		got, err := fx.repo.GetBookingByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusExpired, got.Status)

		// Second sweep finds nothing.
		expired, err = fx.service.SweepExpired(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, expired)
	})

	t.Run("skips bookings confirmed before the sweep commits", func(t *testing.T) {
		fx := newBookingFixture(t)
		booking, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		fx.repo.mu.Lock()
		fx.repo.bookings[booking.ID].PaymentDeadline = time.Now().Add(-time.Minute)
		fx.repo.mu.Unlock()

		// Payment beats the sweeper.
		_, err = fx.service.Confirm(ctx, booking.ID)
		require.NoError(t, err)

		expired, err := fx.service.SweepExpired(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, expired)

		got, err := fx.repo.GetBookingByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, got.Status)
	})

	t.Run("leaves future deadlines alone", func(t *testing.T) {
		fx := newBookingFixture(t)
		_, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
			ShowtimeID: fx.showtimeID,
			SeatIDs:    fx.seats.ids(1),
		})
		require.NoError(t, err)

		expired, err := fx.service.SweepExpired(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, expired)
	})
}

func TestGetSeatMap(t *testing.T) {
	ctx := context.Background()

	fx := newBookingFixture(t)
	reserved := fx.seats.ids(2)
	_, err := fx.service.ReserveSeats(ctx, fx.userID, ReserveSeatsRequest{
		ShowtimeID: fx.showtimeID,
		SeatIDs:    reserved,
	})
	require.NoError(t, err)

	seatMap, err := fx.service.GetSeatMap(ctx, fx.showtimeID)
	require.NoError(t, err)
	require.Len(t, seatMap, 10)

	booked := 0
	for _, seat := range seatMap {
		if seat.Booked {
			booked++
		}
	}
	assert.Equal(t, 2, booked)
}
