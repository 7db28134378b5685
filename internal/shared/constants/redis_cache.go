package constants

import "time"

// Redis cache keys and TTL fallbacks.
// Pattern: cinebook:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "cinebook"
)

// Catalog cache keys
const (
	CACHE_KEY_MOVIES_LIST        = CACHE_PREFIX + ":catalog:movies"
	CACHE_KEY_SHOWTIMES_BY_MOVIE = CACHE_PREFIX + ":catalog:showtimes:movie:" // + movie-id
)

// Seat inventory cache keys
const (
	CACHE_KEY_SEAT_MAP = CACHE_PREFIX + ":seats:theater:" // + theater-id
)

// Fallback TTLs; the configured values in RedisConfig win when set.
const (
	TTL_MOVIES_LIST = 1 * time.Hour
	TTL_SHOWTIMES   = 5 * time.Minute
	TTL_SEAT_MAP    = 1 * time.Hour
)

// BuildShowtimesByMovieKey constructs the showtime listing key for a movie
func BuildShowtimesByMovieKey(movieID string) string {
	return CACHE_KEY_SHOWTIMES_BY_MOVIE + movieID
}

// BuildSeatMapKey constructs the seat layout key for a theater
func BuildSeatMapKey(theaterID string) string {
	return CACHE_KEY_SEAT_MAP + theaterID
}
