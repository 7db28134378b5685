package catalog

import (
	"errors"
	"net/http"

	"cinebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListMovies handles GET /api/v1/movies
func (c *Controller) ListMovies(ctx *gin.Context) {
	movies, err := c.service.ListMovies(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list movies", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Movies retrieved successfully", gin.H{
		"movies": movies,
		"count":  len(movies),
	}, nil)
}

// GetMovieShowtimes handles GET /api/v1/movies/:id/showtimes
func (c *Controller) GetMovieShowtimes(ctx *gin.Context) {
	movieID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid movie ID", nil, nil)
		return
	}

	showtimes, err := c.service.GetShowtimesByMovie(ctx.Request.Context(), movieID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list showtimes", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Showtimes retrieved successfully", gin.H{
		"showtimes": showtimes,
		"count":     len(showtimes),
	}, nil)
}

// GetShowtime handles GET /api/v1/showtimes/:id
func (c *Controller) GetShowtime(ctx *gin.Context) {
	showtimeID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid showtime ID", nil, nil)
		return
	}

	showtime, err := c.service.GetShowtime(ctx.Request.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, ErrShowtimeNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Showtime not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get showtime", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Showtime retrieved successfully", showtime, nil)
}

// CreateTheater handles POST /api/v1/theaters (admin)
func (c *Controller) CreateTheater(ctx *gin.Context) {
	var req CreateTheaterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	theater, err := c.service.CreateTheater(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create theater", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Theater created successfully", theater, nil)
}

// CreateShowtime handles POST /api/v1/showtimes (admin)
func (c *Controller) CreateShowtime(ctx *gin.Context) {
	var req CreateShowtimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	showtime, err := c.service.CreateShowtime(ctx.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Theater slot already taken", nil, nil)
		case errors.Is(err, ErrMovieNotFound), errors.Is(err, ErrTheaterNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create showtime", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Showtime created successfully", showtime, nil)
}
