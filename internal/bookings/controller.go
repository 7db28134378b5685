package bookings

import (
	"errors"
	"net/http"
	"strconv"

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

// ReserveSeats handles POST /api/v1/bookings
func (c *Controller) ReserveSeats(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req ReserveSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.ReserveSeats(ctx.Request.Context(), userID, req)
	if err != nil {
		c.respondReserveError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats reserved, complete payment before the deadline", booking.ToResponse(), nil)
}

func (c *Controller) respondReserveError(ctx *gin.Context, err error) {
	var conflict *SeatConflictError
	switch {
	case errors.As(err, &conflict):
		seatIDs := make([]string, len(conflict.SeatIDs))
		for i, id := range conflict.SeatIDs {
			seatIDs[i] = id.String()
		}
		response.RespondJSON(ctx, "error", http.StatusConflict, "Some seats are no longer available", gin.H{
			"conflicting_seat_ids": seatIDs,
		}, nil)
	case errors.Is(err, ErrShowtimeNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Showtime not found", nil, nil)
	case errors.Is(err, ErrShowtimeInactive):
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Showtime is not open for booking", nil, nil)
	case errors.Is(err, ErrEmptySeatSelection),
		errors.Is(err, ErrSeatNotFound),
		errors.Is(err, ErrSeatInactive),
		errors.Is(err, ErrSeatWrongTheater):
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, err.Error(), nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to reserve seats", nil, err.Error())
	}
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
		case errors.Is(err, ErrNotBookingOwner):
			// Hide other users' bookings entirely.
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get booking", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking.ToResponse(), nil)
}

// GetUserBookings handles GET /api/v1/users/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	bookings, err := c.service.GetUserBookings(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list bookings", nil, err.Error())
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, bookings[i].ToResponse())
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", gin.H{
		"bookings": responses,
		"count":    len(responses),
	}, nil)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	var req CancelBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "Cancelled by user"
	}

	booking, err := c.service.Cancel(ctx.Request.Context(), userID, bookingID, reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrNotBookingOwner):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
		case errors.Is(err, ErrInvalidTransition):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Booking can no longer be cancelled", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to cancel booking", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", booking.ToResponse(), nil)
}

// GetSeatMap handles GET /api/v1/showtimes/:id/seats
func (c *Controller) GetSeatMap(ctx *gin.Context) {
	showtimeID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid showtime ID", nil, nil)
		return
	}

	seatMap, err := c.service.GetSeatMap(ctx.Request.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, ErrShowtimeNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Showtime not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get seat map", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat map retrieved successfully", gin.H{
		"seats": seatMap,
		"count": len(seatMap),
	}, nil)
}

// GetBookedSeats handles GET /api/v1/showtimes/:id/booked-seats
func (c *Controller) GetBookedSeats(ctx *gin.Context) {
	showtimeID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid showtime ID", nil, nil)
		return
	}

	seatIDs, err := c.service.GetBookedSeatIDs(ctx.Request.Context(), showtimeID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get booked seats", nil, err.Error())
		return
	}

	ids := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		ids[i] = id.String()
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booked seats retrieved successfully", gin.H{
		"seat_ids": ids,
		"count":    len(ids),
	}, nil)
}

// currentUserID pulls the authenticated user id set by the JWT middleware.
func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
