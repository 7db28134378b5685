package seats

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

// ListTheaterSeats handles GET /api/v1/theaters/:id/seats
func (c *Controller) ListTheaterSeats(ctx *gin.Context) {
	theaterID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid theater ID", nil, nil)
		return
	}

	seatList, err := c.service.ListSeats(ctx.Request.Context(), theaterID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", gin.H{
		"seats": seatList,
		"count": len(seatList),
	}, nil)
}

// UpdateSeat handles PATCH /api/v1/seats/:id (admin)
func (c *Controller) UpdateSeat(ctx *gin.Context) {
	seatID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat ID", nil, nil)
		return
	}

	var req UpdateSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	seat, err := c.service.UpdateSeat(ctx.Request.Context(), seatID, req)
	if err != nil {
		if errors.Is(err, ErrSeatNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Seat not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update seat", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat updated successfully", seat, nil)
}
