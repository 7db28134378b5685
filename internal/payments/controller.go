package payments

import (
	"errors"
	"net/http"

	"cinebook/internal/bookings"
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

// StartPayment handles POST /api/v1/payments
func (c *Controller) StartPayment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req StartPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	payment, clientSecret, err := c.service.StartPayment(ctx.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound), errors.Is(err, bookings.ErrNotBookingOwner):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
		case errors.Is(err, ErrBookingNotPayable):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Booking is not awaiting payment", nil, nil)
		case errors.Is(err, ErrInvalidMethod):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Unsupported payment method", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to start payment", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Payment started", gin.H{
		"payment":       payment.ToResponse(),
		"client_secret": clientSecret,
	}, nil)
}

// GetBookingPayment handles GET /api/v1/bookings/:id/payment
func (c *Controller) GetBookingPayment(ctx *gin.Context) {
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

	payment, err := c.service.GetBookingPayment(ctx.Request.Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound), errors.Is(err, bookings.ErrNotBookingOwner):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
		case errors.Is(err, ErrPaymentNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "No payment for this booking", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get payment", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment retrieved successfully", payment.ToResponse(), nil)
}

// HandleWebhook handles POST /api/v1/payments/webhook. The gateway callback
// is the only path that completes or fails a payment.
func (c *Controller) HandleWebhook(ctx *gin.Context) {
	var req WebhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid webhook payload", nil, err.Error())
		return
	}

	var (
		payment *Payment
		err     error
	)
	switch req.Event {
	case "payment.completed":
		payment, err = c.service.CompletePayment(ctx.Request.Context(), req.TransactionID)
	case "payment.failed":
		payment, err = c.service.FailPayment(ctx.Request.Context(), req.TransactionID, req.Reason)
	}

	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Unknown transaction", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process webhook", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Webhook processed", payment.ToResponse(), nil)
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
