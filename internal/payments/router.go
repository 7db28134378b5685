package payments

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures payment orchestration routes
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	{
		// Gateway callback; authenticated by the gateway's signature in a
		// real deployment, open for the mock.
		payments.POST("/webhook", controller.HandleWebhook) // POST /api/v1/payments/webhook

		authed := payments.Group("")
		authed.Use(middleware.JWTAuth())
		{
			authed.POST("", controller.StartPayment) // POST /api/v1/payments
		}
	}

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth())
	{
		bookings.GET("/:id/payment", controller.GetBookingPayment) // GET /api/v1/bookings/:id/payment
	}
}
