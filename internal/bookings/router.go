package bookings

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures booking lifecycle routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Seat map reads are public so users can browse before logging in.
	showtimes := rg.Group("/showtimes")
	{
		showtimes.GET("/:id/seats", controller.GetSeatMap)         // GET /api/v1/showtimes/:id/seats
		showtimes.GET("/:id/booked-seats", controller.GetBookedSeats) // GET /api/v1/showtimes/:id/booked-seats
	}

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth())
	{
		bookings.POST("", controller.ReserveSeats)          // POST /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)         // GET /api/v1/bookings/:id
		bookings.POST("/:id/cancel", controller.CancelBooking) // POST /api/v1/bookings/:id/cancel
	}

	users := rg.Group("/users")
	users.Use(middleware.JWTAuth())
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}
}
