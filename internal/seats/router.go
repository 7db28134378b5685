package seats

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupSeatRoutes configures seat inventory routes
func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller) {
	theaters := rg.Group("/theaters")
	{
		theaters.GET("/:id/seats", controller.ListTheaterSeats) // GET /api/v1/theaters/:id/seats
	}

	seats := rg.Group("/seats")
	seats.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		seats.PATCH("/:id", controller.UpdateSeat) // PATCH /api/v1/seats/:id
	}
}
