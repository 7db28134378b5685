package catalog

import (
	"cinebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCatalogRoutes configures movie/theater/showtime routes
func SetupCatalogRoutes(rg *gin.RouterGroup, controller *Controller) {
	movies := rg.Group("/movies")
	{
		movies.GET("", controller.ListMovies)                      // GET /api/v1/movies
		movies.GET("/:id/showtimes", controller.GetMovieShowtimes) // GET /api/v1/movies/:id/showtimes
	}

	showtimes := rg.Group("/showtimes")
	{
		showtimes.GET("/:id", controller.GetShowtime) // GET /api/v1/showtimes/:id
	}

	// Operator setup endpoints
	admin := rg.Group("")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("/theaters", controller.CreateTheater)   // POST /api/v1/theaters
		admin.POST("/showtimes", controller.CreateShowtime) // POST /api/v1/showtimes
	}
}
