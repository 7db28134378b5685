package routes

import (
	"net/http"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/catalog"
	"cinebook/internal/payments"
	"cinebook/internal/seats"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/pkg/cache"
	"cinebook/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher bookings.EventPublisher

	// Built during SetupRoutes, exposed for background jobs.
	bookingService bookings.Service
}

// NewRouter creates a new router instance. publisher may be nil when Kafka
// notifications are disabled.
func NewRouter(cfg *config.Config, db *database.DB, publisher bookings.EventPublisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
}

// BookingService returns the booking service built by SetupRoutes. The expiry
// sweeper runs against the same instance the HTTP handlers use.
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		cacheService := cache.NewService(r.db.GetRedisClient())
		appLogger := logger.GetDefault()

		// Catalog: movies, theaters, showtimes.
		catalogRepo := catalog.NewRepository(r.db.GetPostgreSQL())
		catalogService := catalog.NewService(catalogRepo, cacheService, r.config.Redis.ShowtimeTTL)
		catalog.SetupCatalogRoutes(api, catalog.NewController(catalogService))

		// Seat inventory.
		seatRepo := seats.NewRepository(r.db.GetPostgreSQL())
		seatService := seats.NewService(seatRepo, cacheService, r.config.Redis.SeatMapTTL)
		seats.SetupSeatRoutes(api, seats.NewController(seatService))

		// Booking lifecycle.
		bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
		bookingService := bookings.NewService(bookingRepo, seatService, catalogService, r.publisher, r.config.Booking, appLogger)
		bookings.SetupBookingRoutes(api, bookings.NewController(bookingService))
		r.bookingService = bookingService

		// Payment orchestration; the refund edge back into bookings is wired
		// late to keep construction acyclic.
		paymentRepo := payments.NewRepository(r.db.GetPostgreSQL())
		paymentService := payments.NewService(paymentRepo, bookingService, payments.NewMockGateway(), r.config.Booking, appLogger)
		payments.SetupPaymentRoutes(api, payments.NewController(paymentService))

		if wirer, ok := bookingService.(bookings.RefundWirer); ok {
			wirer.SetRefundProcessor(paymentService)
		}
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "cinebook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "cinebook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
