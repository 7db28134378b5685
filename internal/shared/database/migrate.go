package database

import (
	"fmt"
	"log"

	"cinebook/internal/bookings"
	"cinebook/internal/catalog"
	"cinebook/internal/payments"
	"cinebook/internal/seats"
	"cinebook/internal/users"

	"gorm.io/gorm"
)

// Migrate runs schema migrations for all models, then applies the raw-SQL
// constraints that gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 lives in uuid-ossp.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	err := db.AutoMigrate(
		&users.User{},
		&catalog.Movie{},
		&catalog.Theater{},
		&catalog.Showtime{},
		&seats.Seat{},
		&bookings.Booking{},
		&bookings.BookingSeat{},
		&payments.Payment{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	if err := MigrateConstraints(db); err != nil {
		return fmt.Errorf("failed to migrate constraints: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}
