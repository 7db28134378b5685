package main

import (
	"context"
	"flag"
	"log"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/seats"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"

	"github.com/joho/godotenv"
)

// Seeds a development database with movies, theaters with their seat grids,
// and a week of showtimes.
func main() {
	clean := flag.Bool("clean", false, "truncate booking and catalog tables before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	pg := db.GetPostgreSQL()

	if *clean {
		log.Println("Truncating tables...")
		tables := []string{"payments", "booking_seats", "bookings", "showtimes", "seats", "theaters", "movies"}
		for _, table := range tables {
			if err := pg.Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
				log.Fatalf("failed to truncate %s: %v", table, err)
			}
		}
	}

	catalogRepo := catalog.NewRepository(pg)
	catalogService := catalog.NewService(catalogRepo, nil, 0)
	seatRepo := seats.NewRepository(pg)
	seatService := seats.NewService(seatRepo, nil, 0)

	movies := []catalog.Movie{
		{Title: "The Long Night", Genre: "Thriller", DurationMinutes: 128, Rating: "PG-13", ReleaseDate: time.Now().AddDate(0, -1, 0), IsActive: true},
		{Title: "Paper Planes", Genre: "Drama", DurationMinutes: 104, Rating: "PG", ReleaseDate: time.Now().AddDate(0, 0, -10), IsActive: true},
		{Title: "Orbital Decay", Genre: "Sci-Fi", DurationMinutes: 141, Rating: "R", ReleaseDate: time.Now(), IsActive: true},
	}
	for i := range movies {
		if err := pg.WithContext(ctx).Create(&movies[i]).Error; err != nil {
			log.Fatalf("failed to create movie %q: %v", movies[i].Title, err)
		}
	}
	log.Printf("Created %d movies", len(movies))

	theaterSpecs := []catalog.CreateTheaterRequest{
		{Name: "Screen 1", Location: "Downtown", Rows: 8, SeatsPerRow: 12},
		{Name: "Screen 2", Location: "Downtown", Rows: 6, SeatsPerRow: 10},
	}

	var theaters []*catalog.Theater
	for _, spec := range theaterSpecs {
		theater, err := catalogService.CreateTheater(ctx, spec)
		if err != nil {
			log.Fatalf("failed to create theater %q: %v", spec.Name, err)
		}
		if _, err := seatService.GenerateTheaterSeats(ctx, theater.ID, spec.Rows, spec.SeatsPerRow); err != nil {
			log.Fatalf("failed to generate seats for %q: %v", spec.Name, err)
		}
		theaters = append(theaters, theater)
		log.Printf("Created theater %q with %d seats", theater.Name, theater.TotalSeats)
	}

	// A week of showtimes, two slots per theater per day.
	slots := []string{"15:00", "20:30"}
	created := 0
	for day := 0; day < 7; day++ {
		date := time.Now().AddDate(0, 0, day).Truncate(24 * time.Hour)
		for ti, theater := range theaters {
			for si, slot := range slots {
				movie := movies[(day+ti+si)%len(movies)]
				_, err := catalogService.CreateShowtime(ctx, catalog.CreateShowtimeRequest{
					MovieID:   movie.ID,
					TheaterID: theater.ID,
					ShowDate:  date,
					ShowTime:  slot,
					Price:     12.50,
				})
				if err != nil {
					log.Fatalf("failed to create showtime: %v", err)
				}
				created++
			}
		}
	}
	log.Printf("Created %d showtimes", created)

	log.Println("Seed completed")
}
