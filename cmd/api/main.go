package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Jsakkos/caltrain-tracker/internal/api"
	"github.com/Jsakkos/caltrain-tracker/internal/config"
	"github.com/Jsakkos/caltrain-tracker/internal/store"
)

func main() {
	cfg := config.Load()

	db, err := store.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	handler := api.NewDelayHandler(db, cfg.Timezone)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{getEnv("CORS_ORIGIN", "*")},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", handler.GetHealth)

	r.Get("/api/summary", handler.GetSummary)
	r.Get("/api/delays", handler.GetDelays)
	r.Get("/api/stats/daily", handler.GetDailyStats)
	r.Get("/api/stats/hourly", handler.GetHourlyStats)
	r.Get("/api/stats/commute", handler.GetCommuteStats)
	r.Get("/api/stats/stops", handler.GetStopStats)
	r.Get("/api/stats/trips", handler.GetTripStats)

	log.Printf("API server starting on :%s", cfg.APIPort)
	log.Println("Endpoints:")
	log.Println("  GET /health (with database check)")
	log.Println("  GET /api/summary")
	log.Println("  GET /api/delays")
	log.Println("  GET /api/stats/daily")
	log.Println("  GET /api/stats/hourly")
	log.Println("  GET /api/stats/commute")
	log.Println("  GET /api/stats/stops")
	log.Println("  GET /api/stats/trips")

	if err := http.ListenAndServe(":"+cfg.APIPort, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
