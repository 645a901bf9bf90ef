package main

import (
	"context"
	"flag"
	"log"

	"github.com/Jsakkos/caltrain-tracker/internal/config"
	"github.com/Jsakkos/caltrain-tracker/internal/gtfs"
	"github.com/Jsakkos/caltrain-tracker/internal/store"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DatabasePath, "Path to SQLite database")
	zipPath := flag.String("gtfs", cfg.GTFSZipPath, "Path to GTFS zip file")
	flag.Parse()

	db, err := store.Connect(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	log.Printf("Parsing GTFS feed: %s", *zipPath)
	data, err := gtfs.Parse(*zipPath)
	if err != nil {
		log.Fatalf("Failed to parse GTFS feed: %v", err)
	}
	log.Printf("Parsed %d routes, %d stops, %d trips, %d stop times",
		len(data.Routes), len(data.Stops), len(data.Trips), len(data.StopTimes))

	if err := db.ReplaceSchedule(ctx, data); err != nil {
		log.Fatalf("Failed to store schedule: %v", err)
	}
	log.Println("Schedule import complete")
}
