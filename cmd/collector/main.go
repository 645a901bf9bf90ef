package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/config"
	"github.com/Jsakkos/caltrain-tracker/internal/metrics"
	"github.com/Jsakkos/caltrain-tracker/internal/realtime/gtfsrt"
	"github.com/Jsakkos/caltrain-tracker/internal/store"
)

func main() {
	log.Println("Starting vehicle position collector...")

	cfg := config.Load()
	log.Printf("Config loaded: poll_interval=%v, retention=%v", cfg.PollInterval, cfg.PingRetention)

	db, err := store.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Database initialized")

	client := gtfsrt.NewClient(cfg.VehiclePositionsURL, cfg.Timezone)
	col := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		go col.Serve(cfg.MetricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial poll immediately
	pollOnce(ctx, client, db, col)

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pollOnce(ctx, client, db, col)
			case <-ctx.Done():
				log.Println("Polling loop stopped")
				return
			}
		}
	}()

	// Daily retention cleanup
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := db.CleanupPings(ctx, cfg.PingRetention); err != nil {
					log.Printf("Cleanup failed: %v", err)
				}
			case <-ctx.Done():
				log.Println("Cleanup loop stopped")
				return
			}
		}
	}()

	log.Printf("Collector running (poll every %v, retain %v)", cfg.PollInterval, cfg.PingRetention)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	// Give goroutines time to finish
	time.Sleep(100 * time.Millisecond)
	log.Println("Goodbye!")
}

// pollOnce fetches the vehicle position feed and stores the resulting pings
func pollOnce(ctx context.Context, client *gtfsrt.Client, db *store.DB, col *metrics.Collector) {
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pings, skipped, err := client.FetchPings(fetchCtx)
	if err != nil {
		log.Printf("Poll failed: %v", err)
		col.ObservePoll(start, err)
		return
	}
	col.PingsSkipped.Add(float64(skipped))

	inserted, duplicates, err := db.InsertPings(ctx, pings)
	if err != nil {
		log.Printf("Failed to store pings: %v", err)
		col.ObservePoll(start, err)
		return
	}
	col.PingsStored.Add(float64(inserted))
	col.PingsDuplicate.Add(float64(duplicates))
	col.ObservePoll(start, nil)

	log.Printf("Poll complete: %d pings stored, %d duplicates, %d entities skipped (%.2fs)",
		inserted, duplicates, skipped, time.Since(start).Seconds())
}
