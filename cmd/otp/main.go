package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/config"
	"github.com/Jsakkos/caltrain-tracker/internal/export"
	"github.com/Jsakkos/caltrain-tracker/internal/otp"
	"github.com/Jsakkos/caltrain-tracker/internal/schedule"
	"github.com/Jsakkos/caltrain-tracker/internal/store"
)

func main() {
	once := flag.Bool("once", false, "Run one processing cycle and exit")
	windowDays := flag.Int("days", 90, "How many days of pings to process")
	flag.Parse()

	cfg := config.Load()

	db, err := store.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	var exporter *export.Exporter
	if cfg.PostgresURL != "" {
		exporter, err = export.NewExporter(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres export target: %v", err)
		}
		defer exporter.Close()
	}

	if *once {
		if err := processOnce(ctx, db, exporter, cfg, *windowDays); err != nil {
			log.Fatalf("Processing failed: %v", err)
		}
		return
	}

	if err := processOnce(ctx, db, exporter, cfg, *windowDays); err != nil {
		log.Printf("Processing failed: %v", err)
	}

	go func() {
		ticker := time.NewTicker(cfg.ProcessInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := processOnce(ctx, db, exporter, cfg, *windowDays); err != nil {
					log.Printf("Processing failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("Processor running (every %v)", cfg.ProcessInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()
}

// processOnce loads the stored pings and schedule, resolves and classifies
// arrivals, and replaces the published delay records. A run that yields no
// classified arrivals leaves the previous records in place.
func processOnce(ctx context.Context, db *store.DB, exporter *export.Exporter, cfg *config.Config, windowDays int) error {
	start := time.Now()

	data, err := db.LoadSchedule(ctx)
	if err != nil {
		return err
	}
	idx := schedule.New(data)

	since := time.Now().In(cfg.Timezone).AddDate(0, 0, -windowDays)
	pings, err := db.LoadPings(ctx, since, cfg.Timezone)
	if err != nil {
		return err
	}

	result, err := otp.Run(pings, idx, cfg.Options)
	if errors.Is(err, otp.ErrNoData) {
		log.Printf("No classifiable data in the last %d days; keeping previous records", windowDays)
		return nil
	}
	if err != nil {
		return err
	}

	if err := db.ReplaceDelayRecords(ctx, result, len(pings)); err != nil {
		return err
	}

	if exporter != nil {
		if err := exporter.ExportDelayRecords(ctx, result); err != nil {
			log.Printf("Postgres export failed: %v", err)
		}
	}

	log.Printf("Run %s: %d pings -> %d arrivals -> %d records, OTP %.1f%% (%.2fs)",
		result.RunID, len(pings), len(result.Events), len(result.Records),
		result.Summary.OnTimePerformance, time.Since(start).Seconds())
	return nil
}
