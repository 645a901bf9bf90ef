// Package export ships derived delay records to a Postgres database for
// long-term retention and external reporting. The export target is
// optional; the SQLite store remains the operational source of truth.
package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS delay_records (
	trip_id        TEXT NOT NULL,
	stop_id        TEXT NOT NULL,
	service_date   DATE NOT NULL,
	run_id         TEXT NOT NULL,
	trip_headsign  TEXT,
	route_name     TEXT,
	stop_name      TEXT,
	parent_station TEXT,
	scheduled_at   TIMESTAMPTZ NOT NULL,
	arrival_at     TIMESTAMPTZ NOT NULL,
	delay_minutes  DOUBLE PRECISION NOT NULL,
	is_delayed     BOOLEAN NOT NULL,
	severity       TEXT NOT NULL,
	commute_period TEXT NOT NULL,
	exported_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (trip_id, stop_id, service_date)
)`

// Exporter writes delay records to Postgres
type Exporter struct {
	pool *pgxpool.Pool
}

// NewExporter connects to the export database and ensures the target table
func NewExporter(ctx context.Context, databaseURL string) (*Exporter, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure delay_records table: %w", err)
	}

	return &Exporter{pool: pool}, nil
}

// Close releases the connection pool
func (e *Exporter) Close() {
	e.pool.Close()
}

// ExportDelayRecords upserts the run's records keyed by
// (trip_id, stop_id, service_date). Re-exporting a recomputed run
// overwrites prior values for the same groups.
func (e *Exporter) ExportDelayRecords(ctx context.Context, result *otp.Result) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO delay_records (
			trip_id, stop_id, service_date, run_id, trip_headsign, route_name,
			stop_name, parent_station, scheduled_at, arrival_at,
			delay_minutes, is_delayed, severity, commute_period
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (trip_id, stop_id, service_date) DO UPDATE SET
			run_id = excluded.run_id,
			trip_headsign = excluded.trip_headsign,
			route_name = excluded.route_name,
			stop_name = excluded.stop_name,
			parent_station = excluded.parent_station,
			scheduled_at = excluded.scheduled_at,
			arrival_at = excluded.arrival_at,
			delay_minutes = excluded.delay_minutes,
			is_delayed = excluded.is_delayed,
			severity = excluded.severity,
			commute_period = excluded.commute_period,
			exported_at = now()
	`

	start := time.Now()
	for _, r := range result.Records {
		_, err := tx.Exec(ctx, upsert,
			r.TripID, r.StopID, r.ServiceDate, result.RunID, r.TripHeadsign, r.RouteName,
			r.StopName, r.ParentStation,
			r.ScheduledAt, r.ArrivalAt, r.DelayMinutes, r.IsDelayed,
			string(r.Severity), string(r.CommutePeriod),
		)
		if err != nil {
			return fmt.Errorf("failed to export record trip=%s stop=%s: %w", r.TripID, r.StopID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}

	log.Printf("Exported %d delay records to Postgres in %v", len(result.Records), time.Since(start).Round(time.Millisecond))
	return nil
}
