package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

// Timestamps are stored as UTC RFC3339 so lexical comparison in SQL
// matches chronological order; the reader re-anchors them to the service
// time zone.
const timeFormat = time.RFC3339

// InsertPings writes pings with INSERT OR IGNORE semantics on
// (trip_id, stop_id, recorded_at). Returns (inserted, duplicates).
func (db *DB) InsertPings(ctx context.Context, pings []otp.Ping) (int, int, error) {
	if len(pings) == 0 {
		return 0, 0, nil
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO train_locations (trip_id, stop_id, vehicle_lat, vehicle_lon, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range pings {
		res, err := stmt.ExecContext(ctx, p.TripID, p.StopID, p.Lat, p.Lon, p.RecordedAt.UTC().Format(timeFormat))
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert ping trip=%s stop=%s: %w", p.TripID, p.StopID, err)
		}
		rows, _ := res.RowsAffected()
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit pings: %w", err)
	}
	return inserted, len(pings) - inserted, nil
}

// LoadPings reads all pings recorded at or after since, with timestamps
// re-anchored to loc. Rows with malformed timestamps are dropped with a
// logged diagnostic rather than failing the load.
func (db *DB) LoadPings(ctx context.Context, since time.Time, loc *time.Location) ([]otp.Ping, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT trip_id, stop_id, vehicle_lat, vehicle_lon, recorded_at
		FROM train_locations
		WHERE recorded_at >= ?
		ORDER BY recorded_at
	`, since.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	var pings []otp.Ping
	dropped := 0
	for rows.Next() {
		var p otp.Ping
		var recordedAt string
		if err := rows.Scan(&p.TripID, &p.StopID, &p.Lat, &p.Lon, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ping row: %w", err)
		}

		ts, err := time.Parse(timeFormat, recordedAt)
		if err != nil {
			dropped++
			log.Printf("Store: dropping ping with malformed timestamp trip=%s stop=%s recorded_at=%q",
				p.TripID, p.StopID, recordedAt)
			continue
		}
		p.RecordedAt = ts.In(loc)
		pings = append(pings, p)
	}

	if dropped > 0 {
		log.Printf("Store: dropped %d pings with malformed timestamps", dropped)
	}

	return pings, rows.Err()
}

// CleanupPings deletes pings older than the retention duration
func (db *DB) CleanupPings(ctx context.Context, retention time.Duration) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	cutoff := time.Now().Add(-retention).UTC().Format(timeFormat)
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM train_locations WHERE recorded_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup pings: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		log.Printf("Cleanup: deleted %d pings older than %v", rows, retention)
	}
	return nil
}
