package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

const dateFormat = "2006-01-02"

// ReplaceDelayRecords replaces the derived delay table with the output of
// one pipeline run and records the run itself. Wholesale replacement
// mirrors the stateless recomputation model: records are never patched.
func (db *DB) ReplaceDelayRecords(ctx context.Context, result *otp.Result, pingCount int) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM delay_records"); err != nil {
		return fmt.Errorf("failed to clear delay_records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO delay_records (
			trip_id, stop_id, service_date, run_id, trip_headsign, route_name,
			stop_name, parent_station, scheduled_at, arrival_at,
			delay_minutes, is_delayed, severity, commute_period
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delay insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range result.Records {
		isDelayed := 0
		if r.IsDelayed {
			isDelayed = 1
		}
		_, err := stmt.ExecContext(ctx,
			r.TripID, r.StopID, r.ServiceDate.Format(dateFormat), result.RunID,
			r.TripHeadsign, r.RouteName, r.StopName, r.ParentStation,
			r.ScheduledAt.UTC().Format(timeFormat), r.ArrivalAt.UTC().Format(timeFormat),
			r.DelayMinutes, isDelayed, string(r.Severity), string(r.CommutePeriod),
		)
		if err != nil {
			return fmt.Errorf("failed to insert delay record trip=%s stop=%s: %w", r.TripID, r.StopID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO otp_runs (run_id, generated_at_utc, ping_count, record_count, on_time_pct)
		VALUES (?, ?, ?, ?, ?)
	`, result.RunID, result.GeneratedAt.Format(timeFormat), pingCount, len(result.Records),
		result.Summary.OnTimePerformance)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return tx.Commit()
}

// LoadDelayRecords reads delay records for service dates at or after since,
// with timestamps re-anchored to loc
func (db *DB) LoadDelayRecords(ctx context.Context, since time.Time, loc *time.Location) ([]otp.DelayRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT trip_id, stop_id, service_date, trip_headsign, route_name,
			stop_name, parent_station, scheduled_at, arrival_at,
			delay_minutes, is_delayed, severity, commute_period
		FROM delay_records
		WHERE service_date >= ?
		ORDER BY service_date, trip_id, stop_id
	`, since.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query delay records: %w", err)
	}
	defer rows.Close()

	var records []otp.DelayRecord
	for rows.Next() {
		var r otp.DelayRecord
		var serviceDate, scheduledAt, arrivalAt, severity, period string
		var isDelayed int
		if err := rows.Scan(&r.TripID, &r.StopID, &serviceDate, &r.TripHeadsign, &r.RouteName,
			&r.StopName, &r.ParentStation,
			&scheduledAt, &arrivalAt, &r.DelayMinutes, &isDelayed, &severity, &period); err != nil {
			return nil, fmt.Errorf("failed to scan delay row: %w", err)
		}

		sd, err := time.ParseInLocation(dateFormat, serviceDate, loc)
		if err != nil {
			return nil, fmt.Errorf("malformed service_date %q: %w", serviceDate, err)
		}
		sched, err := time.Parse(timeFormat, scheduledAt)
		if err != nil {
			return nil, fmt.Errorf("malformed scheduled_at %q: %w", scheduledAt, err)
		}
		arr, err := time.Parse(timeFormat, arrivalAt)
		if err != nil {
			return nil, fmt.Errorf("malformed arrival_at %q: %w", arrivalAt, err)
		}

		r.ServiceDate = sd
		r.ScheduledAt = sched.In(loc)
		r.ArrivalAt = arr.In(loc)
		r.IsDelayed = isDelayed != 0
		r.Severity = otp.Severity(severity)
		r.CommutePeriod = otp.CommutePeriod(period)
		records = append(records, r)
	}

	return records, rows.Err()
}

// LatestRun returns the metadata of the most recent pipeline run, or ok
// false if none has completed yet
func (db *DB) LatestRun(ctx context.Context) (runID string, generatedAt time.Time, ok bool, err error) {
	var generated string
	err = db.conn.QueryRowContext(ctx, `
		SELECT run_id, generated_at_utc FROM otp_runs
		ORDER BY generated_at_utc DESC LIMIT 1
	`).Scan(&runID, &generated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, fmt.Errorf("failed to query latest run: %w", err)
	}

	generatedAt, err = time.Parse(timeFormat, generated)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("malformed generated_at %q: %w", generated, err)
	}
	return runID, generatedAt, true, nil
}
