package store

import (
	"context"
	"fmt"
	"log"

	"github.com/Jsakkos/caltrain-tracker/internal/gtfs"
)

// ReplaceSchedule replaces the static schedule tables wholesale with a new
// GTFS version, in one transaction.
func (db *DB) ReplaceSchedule(ctx context.Context, data *gtfs.Data) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stops", "routes", "trips", "stop_times"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	stopStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stops (stop_id, stop_code, stop_name, stop_lat, stop_lon, location_type, parent_station)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stops insert: %w", err)
	}
	defer stopStmt.Close()
	for _, s := range data.Stops {
		if _, err := stopStmt.ExecContext(ctx, s.StopID, s.StopCode, s.StopName, s.StopLat, s.StopLon, s.LocationType, s.ParentStation); err != nil {
			return fmt.Errorf("failed to insert stop %s: %w", s.StopID, err)
		}
	}

	routeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name, route_type)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare routes insert: %w", err)
	}
	defer routeStmt.Close()
	for _, r := range data.Routes {
		if _, err := routeStmt.ExecContext(ctx, r.RouteID, r.AgencyID, r.RouteShortName, r.RouteLongName, r.RouteType); err != nil {
			return fmt.Errorf("failed to insert route %s: %w", r.RouteID, err)
		}
	}

	tripStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (trip_id, route_id, service_id, trip_headsign, direction_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trips insert: %w", err)
	}
	defer tripStmt.Close()
	for _, t := range data.Trips {
		if _, err := tripStmt.ExecContext(ctx, t.TripID, t.RouteID, t.ServiceID, t.TripHeadsign, t.DirectionID); err != nil {
			return fmt.Errorf("failed to insert trip %s: %w", t.TripID, err)
		}
	}

	stStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO stop_times (trip_id, stop_id, arrival_time, departure_time, stop_sequence)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stop_times insert: %w", err)
	}
	defer stStmt.Close()
	for _, st := range data.StopTimes {
		if _, err := stStmt.ExecContext(ctx, st.TripID, st.StopID, st.ArrivalTime, st.DepartureTime, st.StopSequence); err != nil {
			return fmt.Errorf("failed to insert stop time %s/%s: %w", st.TripID, st.StopID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}

	log.Printf("Schedule replaced: %d stops, %d routes, %d trips, %d stop times",
		len(data.Stops), len(data.Routes), len(data.Trips), len(data.StopTimes))
	return nil
}

// LoadSchedule reads the static schedule tables back into GTFS data
func (db *DB) LoadSchedule(ctx context.Context) (*gtfs.Data, error) {
	data := &gtfs.Data{}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT stop_id, stop_code, stop_name, stop_lat, stop_lon, location_type, parent_station
		FROM stops
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s gtfs.Stop
		if err := rows.Scan(&s.StopID, &s.StopCode, &s.StopName, &s.StopLat, &s.StopLon, &s.LocationType, &s.ParentStation); err != nil {
			return nil, fmt.Errorf("failed to scan stop row: %w", err)
		}
		data.Stops = append(data.Stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	routeRows, err := db.conn.QueryContext(ctx, `
		SELECT route_id, agency_id, route_short_name, route_long_name, route_type
		FROM routes
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer routeRows.Close()
	for routeRows.Next() {
		var r gtfs.Route
		if err := routeRows.Scan(&r.RouteID, &r.AgencyID, &r.RouteShortName, &r.RouteLongName, &r.RouteType); err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		data.Routes = append(data.Routes, r)
	}
	if err := routeRows.Err(); err != nil {
		return nil, err
	}

	tripRows, err := db.conn.QueryContext(ctx, `
		SELECT trip_id, route_id, service_id, trip_headsign, direction_id
		FROM trips
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer tripRows.Close()
	for tripRows.Next() {
		var t gtfs.Trip
		if err := tripRows.Scan(&t.TripID, &t.RouteID, &t.ServiceID, &t.TripHeadsign, &t.DirectionID); err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		data.Trips = append(data.Trips, t)
	}
	if err := tripRows.Err(); err != nil {
		return nil, err
	}

	stRows, err := db.conn.QueryContext(ctx, `
		SELECT trip_id, stop_id, arrival_time, departure_time, stop_sequence
		FROM stop_times
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stop_times: %w", err)
	}
	defer stRows.Close()
	for stRows.Next() {
		var st gtfs.StopTime
		if err := stRows.Scan(&st.TripID, &st.StopID, &st.ArrivalTime, &st.DepartureTime, &st.StopSequence); err != nil {
			return nil, fmt.Errorf("failed to scan stop_time row: %w", err)
		}
		data.StopTimes = append(data.StopTimes, st)
	}
	if err := stRows.Err(); err != nil {
		return nil, err
	}

	return data, nil
}
