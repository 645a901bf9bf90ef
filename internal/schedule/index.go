// Package schedule provides a normalized view of the static GTFS schedule
// keyed by (trip, stop), with correct handling of service times that run
// past midnight.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/gtfs"
)

// ErrScheduleNotFound is returned when no (trip, stop) entry exists in the
// schedule. Callers are expected to skip the offending pings rather than
// abort the run.
var ErrScheduleNotFound = errors.New("schedule entry not found")

// StopInfo holds the static reference data for a stop
type StopInfo struct {
	StopID        string
	Name          string
	Lat           float64
	Lon           float64
	ParentStation string
}

// TripInfo holds the static reference data for a trip, with the route name
// already resolved from the routes table
type TripInfo struct {
	TripID    string
	Headsign  string
	RouteName string
}

type tripStopKey struct {
	tripID string
	stopID string
}

// Index is an immutable lookup over one schedule version. Build it once per
// version with New; it is safe for concurrent reads.
type Index struct {
	arrivals map[tripStopKey]string // raw GTFS arrival time, hour may be >= 24
	stops    map[string]StopInfo
	trips    map[string]TripInfo
}

// New builds an Index from parsed GTFS data. Stops whose stop_id is not
// purely numeric are non-revenue placeholders in the Caltrain feed and are
// filtered out, along with every stop_times row referencing them.
func New(data *gtfs.Data) *Index {
	idx := &Index{
		arrivals: make(map[tripStopKey]string, len(data.StopTimes)),
		stops:    make(map[string]StopInfo, len(data.Stops)),
		trips:    make(map[string]TripInfo, len(data.Trips)),
	}

	routeNames := make(map[string]string, len(data.Routes))
	for _, r := range data.Routes {
		name := r.RouteLongName
		if name == "" {
			name = r.RouteShortName
		}
		routeNames[r.RouteID] = name
	}

	for _, t := range data.Trips {
		idx.trips[t.TripID] = TripInfo{
			TripID:    t.TripID,
			Headsign:  t.TripHeadsign,
			RouteName: routeNames[t.RouteID],
		}
	}

	for _, s := range data.Stops {
		if !isNumericID(s.StopID) {
			continue
		}
		idx.stops[s.StopID] = StopInfo{
			StopID:        s.StopID,
			Name:          s.StopName,
			Lat:           s.StopLat,
			Lon:           s.StopLon,
			ParentStation: s.ParentStation,
		}
	}

	for _, st := range data.StopTimes {
		if _, ok := idx.stops[st.StopID]; !ok {
			continue
		}
		if st.ArrivalTime == "" {
			continue
		}
		idx.arrivals[tripStopKey{st.TripID, st.StopID}] = st.ArrivalTime
	}

	return idx
}

// Len returns the number of indexed (trip, stop) schedule entries
func (idx *Index) Len() int {
	return len(idx.arrivals)
}

// Stop returns the static reference data for a stop
func (idx *Index) Stop(stopID string) (StopInfo, bool) {
	s, ok := idx.stops[stopID]
	return s, ok
}

// Trip returns the static reference data for a trip
func (idx *Index) Trip(tripID string) (TripInfo, bool) {
	t, ok := idx.trips[tripID]
	return t, ok
}

// Stops returns all indexed stops keyed by stop_id
func (idx *Index) Stops() map[string]StopInfo {
	return idx.stops
}

// HasEntry reports whether a (trip, stop) pair has a scheduled arrival
func (idx *Index) HasEntry(tripID, stopID string) bool {
	_, ok := idx.arrivals[tripStopKey{tripID, stopID}]
	return ok
}

// ScheduledInstant resolves the scheduled arrival for (tripID, stopID) on
// serviceDate to an absolute timestamp. The raw schedule time is applied as
// a duration from the service day's local midnight, so an entry of
// "25:10:00" on 2024-01-01 lands at 01:10 on 2024-01-02. Never computed
// with modulo-24 wraparound: that would shift past-midnight arrivals a full
// day early and corrupt every delay derived from them.
func (idx *Index) ScheduledInstant(tripID, stopID string, serviceDate time.Time) (time.Time, error) {
	raw, ok := idx.arrivals[tripStopKey{tripID, stopID}]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: trip=%s stop=%s", ErrScheduleNotFound, tripID, stopID)
	}

	h, m, s, err := ParseTimeOfDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("trip=%s stop=%s: %w", tripID, stopID, err)
	}

	midnight := time.Date(serviceDate.Year(), serviceDate.Month(), serviceDate.Day(),
		0, 0, 0, 0, serviceDate.Location())
	offset := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	return midnight.Add(offset), nil
}

// ScheduledArrival resolves the scheduled arrival for (tripID, stopID)
// against the calendar date the train was observed on. Past-midnight
// entries belong to the previous service day, so a "25:10:00" entry
// observed at 01:15 on 2024-01-02 resolves to 01:10 that same day, not
// 01:10 on the 3rd. Use this when the caller only knows the arrival's
// calendar date; ScheduledInstant is for callers holding the service day
// itself.
func (idx *Index) ScheduledArrival(tripID, stopID string, arrivalDate time.Time) (time.Time, error) {
	raw, ok := idx.arrivals[tripStopKey{tripID, stopID}]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: trip=%s stop=%s", ErrScheduleNotFound, tripID, stopID)
	}

	h, _, _, err := ParseTimeOfDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("trip=%s stop=%s: %w", tripID, stopID, err)
	}

	if h >= 24 {
		arrivalDate = arrivalDate.AddDate(0, 0, -1)
	}
	return idx.ScheduledInstant(tripID, stopID, arrivalDate)
}

// ParseTimeOfDay splits a GTFS HH:MM:SS string into its components. Hours
// of 24 and above are preserved: they encode service past midnight and
// must stay an offset from the service day.
func ParseTimeOfDay(raw string) (hour, minute, second int, err error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return 0, 0, 0, fmt.Errorf("malformed time %q", raw)
	}

	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 {
		return 0, 0, 0, fmt.Errorf("malformed time %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, 0, fmt.Errorf("malformed time %q", raw)
	}
	if len(parts) > 2 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, 0, 0, fmt.Errorf("malformed time %q", raw)
		}
	}
	return hour, minute, second, nil
}

// NormalizeTimeOfDay wraps a GTFS time into the 0-23 hour range for
// human-readable output. Display only: delay arithmetic must go through
// ScheduledInstant instead.
func NormalizeTimeOfDay(raw string) string {
	h, m, s, err := ParseTimeOfDay(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%02d:%02d:%02d", h%24, m, s)
}

func isNumericID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
