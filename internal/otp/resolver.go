package otp

import (
	"log"
	"sort"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/geo"
	"github.com/Jsakkos/caltrain-tracker/internal/schedule"
)

// Resolver joins raw pings to the schedule and reduces each
// (trip, stop, service day) group of pings to the single minimum-distance
// observation.
type Resolver struct {
	idx *schedule.Index
}

// NewResolver creates a resolver over one schedule version
func NewResolver(idx *schedule.Index) *Resolver {
	return &Resolver{idx: idx}
}

type groupKey struct {
	tripID      string
	stopID      string
	serviceDate time.Time
}

// Resolve emits one ArrivalEvent per (trip, stop, service day) group.
// Within a group the ping with the minimum distance to the stop wins; exact
// ties go to the earliest RecordedAt. Pings whose (trip, stop) has no
// schedule entry, whose stop is unknown, or whose coordinates are invalid
// are dropped and counted, never defaulted.
//
// Polling is sparse, so the true closest-approach instant is rarely
// observed; the best available sample stands in for it.
func (r *Resolver) Resolve(pings []Ping) []ArrivalEvent {
	var skippedSchedule, skippedStop, skippedCoord int
	best := make(map[groupKey]ArrivalEvent)

	for _, p := range pings {
		if !geo.IsValidCoordinate(p.Lat, p.Lon) {
			skippedCoord++
			log.Printf("Resolver: dropping ping with invalid coordinates trip=%s stop=%s recorded_at=%s",
				p.TripID, p.StopID, p.RecordedAt.Format(time.RFC3339))
			continue
		}

		stop, ok := r.idx.Stop(p.StopID)
		if !ok {
			skippedStop++
			continue
		}

		// A pair with no scheduled time cannot produce a comparable delay
		if !r.idx.HasEntry(p.TripID, p.StopID) {
			skippedSchedule++
			continue
		}

		serviceDate := time.Date(p.RecordedAt.Year(), p.RecordedAt.Month(), p.RecordedAt.Day(),
			0, 0, 0, 0, p.RecordedAt.Location())
		key := groupKey{p.TripID, p.StopID, serviceDate}

		dist := geo.Haversine(p.Lat, p.Lon, stop.Lat, stop.Lon)
		candidate := ArrivalEvent{
			TripID:         p.TripID,
			StopID:         p.StopID,
			ServiceDate:    serviceDate,
			ArrivalAt:      p.RecordedAt,
			DistanceMeters: dist,
		}

		current, seen := best[key]
		if !seen || closerOrEarlier(candidate, current) {
			best[key] = candidate
		}
	}

	events := make([]ArrivalEvent, 0, len(best))
	for _, ev := range best {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.ServiceDate.Equal(b.ServiceDate) {
			return a.ServiceDate.Before(b.ServiceDate)
		}
		if a.TripID != b.TripID {
			return a.TripID < b.TripID
		}
		return a.StopID < b.StopID
	})

	if skippedSchedule > 0 || skippedStop > 0 || skippedCoord > 0 {
		log.Printf("Resolver: skipped %d pings without schedule entry, %d with unknown stop, %d with invalid coordinates",
			skippedSchedule, skippedStop, skippedCoord)
	}
	log.Printf("Resolver: %d pings reduced to %d arrival events", len(pings), len(events))

	return events
}

// closerOrEarlier reports whether a should replace b as the group's arrival
func closerOrEarlier(a, b ArrivalEvent) bool {
	if a.DistanceMeters != b.DistanceMeters {
		return a.DistanceMeters < b.DistanceMeters
	}
	return a.ArrivalAt.Before(b.ArrivalAt)
}
