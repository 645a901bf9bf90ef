package otp

import (
	"sort"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/metrics"
)

// All aggregates are pure reductions over the supplied records. Each
// function de-duplicates on (trip, stop, service date) first: a scheduled
// stop legitimately appears once, and duplicates from upstream joins would
// otherwise skew every ratio.

// GroupStats is the performance of one trip or stop
type GroupStats struct {
	Key              string  `json:"key"`
	Name             string  `json:"name,omitempty"`
	Count            int     `json:"count"`
	MeanDelayMinutes float64 `json:"mean_delay_minutes"`
	OnTimePct        float64 `json:"on_time_pct"`
}

// PeriodStats is the severity breakdown for one commute period
type PeriodStats struct {
	Total         int                  `json:"total"`
	SeverityShare map[Severity]float64 `json:"severity_share"`
}

// BucketStats is the performance of one calendar date or hour of day
type BucketStats struct {
	Count            int                  `json:"count"`
	MeanDelayMinutes float64              `json:"mean_delay_minutes"`
	SeverityShare    map[Severity]float64 `json:"severity_share"`
}

// RankEntry identifies a best or worst performer by mean delay
type RankEntry struct {
	ID               string
	Name             string
	MeanDelayMinutes float64
}

// Summary is the overall performance report for a record set
type Summary struct {
	OnTimePerformance float64
	TotalTrips        int
	OnTimeTrips       int
	BestTrip          RankEntry
	WorstTrip         RankEntry
	BestStop          RankEntry
	WorstStop         RankEntry
	StartDate         time.Time
	EndDate           time.Time
}

type recordKey struct {
	tripID      string
	stopID      string
	serviceDate time.Time
}

// Dedupe removes duplicate (trip, stop, service date) records, keeping the
// first occurrence
func Dedupe(records []DelayRecord) []DelayRecord {
	seen := make(map[recordKey]bool, len(records))
	out := make([]DelayRecord, 0, len(records))
	for _, r := range records {
		key := recordKey{r.TripID, r.StopID, r.ServiceDate}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// OnTimePerformance returns the percentage of records classified On Time,
// in [0, 100]. Returns 0 for an empty set; callers guard against publishing
// that as a real figure.
func OnTimePerformance(records []DelayRecord) float64 {
	unique := Dedupe(records)
	if len(unique) == 0 {
		return 0
	}
	onTime := 0
	for _, r := range unique {
		if r.Severity == SeverityOnTime {
			onTime++
		}
	}
	return float64(onTime) / float64(len(unique)) * 100
}

// SeverityDistribution returns the percentage share of each severity
func SeverityDistribution(records []DelayRecord) map[Severity]float64 {
	unique := Dedupe(records)
	dist := make(map[Severity]float64)
	if len(unique) == 0 {
		return dist
	}
	for _, r := range unique {
		dist[r.Severity]++
	}
	for sev := range dist {
		dist[sev] = dist[sev] / float64(len(unique)) * 100
	}
	return dist
}

// ByCommutePeriod returns the severity breakdown for the Morning and
// Evening commutes. Other and Weekend arrivals stay in the full record set
// but are excluded from this particular view.
func ByCommutePeriod(records []DelayRecord) map[CommutePeriod]PeriodStats {
	unique := Dedupe(records)
	out := make(map[CommutePeriod]PeriodStats)

	for _, period := range []CommutePeriod{PeriodMorning, PeriodEvening} {
		var subset []DelayRecord
		for _, r := range unique {
			if r.CommutePeriod == period {
				subset = append(subset, r)
			}
		}
		if len(subset) == 0 {
			continue
		}
		share := make(map[Severity]float64)
		for _, r := range subset {
			share[r.Severity]++
		}
		for sev := range share {
			share[sev] = share[sev] / float64(len(subset)) * 100
		}
		out[period] = PeriodStats{Total: len(subset), SeverityShare: share}
	}

	return out
}

// ByStop returns mean delay and on-time percentage per stop, sorted by
// ascending mean delay
func ByStop(records []DelayRecord) []GroupStats {
	return groupBy(records, func(r DelayRecord) (string, string) { return r.StopID, r.StopName })
}

// ByTrip returns mean delay and on-time percentage per trip, sorted by
// ascending mean delay
func ByTrip(records []DelayRecord) []GroupStats {
	return groupBy(records, func(r DelayRecord) (string, string) { return r.TripID, r.TripHeadsign })
}

func groupBy(records []DelayRecord, keyFn func(DelayRecord) (string, string)) []GroupStats {
	unique := Dedupe(records)

	type acc struct {
		name    string
		welford metrics.WelfordState
		onTime  int
	}
	groups := make(map[string]*acc)

	for _, r := range unique {
		key, name := keyFn(r)
		g, ok := groups[key]
		if !ok {
			g = &acc{name: name}
			groups[key] = g
		}
		g.welford.Update(r.DelayMinutes)
		if r.Severity == SeverityOnTime {
			g.onTime++
		}
	}

	out := make([]GroupStats, 0, len(groups))
	for key, g := range groups {
		out = append(out, GroupStats{
			Key:              key,
			Name:             g.name,
			Count:            g.welford.GetCount(),
			MeanDelayMinutes: g.welford.GetMean(),
			OnTimePct:        float64(g.onTime) / float64(g.welford.GetCount()) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanDelayMinutes != out[j].MeanDelayMinutes {
			return out[i].MeanDelayMinutes < out[j].MeanDelayMinutes
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ByDate returns per-calendar-date performance keyed by YYYY-MM-DD
func ByDate(records []DelayRecord) map[string]BucketStats {
	return bucketBy(records, func(r DelayRecord) string {
		return r.ServiceDate.Format("2006-01-02")
	})
}

// ByHour returns per-hour-of-day performance keyed by the arrival hour
func ByHour(records []DelayRecord) map[int]BucketStats {
	byKey := bucketBy(records, func(r DelayRecord) string {
		return r.ArrivalAt.Format("15")
	})
	out := make(map[int]BucketStats, len(byKey))
	for k, v := range byKey {
		hour := (int(k[0]-'0') * 10) + int(k[1]-'0')
		out[hour] = v
	}
	return out
}

func bucketBy(records []DelayRecord, keyFn func(DelayRecord) string) map[string]BucketStats {
	unique := Dedupe(records)

	type acc struct {
		welford metrics.WelfordState
		bySev   map[Severity]float64
	}
	buckets := make(map[string]*acc)

	for _, r := range unique {
		key := keyFn(r)
		b, ok := buckets[key]
		if !ok {
			b = &acc{bySev: make(map[Severity]float64)}
			buckets[key] = b
		}
		b.welford.Update(r.DelayMinutes)
		b.bySev[r.Severity]++
	}

	out := make(map[string]BucketStats, len(buckets))
	for key, b := range buckets {
		n := float64(b.welford.GetCount())
		share := make(map[Severity]float64, len(b.bySev))
		for sev, count := range b.bySev {
			share[sev] = count / n * 100
		}
		out[key] = BucketStats{
			Count:            b.welford.GetCount(),
			MeanDelayMinutes: b.welford.GetMean(),
			SeverityShare:    share,
		}
	}
	return out
}

// Summarize builds the overall performance report: OTP%, counts, best and
// worst trip and stop by mean delay, and the covered date range.
func Summarize(records []DelayRecord) Summary {
	unique := Dedupe(records)
	if len(unique) == 0 {
		return Summary{}
	}

	onTime := 0
	start, end := unique[0].ServiceDate, unique[0].ServiceDate
	for _, r := range unique {
		if r.Severity == SeverityOnTime {
			onTime++
		}
		if r.ServiceDate.Before(start) {
			start = r.ServiceDate
		}
		if r.ServiceDate.After(end) {
			end = r.ServiceDate
		}
	}

	s := Summary{
		OnTimePerformance: float64(onTime) / float64(len(unique)) * 100,
		TotalTrips:        len(unique),
		OnTimeTrips:       onTime,
		StartDate:         start,
		EndDate:           end,
	}

	if trips := ByTrip(unique); len(trips) > 0 {
		best, worst := trips[0], trips[len(trips)-1]
		s.BestTrip = RankEntry{ID: best.Key, Name: best.Name, MeanDelayMinutes: best.MeanDelayMinutes}
		s.WorstTrip = RankEntry{ID: worst.Key, Name: worst.Name, MeanDelayMinutes: worst.MeanDelayMinutes}
	}
	if stops := ByStop(unique); len(stops) > 0 {
		best, worst := stops[0], stops[len(stops)-1]
		s.BestStop = RankEntry{ID: best.Key, Name: best.Name, MeanDelayMinutes: best.MeanDelayMinutes}
		s.WorstStop = RankEntry{ID: worst.Key, Name: worst.Name, MeanDelayMinutes: worst.MeanDelayMinutes}
	}

	return s
}
