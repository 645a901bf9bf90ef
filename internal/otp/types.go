// Package otp implements the arrival detection and on-time-performance
// engine: it turns accumulated vehicle pings and a static schedule into one
// arrival event per (trip, stop, service day), computes and classifies the
// delay, and aggregates the results into performance statistics.
package otp

import "time"

// Ping is one observed train position associated with the stop the train is
// currently approaching. RecordedAt is local time, normalized upstream by
// the collector.
type Ping struct {
	TripID     string
	StopID     string
	Lat        float64
	Lon        float64
	RecordedAt time.Time
}

// ArrivalEvent is the single ping chosen to represent a train's closest
// approach to a stop on a service day.
type ArrivalEvent struct {
	TripID         string
	StopID         string
	ServiceDate    time.Time // local midnight of the ping's calendar date
	ArrivalAt      time.Time
	DistanceMeters float64
}

// Severity classifies a delay relative to the grace and major thresholds
type Severity string

const (
	SeverityOnTime Severity = "On Time"
	SeverityMinor  Severity = "Minor"
	SeverityMajor  Severity = "Major"
)

// CommutePeriod classifies an arrival's time of day. The weekday check
// takes precedence: weekend arrivals are never Morning or Evening.
type CommutePeriod string

const (
	PeriodMorning CommutePeriod = "Morning"
	PeriodEvening CommutePeriod = "Evening"
	PeriodWeekend CommutePeriod = "Weekend"
	PeriodOther   CommutePeriod = "Other"
)

// DelayRecord is the classified delay for one arrival event. Records are
// recomputed wholesale on every pipeline run; they are never patched.
type DelayRecord struct {
	TripID        string
	StopID        string
	TripHeadsign  string
	RouteName     string
	StopName      string
	ParentStation string
	ServiceDate   time.Time
	ScheduledAt   time.Time
	ArrivalAt     time.Time
	DelayMinutes  float64
	IsDelayed     bool
	Severity      Severity
	CommutePeriod CommutePeriod
}
