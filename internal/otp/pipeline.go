package otp

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Jsakkos/caltrain-tracker/internal/config"
	"github.com/Jsakkos/caltrain-tracker/internal/schedule"
)

// ErrNoData is returned when the run has no pings or no schedule to work
// with. The caller must not publish aggregates computed over zero records;
// short-circuiting here guarantees it never sees any.
var ErrNoData = errors.New("insufficient data: no pings or schedule entries for the window")

// Result is the complete output of one pipeline run. Events and records are
// owned by the run that produced them and are replaced wholesale on the
// next run.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Events      []ArrivalEvent
	Records     []DelayRecord
	Summary     Summary
}

// Run executes the full pipeline over one materialized snapshot of pings
// plus one schedule version: resolve arrivals, classify delays, summarize.
// Synchronous and side-effect free; persistence of the result belongs to
// the caller.
func Run(pings []Ping, idx *schedule.Index, opts config.Options) (*Result, error) {
	if len(pings) == 0 || idx == nil || idx.Len() == 0 {
		return nil, ErrNoData
	}

	events := NewResolver(idx).Resolve(pings)
	if len(events) == 0 {
		return nil, ErrNoData
	}

	records := NewClassifier(idx, opts).Classify(events)
	if len(records) == 0 {
		return nil, ErrNoData
	}

	result := &Result{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Events:      events,
		Records:     records,
		Summary:     Summarize(records),
	}

	log.Printf("Pipeline run %s: %d pings -> %d events -> %d records, OTP %.1f%%",
		result.RunID, len(pings), len(events), len(records), result.Summary.OnTimePerformance)

	return result, nil
}
