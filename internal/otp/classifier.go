package otp

import (
	"log"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/config"
	"github.com/Jsakkos/caltrain-tracker/internal/schedule"
)

// Classifier computes and labels the delay for each arrival event. It is a
// pure function of its inputs; events that cannot be classified (no
// scheduled time) are excluded rather than guessed.
type Classifier struct {
	idx  *schedule.Index
	opts config.Options
}

// NewClassifier creates a classifier with explicit thresholds
func NewClassifier(idx *schedule.Index, opts config.Options) *Classifier {
	return &Classifier{idx: idx, opts: opts}
}

// Classify produces one DelayRecord per classifiable arrival event
func (c *Classifier) Classify(events []ArrivalEvent) []DelayRecord {
	records := make([]DelayRecord, 0, len(events))
	var excluded int

	for _, ev := range events {
		rec, err := c.classifyOne(ev)
		if err != nil {
			excluded++
			log.Printf("Classifier: excluding event trip=%s stop=%s service_date=%s: %v",
				ev.TripID, ev.StopID, ev.ServiceDate.Format("2006-01-02"), err)
			continue
		}
		records = append(records, rec)
	}

	if excluded > 0 {
		log.Printf("Classifier: excluded %d of %d arrival events", excluded, len(events))
	}

	return records
}

func (c *Classifier) classifyOne(ev ArrivalEvent) (DelayRecord, error) {
	// ServiceDate is the ping's calendar date; ScheduledArrival re-anchors
	// past-midnight entries to the previous service day so the rolled-over
	// instant lands on the day the train was actually observed.
	scheduledAt, err := c.idx.ScheduledArrival(ev.TripID, ev.StopID, ev.ServiceDate)
	if err != nil {
		return DelayRecord{}, err
	}

	delay := c.SanitizeDelay(ev.ArrivalAt.Sub(scheduledAt).Minutes())

	// Severity is decided before early arrivals are floored at zero, so a
	// train 2 minutes early is simply On Time.
	severity := c.severity(delay)
	isDelayed := delay > c.opts.DelayGraceMinutes
	if delay < 0 {
		delay = 0
	}

	stop, _ := c.idx.Stop(ev.StopID)
	trip, _ := c.idx.Trip(ev.TripID)

	return DelayRecord{
		TripID:        ev.TripID,
		StopID:        ev.StopID,
		TripHeadsign:  trip.Headsign,
		RouteName:     trip.RouteName,
		StopName:      stop.Name,
		ParentStation: stop.ParentStation,
		ServiceDate:   ev.ServiceDate,
		ScheduledAt:   scheduledAt,
		ArrivalAt:     ev.ArrivalAt,
		DelayMinutes:  delay,
		IsDelayed:     isDelayed,
		Severity:      severity,
		CommutePeriod: c.CommutePeriod(ev.ArrivalAt),
	}, nil
}

// SanitizeDelay resets delays outside the trusted range to zero. Values
// beyond +500 or below -100 minutes flag a schedule/ping mismatch (wrong
// service day, stale ping), not a real observation. The clamp is idempotent.
func (c *Classifier) SanitizeDelay(minutes float64) float64 {
	if minutes > c.opts.OutlierUpperMinutes || minutes < c.opts.OutlierLowerMinutes {
		return 0
	}
	return minutes
}

// majorDelayMinutes is the boundary between Minor and Major delays,
// calibrated against the recorded data alongside the outlier clamps.
const majorDelayMinutes = 15

func (c *Classifier) severity(delayMinutes float64) Severity {
	switch {
	case delayMinutes > majorDelayMinutes:
		return SeverityMajor
	case delayMinutes > c.opts.DelayGraceMinutes:
		return SeverityMinor
	default:
		return SeverityOnTime
	}
}

// CommutePeriod classifies an arrival timestamp. Weekends win over
// time-of-day; the Morning and Evening windows are inclusive on both ends.
func (c *Classifier) CommutePeriod(arrival time.Time) CommutePeriod {
	wd := arrival.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return PeriodWeekend
	}

	midnight := time.Date(arrival.Year(), arrival.Month(), arrival.Day(), 0, 0, 0, 0, arrival.Location())
	tod := arrival.Sub(midnight)

	switch {
	case tod >= c.opts.MorningStart && tod <= c.opts.MorningEnd:
		return PeriodMorning
	case tod >= c.opts.EveningStart && tod <= c.opts.EveningEnd:
		return PeriodEvening
	default:
		return PeriodOther
	}
}
