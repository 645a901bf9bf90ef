package otp

import (
	"math"
	"testing"
	"time"
)

func rec(trip, stop string, day int, delay float64, sev Severity, period CommutePeriod) DelayRecord {
	serviceDate := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return DelayRecord{
		TripID:        trip,
		StopID:        stop,
		StopName:      "Stop " + stop,
		ServiceDate:   serviceDate,
		ArrivalAt:     serviceDate.Add(8 * time.Hour),
		DelayMinutes:  delay,
		IsDelayed:     delay > 4,
		Severity:      sev,
		CommutePeriod: period,
	}
}

func TestOnTimePerformance(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("101", "70261", 8, 2, SeverityOnTime, PeriodMorning),
		rec("102", "70011", 8, 10, SeverityMinor, PeriodMorning),
		rec("103", "70011", 8, 30, SeverityMajor, PeriodEvening),
	}

	got := OnTimePerformance(records)
	if got != 50 {
		t.Errorf("OnTimePerformance() = %v, expected 50", got)
	}
}

func TestOnTimePerformanceAllOnTime(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("102", "70011", 8, 3, SeverityOnTime, PeriodMorning),
	}
	if got := OnTimePerformance(records); got != 100 {
		t.Errorf("OnTimePerformance() = %v, expected exactly 100", got)
	}
}

func TestOnTimePerformanceDeduplicates(t *testing.T) {
	// The same (trip, stop, service date) appearing twice must count once
	dup := rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning)
	records := []DelayRecord{
		dup,
		dup,
		rec("102", "70011", 8, 30, SeverityMajor, PeriodMorning),
	}

	if got := OnTimePerformance(records); got != 50 {
		t.Errorf("OnTimePerformance() = %v, expected 50 after dedup", got)
	}
}

func TestOnTimePerformanceBounds(t *testing.T) {
	if got := OnTimePerformance(nil); got != 0 {
		t.Errorf("OnTimePerformance(nil) = %v, expected 0", got)
	}
	records := []DelayRecord{
		rec("101", "70011", 8, 30, SeverityMajor, PeriodMorning),
	}
	if got := OnTimePerformance(records); got < 0 || got > 100 {
		t.Errorf("OnTimePerformance() = %v, outside [0, 100]", got)
	}
}

func TestSeverityDistribution(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("102", "70011", 8, 10, SeverityMinor, PeriodMorning),
		rec("103", "70011", 8, 12, SeverityMinor, PeriodMorning),
		rec("104", "70011", 8, 30, SeverityMajor, PeriodMorning),
	}

	dist := SeverityDistribution(records)
	if dist[SeverityOnTime] != 25 {
		t.Errorf("On Time share = %v, expected 25", dist[SeverityOnTime])
	}
	if dist[SeverityMinor] != 50 {
		t.Errorf("Minor share = %v, expected 50", dist[SeverityMinor])
	}
	if dist[SeverityMajor] != 25 {
		t.Errorf("Major share = %v, expected 25", dist[SeverityMajor])
	}

	var total float64
	for _, share := range dist {
		total += share
	}
	if math.Abs(total-100) > 1e-9 {
		t.Errorf("severity shares sum to %v, expected 100", total)
	}
}

func TestByCommutePeriodRestrictedToCommutes(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("102", "70011", 8, 10, SeverityMinor, PeriodMorning),
		rec("103", "70011", 8, 0, SeverityOnTime, PeriodEvening),
		rec("104", "70011", 8, 0, SeverityOnTime, PeriodOther),
		rec("105", "70011", 6, 0, SeverityOnTime, PeriodWeekend),
	}

	byPeriod := ByCommutePeriod(records)
	if len(byPeriod) != 2 {
		t.Fatalf("got %d periods, expected Morning and Evening only", len(byPeriod))
	}

	morning := byPeriod[PeriodMorning]
	if morning.Total != 2 {
		t.Errorf("Morning total = %d, expected 2", morning.Total)
	}
	if morning.SeverityShare[SeverityOnTime] != 50 {
		t.Errorf("Morning On Time share = %v, expected 50", morning.SeverityShare[SeverityOnTime])
	}
	if byPeriod[PeriodEvening].Total != 1 {
		t.Errorf("Evening total = %d, expected 1", byPeriod[PeriodEvening].Total)
	}
}

func TestByStopRanking(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("102", "70011", 8, 4, SeverityOnTime, PeriodMorning),
		rec("101", "70261", 8, 20, SeverityMajor, PeriodMorning),
		rec("102", "70261", 8, 10, SeverityMinor, PeriodMorning),
	}

	stops := ByStop(records)
	if len(stops) != 2 {
		t.Fatalf("got %d stop groups, expected 2", len(stops))
	}
	if stops[0].Key != "70011" || stops[0].MeanDelayMinutes != 2 {
		t.Errorf("best stop = %s (%.1f min), expected 70011 (2.0 min)", stops[0].Key, stops[0].MeanDelayMinutes)
	}
	if stops[1].Key != "70261" || stops[1].MeanDelayMinutes != 15 {
		t.Errorf("worst stop = %s (%.1f min), expected 70261 (15.0 min)", stops[1].Key, stops[1].MeanDelayMinutes)
	}
	if stops[0].OnTimePct != 100 {
		t.Errorf("70011 OnTimePct = %v, expected 100", stops[0].OnTimePct)
	}
	if stops[1].OnTimePct != 0 {
		t.Errorf("70261 OnTimePct = %v, expected 0", stops[1].OnTimePct)
	}
}

func TestByTripCarriesHeadsign(t *testing.T) {
	early := rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning)
	early.TripHeadsign = "San Jose Diridon"
	late := rec("205", "70011", 8, 25, SeverityMajor, PeriodEvening)
	late.TripHeadsign = "San Francisco"

	trips := ByTrip([]DelayRecord{early, late})
	if len(trips) != 2 {
		t.Fatalf("got %d trip groups, expected 2", len(trips))
	}
	if trips[0].Key != "101" || trips[0].Name != "San Jose Diridon" {
		t.Errorf("best trip = %s %q, expected 101 with its headsign", trips[0].Key, trips[0].Name)
	}
	if trips[1].Key != "205" || trips[1].Name != "San Francisco" {
		t.Errorf("worst trip = %s %q, expected 205 with its headsign", trips[1].Key, trips[1].Name)
	}
}

func TestByDateAndByHour(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("102", "70011", 8, 10, SeverityMinor, PeriodMorning),
		rec("101", "70011", 9, 6, SeverityMinor, PeriodMorning),
	}

	byDate := ByDate(records)
	if len(byDate) != 2 {
		t.Fatalf("got %d dates, expected 2", len(byDate))
	}
	jan8 := byDate["2024-01-08"]
	if jan8.Count != 2 || jan8.MeanDelayMinutes != 5 {
		t.Errorf("2024-01-08 = %d records mean %.1f, expected 2 records mean 5.0", jan8.Count, jan8.MeanDelayMinutes)
	}

	byHour := ByHour(records)
	// All test arrivals land at 08:00
	eight, ok := byHour[8]
	if !ok {
		t.Fatal("hour 8 missing from ByHour")
	}
	if eight.Count != 3 {
		t.Errorf("hour 8 count = %d, expected 3", eight.Count)
	}
}

func TestSummarize(t *testing.T) {
	records := []DelayRecord{
		rec("101", "70011", 8, 0, SeverityOnTime, PeriodMorning),
		rec("101", "70261", 8, 2, SeverityOnTime, PeriodMorning),
		rec("205", "70011", 9, 25, SeverityMajor, PeriodEvening),
	}

	s := Summarize(records)
	if s.TotalTrips != 3 || s.OnTimeTrips != 2 {
		t.Errorf("totals = %d/%d, expected 2 on-time of 3", s.OnTimeTrips, s.TotalTrips)
	}
	if math.Abs(s.OnTimePerformance-66.666) > 0.01 {
		t.Errorf("OnTimePerformance = %v, expected ~66.67", s.OnTimePerformance)
	}
	if s.BestTrip.ID != "101" {
		t.Errorf("BestTrip = %s, expected 101", s.BestTrip.ID)
	}
	if s.WorstTrip.ID != "205" || s.WorstTrip.MeanDelayMinutes != 25 {
		t.Errorf("WorstTrip = %s (%.1f), expected 205 (25.0)", s.WorstTrip.ID, s.WorstTrip.MeanDelayMinutes)
	}
	if s.WorstStop.ID != "70011" {
		t.Errorf("WorstStop = %s, expected 70011", s.WorstStop.ID)
	}
	if !s.StartDate.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)) ||
		!s.EndDate.Equal(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date range = %v..%v, expected Jan 8..Jan 9", s.StartDate, s.EndDate)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalTrips != 0 || s.OnTimePerformance != 0 {
		t.Errorf("empty summary should be zero-valued, got %+v", s)
	}
}
