package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

type fakeRepo struct {
	records []otp.DelayRecord
	runID   string
	loadErr error
	pingErr error
}

func (f *fakeRepo) LoadDelayRecords(ctx context.Context, since time.Time, loc *time.Location) ([]otp.DelayRecord, error) {
	return f.records, f.loadErr
}

func (f *fakeRepo) LatestRun(ctx context.Context) (string, time.Time, bool, error) {
	if f.runID == "" {
		return "", time.Time{}, false, nil
	}
	return f.runID, time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC), true, nil
}

func (f *fakeRepo) Ping(ctx context.Context) error {
	return f.pingErr
}

func testRecords(t *testing.T) []otp.DelayRecord {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day := time.Date(2024, 1, 8, 0, 0, 0, 0, loc)
	return []otp.DelayRecord{
		{
			TripID:        "101",
			StopID:        "70011",
			StopName:      "San Francisco",
			ServiceDate:   day,
			ScheduledAt:   day.Add(8 * time.Hour),
			ArrivalAt:     day.Add(8*time.Hour + 2*time.Minute),
			DelayMinutes:  2,
			Severity:      otp.SeverityOnTime,
			CommutePeriod: otp.PeriodMorning,
		},
		{
			TripID:        "103",
			StopID:        "70261",
			StopName:      "Mountain View",
			ServiceDate:   day,
			ScheduledAt:   day.Add(17 * time.Hour),
			ArrivalAt:     day.Add(17*time.Hour + 20*time.Minute),
			DelayMinutes:  20,
			IsDelayed:     true,
			Severity:      otp.SeverityMajor,
			CommutePeriod: otp.PeriodEvening,
		},
	}
}

func get(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{}, time.UTC)
	rr := get(t, handler.GetHealth, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	down := NewDelayHandler(&fakeRepo{pingErr: errors.New("closed")}, time.UTC)
	rr = get(t, down.GetHealth, "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestGetSummary(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{records: testRecords(t), runID: "run-1"}, time.UTC)

	rr := get(t, handler.GetSummary, "/api/summary")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got SummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.DataStatus != "ok" {
		t.Errorf("data_status = %q, want ok", got.DataStatus)
	}
	if got.TotalTrips != 2 || got.OnTimeTrips != 1 {
		t.Errorf("trips = %d/%d, want 1/2 on time", got.OnTimeTrips, got.TotalTrips)
	}
	if got.OnTimePerformance != 50 {
		t.Errorf("on_time_performance = %v, want 50", got.OnTimePerformance)
	}
	if got.WorstTrain.ID != "103" {
		t.Errorf("worst train = %q, want 103", got.WorstTrain.ID)
	}
	if got.RunID != "run-1" || got.GeneratedAt == nil {
		t.Errorf("run metadata missing: %q %v", got.RunID, got.GeneratedAt)
	}
	if got.StartDate != "2024-01-08" || got.EndDate != "2024-01-08" {
		t.Errorf("window = %s..%s", got.StartDate, got.EndDate)
	}
}

func TestGetSummaryNoData(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{}, time.UTC)

	rr := get(t, handler.GetSummary, "/api/summary")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got SummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.DataStatus != "no data" {
		t.Errorf("data_status = %q, want 'no data'", got.DataStatus)
	}
	if got.TotalTrips != 0 {
		t.Errorf("total_trips = %d, want 0", got.TotalTrips)
	}
}

func TestGetDelays(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{records: testRecords(t)}, time.UTC)

	rr := get(t, handler.GetDelays, "/api/delays?days=7")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got DelaysResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Count != 2 || len(got.Records) != 2 {
		t.Fatalf("count = %d, records = %d, want 2", got.Count, len(got.Records))
	}
	first := got.Records[0]
	if first.TripID != "101" || first.ServiceDate != "2024-01-08" || first.Severity != "On Time" {
		t.Errorf("first record = %+v", first)
	}
}

func TestGetDelaysRepoError(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{loadErr: errors.New("disk gone")}, time.UTC)

	rr := get(t, handler.GetDelays, "/api/delays")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	var got ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Error == "" {
		t.Error("expected error message in body")
	}
}

func TestGetCommuteStats(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{records: testRecords(t)}, time.UTC)

	rr := get(t, handler.GetCommuteStats, "/api/stats/commute")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got CommuteStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got.Periods) != 2 {
		t.Fatalf("got %d periods, want Morning and Evening only", len(got.Periods))
	}
	if got.Periods[otp.PeriodMorning].Total != 1 || got.Periods[otp.PeriodEvening].Total != 1 {
		t.Errorf("period totals = %+v", got.Periods)
	}
}

func TestGetStopStats(t *testing.T) {
	handler := NewDelayHandler(&fakeRepo{records: testRecords(t)}, time.UTC)

	rr := get(t, handler.GetStopStats, "/api/stats/stops")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got GroupStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(got.Groups))
	}
	// Ascending mean delay: the on-time stop ranks first
	if got.Groups[0].Key != "70011" || got.Groups[1].Key != "70261" {
		t.Errorf("ranking = %q, %q", got.Groups[0].Key, got.Groups[1].Key)
	}
}

func TestWindowDays(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 30},
		{"?days=7", 7},
		{"?days=365", 365},
		{"?days=366", 30},
		{"?days=0", 30},
		{"?days=abc", 30},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/delays"+tt.query, nil)
		if got := windowDays(req); got != tt.want {
			t.Errorf("windowDays(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
