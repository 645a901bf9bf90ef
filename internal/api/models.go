package api

import (
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

// ErrorResponse is the JSON body for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// RankEntryResponse identifies a best or worst performer
type RankEntryResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name,omitempty"`
	AvgDelayMinutes float64 `json:"avg_delay_minutes"`
}

// SummaryResponse mirrors the historical summary report shape
type SummaryResponse struct {
	OnTimePerformance float64           `json:"on_time_performance"`
	TotalTrips        int               `json:"total_trips"`
	OnTimeTrips       int               `json:"on_time_trips"`
	BestTrain         RankEntryResponse `json:"best_train"`
	WorstTrain        RankEntryResponse `json:"worst_train"`
	BestStop          RankEntryResponse `json:"best_stop"`
	WorstStop         RankEntryResponse `json:"worst_stop"`
	StartDate         string            `json:"start_date"`
	EndDate           string            `json:"end_date"`
	RunID             string            `json:"run_id,omitempty"`
	GeneratedAt       *time.Time        `json:"generated_at,omitempty"`
	DataStatus        string            `json:"data_status"`
}

// DelayRecordResponse is one classified arrival
type DelayRecordResponse struct {
	TripID        string  `json:"trip_id"`
	StopID        string  `json:"stop_id"`
	TripHeadsign  string  `json:"trip_headsign,omitempty"`
	RouteName     string  `json:"route_name,omitempty"`
	StopName      string  `json:"stop_name"`
	ServiceDate   string  `json:"service_date"`
	ScheduledAt   string  `json:"scheduled_at"`
	ArrivalAt     string  `json:"arrival_at"`
	DelayMinutes  float64 `json:"delay_minutes"`
	IsDelayed     bool    `json:"is_delayed"`
	Severity      string  `json:"severity"`
	CommutePeriod string  `json:"commute_period"`
}

// DelaysResponse wraps a record listing
type DelaysResponse struct {
	Records []DelayRecordResponse `json:"records"`
	Count   int                   `json:"count"`
}

// DailyStatsResponse is the per-date performance table
type DailyStatsResponse struct {
	Days map[string]otp.BucketStats `json:"days"`
}

// HourlyStatsResponse is the per-hour performance table
type HourlyStatsResponse struct {
	Hours map[int]otp.BucketStats `json:"hours"`
}

// CommuteStatsResponse is the Morning/Evening breakdown
type CommuteStatsResponse struct {
	Periods map[otp.CommutePeriod]otp.PeriodStats `json:"periods"`
}

// GroupStatsResponse is the per-stop or per-trip ranking table
type GroupStatsResponse struct {
	Groups []otp.GroupStats `json:"groups"`
}

func toDelayRecordResponse(r otp.DelayRecord) DelayRecordResponse {
	return DelayRecordResponse{
		TripID:        r.TripID,
		StopID:        r.StopID,
		TripHeadsign:  r.TripHeadsign,
		RouteName:     r.RouteName,
		StopName:      r.StopName,
		ServiceDate:   r.ServiceDate.Format("2006-01-02"),
		ScheduledAt:   r.ScheduledAt.Format(time.RFC3339),
		ArrivalAt:     r.ArrivalAt.Format(time.RFC3339),
		DelayMinutes:  r.DelayMinutes,
		IsDelayed:     r.IsDelayed,
		Severity:      string(r.Severity),
		CommutePeriod: string(r.CommutePeriod),
	}
}
