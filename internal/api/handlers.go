package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

const defaultWindowDays = 30

// DelayRepository defines the interface for delay record operations
type DelayRepository interface {
	LoadDelayRecords(ctx context.Context, since time.Time, loc *time.Location) ([]otp.DelayRecord, error)
	LatestRun(ctx context.Context) (runID string, generatedAt time.Time, ok bool, err error)
	Ping(ctx context.Context) error
}

// DelayHandler handles HTTP requests for on-time performance data
type DelayHandler struct {
	repo DelayRepository
	loc  *time.Location
}

// NewDelayHandler creates a new handler with the given repository.
// Timestamps in responses are rendered in loc, the service timezone.
func NewDelayHandler(repo DelayRepository, loc *time.Location) *DelayHandler {
	return &DelayHandler{repo: repo, loc: loc}
}

// windowDays parses the ?days= query param, defaulting to 30
func windowDays(r *http.Request) int {
	days := defaultWindowDays
	if s := r.URL.Query().Get("days"); s != "" {
		if d, err := strconv.Atoi(s); err == nil && d > 0 && d <= 365 {
			days = d
		}
	}
	return days
}

func (h *DelayHandler) loadWindow(ctx context.Context, r *http.Request) ([]otp.DelayRecord, error) {
	since := time.Now().In(h.loc).AddDate(0, 0, -windowDays(r))
	return h.repo.LoadDelayRecords(ctx, since, h.loc)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// GetHealth handles GET /health
func (h *DelayHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSummary handles GET /api/summary
// Query params: days (optional, default 30, max 365)
func (h *DelayHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusOK, SummaryResponse{DataStatus: "no data"})
		return
	}

	summary := otp.Summarize(records)
	response := SummaryResponse{
		OnTimePerformance: summary.OnTimePerformance,
		TotalTrips:        summary.TotalTrips,
		OnTimeTrips:       summary.OnTimeTrips,
		BestTrain:         toRankEntryResponse(summary.BestTrip),
		WorstTrain:        toRankEntryResponse(summary.WorstTrip),
		BestStop:          toRankEntryResponse(summary.BestStop),
		WorstStop:         toRankEntryResponse(summary.WorstStop),
		StartDate:         summary.StartDate.Format("2006-01-02"),
		EndDate:           summary.EndDate.Format("2006-01-02"),
		DataStatus:        "ok",
	}
	if runID, generatedAt, ok, err := h.repo.LatestRun(ctx); err == nil && ok {
		response.RunID = runID
		at := generatedAt.In(h.loc)
		response.GeneratedAt = &at
	}

	writeJSON(w, http.StatusOK, response)
}

// GetDelays handles GET /api/delays
// Query params: days (optional, default 30, max 365)
func (h *DelayHandler) GetDelays(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}

	response := DelaysResponse{
		Records: make([]DelayRecordResponse, 0, len(records)),
		Count:   len(records),
	}
	for _, rec := range records {
		response.Records = append(response.Records, toDelayRecordResponse(rec))
	}

	writeJSON(w, http.StatusOK, response)
}

// GetDailyStats handles GET /api/stats/daily
func (h *DelayHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}

	writeJSON(w, http.StatusOK, DailyStatsResponse{Days: otp.ByDate(records)})
}

// GetHourlyStats handles GET /api/stats/hourly
func (h *DelayHandler) GetHourlyStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}

	writeJSON(w, http.StatusOK, HourlyStatsResponse{Hours: otp.ByHour(records)})
}

// GetCommuteStats handles GET /api/stats/commute
func (h *DelayHandler) GetCommuteStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}

	writeJSON(w, http.StatusOK, CommuteStatsResponse{Periods: otp.ByCommutePeriod(records)})
}

// GetStopStats handles GET /api/stats/stops
func (h *DelayHandler) GetStopStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}

	writeJSON(w, http.StatusOK, GroupStatsResponse{Groups: otp.ByStop(records)})
}

// GetTripStats handles GET /api/stats/trips
func (h *DelayHandler) GetTripStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.loadWindow(ctx, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load delay records")
		return
	}

	writeJSON(w, http.StatusOK, GroupStatsResponse{Groups: otp.ByTrip(records)})
}

func toRankEntryResponse(e otp.RankEntry) RankEntryResponse {
	return RankEntryResponse{
		ID:              e.ID,
		Name:            e.Name,
		AvgDelayMinutes: e.MeanDelayMinutes,
	}
}
