package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes operational counters for the feed poller over a
// Prometheus registry.
type Collector struct {
	reg *prometheus.Registry

	PollsTotal     prometheus.Counter
	PollErrors     prometheus.Counter
	PingsStored    prometheus.Counter
	PingsDuplicate prometheus.Counter
	PingsSkipped   prometheus.Counter

	PollDuration prometheus.Histogram

	LastPollUnix prometheus.Gauge
}

// NewCollector creates and registers the poller metric set
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caltrain_polls_total",
			Help: "Total vehicle position feed polls.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caltrain_poll_errors_total",
			Help: "Total failed feed polls.",
		}),
		PingsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caltrain_pings_stored_total",
			Help: "Total new pings written to the store.",
		}),
		PingsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caltrain_pings_duplicate_total",
			Help: "Total pings ignored by the idempotent insert.",
		}),
		PingsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caltrain_pings_skipped_total",
			Help: "Total feed entities skipped for missing trip, stop, or position.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caltrain_poll_duration_seconds",
			Help:    "Duration of one fetch-and-store cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		LastPollUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "caltrain_last_poll_timestamp_seconds",
			Help: "Unix time of the last completed poll.",
		}),
	}

	reg.MustRegister(
		c.PollsTotal, c.PollErrors,
		c.PingsStored, c.PingsDuplicate, c.PingsSkipped,
		c.PollDuration, c.LastPollUnix,
	)

	return c
}

// ObservePoll records the outcome of one poll cycle
func (c *Collector) ObservePoll(start time.Time, err error) {
	c.PollsTotal.Inc()
	c.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.PollErrors.Inc()
		return
	}
	c.LastPollUnix.Set(float64(time.Now().Unix()))
}

// Serve exposes /metrics on addr. Blocks; run it in a goroutine.
func (c *Collector) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	log.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}
