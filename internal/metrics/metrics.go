package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the monitoring loop. Exposed via /metrics on
// the HTTP API.
var (
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_scheduler_ticks_total",
			Help: "Total number of scheduler ticks started",
		},
	)

	TicksSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_scheduler_ticks_skipped_total",
			Help: "Ticks skipped because the due-set query failed",
		},
	)

	DueAlertsSelected = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "farewatch_due_alerts_selected",
			Help:    "Number of due alerts selected per tick",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)

	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farewatch_checks_total",
			Help: "Completed price checks by result",
		},
		[]string{"result"},
	)

	FetchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_fetch_retries_total",
			Help: "Price fetch retry attempts",
		},
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "farewatch_fetch_duration_seconds",
			Help:    "Duration of price source fetches including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	InFlightChecks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "farewatch_inflight_checks",
			Help: "Price checks currently running",
		},
	)

	NotificationsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_notifications_sent_total",
			Help: "Price-drop notifications delivered",
		},
	)

	NotificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_notification_failures_total",
			Help: "Price-drop notifications that failed to deliver",
		},
	)

	QuoteCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_quote_cache_hits_total",
			Help: "Quote cache hits",
		},
	)

	QuoteCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "farewatch_quote_cache_misses_total",
			Help: "Quote cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		TicksSkippedTotal,
		DueAlertsSelected,
		ChecksTotal,
		FetchRetriesTotal,
		FetchDuration,
		InFlightChecks,
		NotificationsSentTotal,
		NotificationFailuresTotal,
		QuoteCacheHitsTotal,
		QuoteCacheMissesTotal,
	)
}
