package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the leaderboard ingestion service

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfopen_api_calls_total",
			Help: "Total number of leaderboard API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfopen_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Pipeline metrics
	PipelineStagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfopen_pipeline_stages_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfopen_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfopen_sync_operations_total",
			Help: "Total number of full refresh operations",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfopen_sync_duration_seconds",
			Help:    "Duration of full refresh operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	AthletesReconciled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfopen_athletes_reconciled_total",
			Help: "Number of athletes processed in the last refresh",
		},
	)

	ScoresReconciled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfopen_scores_reconciled_total",
			Help: "Number of score rows processed in the last refresh",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfopen_cache_hits_total",
			Help: "Total number of leaderboard cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfopen_cache_misses_total",
			Help: "Total number of leaderboard cache misses",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfopen_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfopen_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfopen_last_successful_sync_timestamp",
			Help: "Timestamp of last successful refresh",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordStage records a pipeline stage execution
func RecordStage(stage, status string, duration float64) {
	PipelineStagesTotal.WithLabelValues(stage, status).Inc()
	PipelineStageDuration.WithLabelValues(stage).Observe(duration)
}

// RecordSync records a full refresh operation
func RecordSync(status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(status).Inc()
	SyncDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
