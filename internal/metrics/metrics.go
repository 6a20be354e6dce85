// Package metrics defines the Prometheus metrics exported on /metrics.
// Record methods are safe to call on a nil *Metrics so components can run without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Database metrics
	DBOperationDuration *prometheus.HistogramVec
	DBErrorsTotal       *prometheus.CounterVec

	// Bot metrics
	BotUpdatesTotal          *prometheus.CounterVec
	BotUpdateDurationSeconds *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Domain gauges and counters
	ActiveJobs         prometheus.Gauge
	ExpiredJobsTotal   prometheus.Counter
	ApplicationsTotal  prometheus.Counter
	JobsPostedTotal    *prometheus.CounterVec
	SnapshotRunsTotal  *prometheus.CounterVec
	JobDurationSeconds *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		DBOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zewed_db_operation_duration_seconds",
				Help:    "Duration of data-access operations by operation name",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_db_errors_total",
				Help: "Total data-access errors by operation and error kind",
			},
			[]string{"operation", "kind"}, // kind: not_found, conflict, unavailable, internal, ...
		),

		BotUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_bot_updates_total",
				Help: "Total Telegram updates handled by kind and status",
			},
			[]string{"kind", "status"}, // kind: command, callback, text; status: success, error, dropped
		),

		BotUpdateDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zewed_bot_update_duration_seconds",
				Help:    "Telegram update handling duration by kind",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),

		HTTPDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zewed_http_request_duration_seconds",
				Help:    "HTTP request duration by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_singleflight_dedup_total",
				Help: "Total number of requests that shared an in-flight result",
			},
			[]string{"key"},
		),

		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zewed_active_jobs",
			Help: "Number of active job listings",
		}),

		ExpiredJobsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "zewed_expired_jobs_total",
			Help: "Total job listings deactivated by the expiry sweeper",
		}),

		ApplicationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "zewed_applications_total",
			Help: "Total applications recorded since start",
		}),

		JobsPostedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_jobs_posted_total",
				Help: "Total job listings posted through the bot by category",
			},
			[]string{"category"},
		),

		SnapshotRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zewed_snapshot_runs_total",
				Help: "Total snapshot uploads and restores by action and status",
			},
			[]string{"action", "status"}, // action: upload, restore
		),

		JobDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zewed_background_job_duration_seconds",
				Help:    "Background job duration by job name",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"job"},
		),
	}
}

// RecordDBOperation records a data-access call. kind is "none" on success.
func (m *Metrics) RecordDBOperation(operation, kind string, duration float64) {
	if m == nil {
		return
	}
	m.DBOperationDuration.WithLabelValues(operation).Observe(duration)
	if kind != "none" {
		m.DBErrorsTotal.WithLabelValues(operation, kind).Inc()
	}
}

// RecordBotUpdate records a handled Telegram update.
func (m *Metrics) RecordBotUpdate(kind, status string, duration float64) {
	if m == nil {
		return
	}
	m.BotUpdatesTotal.WithLabelValues(kind, status).Inc()
	m.BotUpdateDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route, status string, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(key string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(key).Inc()
}

// SetActiveJobs updates the active jobs gauge.
func (m *Metrics) SetActiveJobs(n int) {
	if m == nil {
		return
	}
	m.ActiveJobs.Set(float64(n))
}

// RecordExpiredJobs adds n to the expired jobs counter.
func (m *Metrics) RecordExpiredJobs(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ExpiredJobsTotal.Add(float64(n))
}

// RecordApplication counts a recorded application.
func (m *Metrics) RecordApplication() {
	if m == nil {
		return
	}
	m.ApplicationsTotal.Inc()
}

// RecordJobPosted counts a job posted through the bot.
func (m *Metrics) RecordJobPosted(category string) {
	if m == nil {
		return
	}
	m.JobsPostedTotal.WithLabelValues(category).Inc()
}

// RecordSnapshot records a snapshot upload or restore outcome.
func (m *Metrics) RecordSnapshot(action, status string) {
	if m == nil {
		return
	}
	m.SnapshotRunsTotal.WithLabelValues(action, status).Inc()
}

// RecordJob records a background job run.
func (m *Metrics) RecordJob(job string, duration float64) {
	if m == nil {
		return
	}
	m.JobDurationSeconds.WithLabelValues(job).Observe(duration)
}
