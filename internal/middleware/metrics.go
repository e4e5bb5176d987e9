package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Connection test metrics
	ConnectionTests *prometheus.CounterVec

	// Sync metrics
	SyncTotal        *prometheus.CounterVec
	SyncDuration     *prometheus.HistogramVec
	RowsMaterialized *prometheus.CounterVec

	// Scheduler metrics
	ScheduledJobs prometheus.Gauge
}

var metrics *PrometheusMetrics

// InitMetrics initializes all Prometheus metrics
func InitMetrics() {
	metrics = &PrometheusMetrics{
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datavizsync_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datavizsync_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		ConnectionTests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datavizsync_connection_tests_total",
				Help: "Total number of connection tests",
			},
			[]string{"engine", "status"},
		),
		SyncTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datavizsync_sync_total",
				Help: "Total number of sync passes",
			},
			[]string{"engine", "status"},
		),
		SyncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datavizsync_sync_duration_seconds",
				Help:    "Sync pass duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"engine"},
		),
		RowsMaterialized: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datavizsync_rows_materialized_total",
				Help: "Total number of rows materialized into datasets",
			},
			[]string{"engine"},
		),
		ScheduledJobs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "datavizsync_scheduled_jobs",
				Help: "Number of live scheduled sync jobs",
			},
		),
	}
}

// GetMetrics returns the initialized metrics
func GetMetrics() *PrometheusMetrics {
	return metrics
}

// PrometheusMiddleware is a Gin middleware that records HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// RecordConnectionTest records the outcome of a connection test
func RecordConnectionTest(engine, status string) {
	if metrics == nil {
		return
	}
	metrics.ConnectionTests.WithLabelValues(engine, status).Inc()
}

// RecordSync records the outcome and duration of a sync pass
func RecordSync(engine, status string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.SyncTotal.WithLabelValues(engine, status).Inc()
	metrics.SyncDuration.WithLabelValues(engine).Observe(duration.Seconds())
}

// RecordRowsMaterialized records rows written by a sync pass
func RecordRowsMaterialized(engine string, rows int) {
	if metrics == nil {
		return
	}
	metrics.RowsMaterialized.WithLabelValues(engine).Add(float64(rows))
}

// SetScheduledJobs updates the live scheduled job gauge
func SetScheduledJobs(count int) {
	if metrics == nil {
		return
	}
	metrics.ScheduledJobs.Set(float64(count))
}
