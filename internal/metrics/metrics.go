// Package metrics exposes the Prometheus instrumentation for the web
// boundary and the publish pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumenfeed_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumenfeed_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumenfeed_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	IngestJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumenfeed_ingest_jobs_total",
			Help: "Total number of ingest jobs by media type and outcome",
		},
		[]string{"type", "outcome"},
	)

	IngestJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumenfeed_ingest_job_duration_seconds",
			Help:    "Ingest job duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"type"},
	)

	SignedUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumenfeed_signed_uploads_total",
			Help: "Total number of signed upload handshakes",
		},
		[]string{"kind"},
	)

	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumenfeed_batch_items_total",
			Help: "Total number of batch finalize items by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveIngest records one finished ingest job. outcome is "ok" or
// the pipeline failure kind.
func ObserveIngest(mediaType, outcome string, elapsed time.Duration) {
	IngestJobsTotal.WithLabelValues(mediaType, outcome).Inc()
	IngestJobDuration.WithLabelValues(mediaType).Observe(elapsed.Seconds())
}

// skipPaths are never recorded.
var skipPaths = map[string]bool{
	"/metrics": true,
	"/healthz": true,
}

// HTTP returns an echo middleware recording request counts and
// latencies. The route template is used as the path label to keep
// cardinality bounded.
func HTTP() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipPaths[c.Request().URL.Path] {
				return next(c)
			}

			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method

			HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
