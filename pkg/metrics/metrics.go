// Package metrics exposes the Prometheus instruments of the pipeline and its HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sales_rfm"

// Pipeline
var (
	OrdersLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_loaded",
			Help:      "Order rows held by the in-memory store",
		},
		[]string{"source"},
	)

	ReportBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_builds_total",
			Help:      "Report builds by outcome",
		},
		[]string{"status"},
	)

	ReportBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_build_duration_seconds",
			Help:      "Time to filter, aggregate and segment one date range",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ReportCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

func SetOrdersLoaded(source string, n int) {
	OrdersLoaded.WithLabelValues(source).Set(float64(n))
}

// ObserveBuild records one report build. err decides the status label.
func ObserveBuild(seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ReportBuilds.WithLabelValues(status).Inc()
	ReportBuildDuration.Observe(seconds)
}

// CacheResult records a cache lookup: "hit", "miss" or "error".
func CacheResult(result string) {
	ReportCache.WithLabelValues(result).Inc()
}

func RecordHTTPRequest(method, path, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
