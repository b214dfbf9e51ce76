// Package metrics provides Prometheus metrics for teacherlink-search.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teacherlink"

var (
	// CandidatesLoaded is the size of the current candidate pool.
	CandidatesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "candidates",
			Help:      "Number of approved candidates in the current pool",
		},
	)

	// PoolRefreshes counts pool loads by outcome.
	PoolRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "refreshes_total",
			Help:      "Total number of candidate pool loads by status",
		},
		[]string{"status"},
	)

	// APIRequestsTotal tracks outbound requests to the TeacherLink API.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api_client",
			Name:      "requests_total",
			Help:      "Total number of outbound API requests",
		},
		[]string{"endpoint", "status_code"},
	)

	// APIRequestDuration tracks outbound request duration.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// FilterPasses tracks filter passes and how many candidates they kept.
	FilterPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "filter_passes_total",
			Help:      "Total number of filter passes with at least one active filter",
		},
	)

	// FilterRetained tracks the share of candidates kept by a filter pass.
	FilterRetained = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "retained_ratio",
			Help:      "Share of candidates retained by a filter pass",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// SearchQueries counts non-empty searches.
	SearchQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "search_queries_total",
			Help:      "Total number of non-empty search queries",
		},
	)

	// HTTPRequestsTotal tracks inbound API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of handled HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// RateLimitHits tracks rejected inbound requests.
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)

	// FilterStoreOperations tracks filter store calls by backend and outcome.
	FilterStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter_store",
			Name:      "operations_total",
			Help:      "Total number of filter store operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

// RecordAPIRequest records an outbound API request.
func RecordAPIRequest(endpoint, statusCode string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordFilterPass records a filter pass over initial candidates that kept left of them.
func RecordFilterPass(initial, left int) {
	FilterPasses.Inc()
	if initial > 0 {
		FilterRetained.Observe(float64(left) / float64(initial))
	}
}

// RecordStoreOperation records a filter store call.
func RecordStoreOperation(backend, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FilterStoreOperations.WithLabelValues(backend, operation, status).Inc()
}
