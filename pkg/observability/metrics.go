// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the scribe API.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets for CRUD request latencies,
// ranging from 1ms to 10s. The upper buckets cover password hashing,
// which dominates login latency.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method"},
	)

	// AuthFailuresTotal counts requests rejected by the authentication gate.
	AuthFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scribe_auth_failures_total",
			Help: "Authentication failures",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scribe_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		RateLimitRejectedTotal,
	)
}
