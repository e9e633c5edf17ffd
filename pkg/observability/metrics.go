// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the specgate security gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "specgate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// AuthAttemptsTotal counts scheme verifier invocations by scheme and
	// outcome (granted, rejected, abstain).
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgate_auth_attempts_total",
			Help: "Scheme verifier outcomes",
		},
		[]string{"scheme", "outcome"},
	)

	// AuthDeniedTotal counts requests refused by the security chain,
	// labeled by failure reason.
	AuthDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgate_auth_denied_total",
			Help: "Requests refused by the security chain",
		},
		[]string{"reason"},
	)

	// IntrospectionRequestsTotal counts calls to remote token-info
	// endpoints by HTTP status class.
	IntrospectionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specgate_introspection_requests_total",
			Help: "Remote token-info calls",
		},
		[]string{"status"},
	)

	// IntrospectionDuration records remote token-info call latency.
	IntrospectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "specgate_introspection_duration_seconds",
			Help:    "Remote token-info latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Register registers all specgate collectors with the given registry.
// Pass prometheus.DefaultRegisterer for normal operation.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthAttemptsTotal,
		AuthDeniedTotal,
		IntrospectionRequestsTotal,
		IntrospectionDuration,
	)
}
