package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "todo"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// DatabaseProbes counts liveness probes by result (ok|failed|cached).
	DatabaseProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "database_probes_total", Help: "Database liveness probes by result."},
		[]string{"result"},
	)
	DatabaseUp = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "database_up", Help: "1 when the most recent database probe succeeded."},
	)

	// TodoOperations counts service operations by op (list|create) and outcome (ok|error|unavailable).
	TodoOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "operations_total", Help: "Todo service operations by op and outcome."},
		[]string{"op", "outcome"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DatabaseProbes)
	reg.MustRegister(DatabaseUp)
	reg.MustRegister(TodoOperations)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
}

// ObserveProbe records a probe outcome and updates the up gauge.
func ObserveProbe(ok bool) {
	if ok {
		DatabaseProbes.WithLabelValues("ok").Inc()
		DatabaseUp.Set(1)
		return
	}
	DatabaseProbes.WithLabelValues("failed").Inc()
	DatabaseUp.Set(0)
}
