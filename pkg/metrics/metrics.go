package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "duck", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "duck", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// StoreOperations counts data-access calls by operation and outcome (ok|error).
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "duck", Name: "store_operations_total", Help: "Number of duck store operations by outcome."},
		[]string{"operation", "outcome"},
	)
	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "duck", Name: "store_operation_duration_seconds", Help: "Latency of duck store operations.", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	SnapshotsExported = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "duck", Name: "snapshots_exported_total", Help: "Number of duck snapshots uploaded to object storage."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreLatency)
	reg.MustRegister(SnapshotsExported)
}
