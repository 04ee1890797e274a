// Package metrics is the load engine's Prometheus registry: promauto
// constructors, one process-lifetime global block, no teardown.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsGeneratedTotal counts every synthetic event emitted by the
	// event simulator, labeled by EventType.
	EventsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loadengine_events_generated_total",
		Help: "Total number of synthetic analytics events generated",
	}, []string{"event_type"})

	// QueriesExecutedTotal counts every query the simulator pool ran.
	QueriesExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loadengine_queries_executed_total",
		Help: "Total number of analytics queries executed",
	})

	// CacheHitsTotal / CacheMissesTotal track the query simulator's
	// read-through hit ratio.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loadengine_cache_hits_total",
		Help: "Total number of cache hits on analytics queries",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loadengine_cache_misses_total",
		Help: "Total number of cache misses on analytics queries",
	})

	// OperationSuccessTotal / OperationErrorsTotal track success/error by
	// logical operation name (and, for errors, an error-kind label).
	OperationSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loadengine_operation_success_total",
		Help: "Total number of successful logical operations",
	}, []string{"operation"})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loadengine_operation_errors_total",
		Help: "Total number of failed logical operations",
	}, []string{"operation", "error_type"})

	// CacheOperationDuration times every backend call, labeled by the
	// logical op (get/set/incr/del, batch_set/batch_incr/batch_del, or a
	// backend's fallback label such as bitcount_fallback) and its result
	// (hit/miss/success/error).
	CacheOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loadengine_cache_operation_duration_seconds",
		Help:    "Duration of cache backend operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	// DatabaseOperationDuration is registered with the same labels as
	// CacheOperationDuration but no code path observes it; backend fallbacks
	// (e.g. the INCR-on-bitmap BITCOUNT) are timed on CacheOperationDuration
	// under their own op label.
	DatabaseOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loadengine_database_operation_duration_seconds",
		Help:    "Duration of fallback database-shaped operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	// ValidationResultsTotal labels every write-through validation attempt
	// by its distinguished outcome: match, mismatch, parse_error,
	// not_found, read_error.
	ValidationResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loadengine_validation_results_total",
		Help: "Total number of write-through validation attempts by outcome",
	}, []string{"result"})

	// ActiveConnections is a process-lifetime gauge of pooled connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loadengine_active_connections",
		Help: "Number of multiplexed Redis connections in the pool",
	})

	// OrgCacheSize reports the number of organizations in the current org
	// cache snapshot.
	OrgCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loadengine_org_cache_size",
		Help: "Number of organizations currently held in the org cache",
	})

	// EventGenerationDuration times the event simulator's per-second tick.
	EventGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loadengine_event_generation_duration_seconds",
		Help:    "Duration of one event-simulator tick (events_per_second pipelined incrs)",
		Buckets: prometheus.DefBuckets,
	})

	// LatencyP50/P95/P99Microseconds surface the lock-free histogram's last
	// drained snapshot as gauges for scraping between resets.
	LatencyP50Microseconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loadengine_query_latency_p50_microseconds",
		Help: "p50 query latency in microseconds, from the most recent histogram drain",
	})
	LatencyP95Microseconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loadengine_query_latency_p95_microseconds",
		Help: "p95 query latency in microseconds, from the most recent histogram drain",
	})
	LatencyP99Microseconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loadengine_query_latency_p99_microseconds",
		Help: "p99 query latency in microseconds, from the most recent histogram drain",
	})
)

// RecordOperationSuccess increments the success counter for op.
func RecordOperationSuccess(op string) {
	OperationSuccessTotal.WithLabelValues(op).Inc()
}

// RecordOperationError increments the error counter for op/errType.
func RecordOperationError(op, errType string) {
	OperationErrorsTotal.WithLabelValues(op, errType).Inc()
}
