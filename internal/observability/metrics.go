package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector defines the metrics recorded by the mutation services.
type MetricsCollector interface {
	RecordOperation(component, operation, result string, duration time.Duration)
	RecordCacheHit(entity string)
	RecordCacheMiss(entity string)
	RecordCacheError(op string)
	RecordLedgerConflict(component string)
	RecordCompensation(component, result string)
	RecordReconciliation(component, reason string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperation(string, string, string, time.Duration) {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                                 {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                                {}
func (n *NoopMetricsCollector) RecordCacheError(string)                               {}
func (n *NoopMetricsCollector) RecordLedgerConflict(string)                           {}
func (n *NoopMetricsCollector) RecordCompensation(string, string)                     {}
func (n *NoopMetricsCollector) RecordReconciliation(string, string)                   {}

type PrometheusMetrics struct {
	operations      *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	cacheErrors     *prometheus.CounterVec
	ledgerConflicts *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	f := promauto.With(reg)
	return &PrometheusMetrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dompet_operations_total",
			Help: "Total number of mutation and query operations by result.",
		}, []string{"component", "operation", "result"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dompet_operation_latency_seconds",
			Help:    "Latency of mutation and query operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component", "operation"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dompet_cache_lookups_total",
			Help: "Cache lookups by entity and outcome.",
		}, []string{"entity", "outcome"}),
		cacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dompet_cache_errors_total",
			Help: "Cache operations that failed and were treated as a miss.",
		}, []string{"op"}),
		ledgerConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dompet_ledger_conflicts_total",
			Help: "Compare-and-swap conflicts on ledger writes.",
		}, []string{"component"}),
		compensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dompet_compensations_total",
			Help: "Compensating ledger writes by result.",
		}, []string{"component", "result"}),
		reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dompet_reconciliations_required_total",
			Help: "Records left needing manual reconciliation.",
		}, []string{"component", "reason"}),
	}
}

func (m *PrometheusMetrics) RecordOperation(component, operation, result string, duration time.Duration) {
	m.operations.WithLabelValues(component, operation, result).Inc()
	m.latency.WithLabelValues(component, operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordCacheHit(entity string) {
	m.cacheLookups.WithLabelValues(entity, "hit").Inc()
}

func (m *PrometheusMetrics) RecordCacheMiss(entity string) {
	m.cacheLookups.WithLabelValues(entity, "miss").Inc()
}

func (m *PrometheusMetrics) RecordCacheError(op string) {
	m.cacheErrors.WithLabelValues(op).Inc()
}

func (m *PrometheusMetrics) RecordLedgerConflict(component string) {
	m.ledgerConflicts.WithLabelValues(component).Inc()
}

func (m *PrometheusMetrics) RecordCompensation(component, result string) {
	m.compensations.WithLabelValues(component, result).Inc()
}

func (m *PrometheusMetrics) RecordReconciliation(component, reason string) {
	m.reconciliations.WithLabelValues(component, reason).Inc()
}
