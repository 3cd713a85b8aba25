package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WorkflowOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procurement_workflow_operations_total",
			Help: "Number of workflow operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	PartialFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procurement_partial_failures_total",
			Help: "Multi-step operations that stopped after committing some steps",
		},
		[]string{"operation"},
	)

	Inconsistencies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procurement_inconsistencies_total",
			Help: "Cross-entity mismatches found by reconciliation",
		},
		[]string{"kind"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "procurement_reconcile_duration_seconds",
			Help: "Time taken by one reconciliation pass",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procurement_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WorkflowOperations,
			PartialFailures,
			Inconsistencies,
			ReconcileDuration,
			HTTPRequestDuration,
		)
	})
}

// Outcome labels for WorkflowOperations
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
