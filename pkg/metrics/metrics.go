// Package metrics provides Prometheus metrics for the IPMS wizard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepSubmissionsTotal counts wizard step submissions by outcome
	// (saved, advanced, invalid, failed, busy).
	StepSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipms",
			Subsystem: "wizard",
			Name:      "step_submissions_total",
			Help:      "Total number of wizard step submissions by outcome",
		},
		[]string{"wizard", "step", "action", "outcome"},
	)

	// DraftStoreOperationsTotal counts local draft store reads and writes
	DraftStoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipms",
			Subsystem: "drafts",
			Name:      "operations_total",
			Help:      "Total number of draft store operations",
		},
		[]string{"driver", "op", "outcome"},
	)

	// EntityCacheLookupsTotal counts entity cache lookups by result (hit, miss, patch)
	EntityCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipms",
			Subsystem: "entity_cache",
			Name:      "lookups_total",
			Help:      "Total number of entity cache lookups",
		},
		[]string{"result"},
	)

	// BackendRequestDuration tracks outbound calls to the IPMS backend
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ipms",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks inbound request handling time
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ipms",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// PanicsRecoveredTotal counts panics caught by the recovery middleware
	PanicsRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ipms",
			Subsystem: "http",
			Name:      "panics_recovered_total",
			Help:      "Total number of panics recovered while serving requests",
		},
	)
)
