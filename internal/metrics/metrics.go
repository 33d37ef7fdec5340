package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsTotal counts wizard sessions by lifecycle event
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_sessions_total",
			Help: "Total number of wizard sessions by lifecycle event",
		},
		[]string{"event"},
	)

	// StepTransitions counts state machine transitions
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Total number of wizard step transitions",
		},
		[]string{"from", "to"},
	)

	// GenerationDuration tracks metadata generation time
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wizard_metadata_generation_duration_seconds",
			Help:    "Metadata generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// GenerationsTotal counts metadata generations by outcome
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_metadata_generations_total",
			Help: "Total number of metadata generations by outcome",
		},
		[]string{"outcome"},
	)

	// MetadataSize tracks the estimated on-chain size of generated metadata
	MetadataSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wizard_metadata_estimated_size_bytes",
			Help:    "Estimated on-chain size of generated metadata",
			Buckets: []float64{128, 256, 512, 768, 900, 1024, 1536, 2048},
		},
	)

	// DeploysTotal counts token deployments by status
	DeploysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_token_deploys_total",
			Help: "Total number of token deployments",
		},
		[]string{"status"},
	)

	// OperationsTotal counts post-deployment token operations
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_token_operations_total",
			Help: "Total number of token operations",
		},
		[]string{"operation", "status"},
	)
)
