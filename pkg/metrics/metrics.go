// Package metrics exposes prometheus instrumentation for the
// enhancement pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltgate_provider_attempts_total",
			Help: "Enhancement send attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voltgate_provider_fallbacks_total",
			Help: "Times the orchestrator moved past an exhausted provider",
		},
	)

	EnhancementsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voltgate_enhancements_failed_total",
			Help: "Jobs where every provider was exhausted",
		},
	)

	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltgate_jobs_total",
			Help: "Terminal job outcomes by status and route source",
		},
		[]string{"status", "source"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "voltgate_job_duration_seconds",
			Help: "Wall time from job start to terminal state",
		},
	)
)
