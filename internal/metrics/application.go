package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FingerprintMetrics tracks domain-specific metrics for the
// fingerprinting pipeline and duplicate decider.
type FingerprintMetrics struct {
	JobsSubmittedTotal      prometheus.CounterVec
	JobProcessingDuration   prometheus.HistogramVec
	JobProcessingFailures   prometheus.CounterVec
	QueuePendingJobs        prometheus.GaugeVec
	DecisionsTotal          prometheus.CounterVec
	CandidatesPerDecision   prometheus.HistogramVec
}

// InitializeFingerprintMetrics creates and registers the fingerprinting
// domain metrics.
func InitializeFingerprintMetrics() *FingerprintMetrics {
	return &FingerprintMetrics{
		JobsSubmittedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fingerprint_jobs_submitted_total",
				Help: "Total number of fingerprinting jobs submitted",
			},
			[]string{},
		),
		JobProcessingDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fingerprint_job_processing_duration_seconds",
				Help:    "Fingerprinting job processing duration in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		JobProcessingFailures: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fingerprint_job_processing_failures_total",
				Help: "Total fingerprinting job processing failures",
			},
			[]string{"reason"},
		),
		QueuePendingJobs: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fingerprint_queue_pending_jobs",
				Help: "Number of pending fingerprinting jobs",
			},
			[]string{},
		),
		DecisionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fingerprint_decisions_total",
				Help: "Total duplicate decisions made, by outcome",
			},
			[]string{"outcome"},
		),
		CandidatesPerDecision: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fingerprint_decision_candidates",
				Help:    "Number of candidate videos considered per decision",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"source"},
		),
	}
}
