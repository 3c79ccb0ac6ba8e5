package workflow

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus metrics for the verification workflow.
type Metrics struct {
	SubmissionsTotal   *prometheus.CounterVec   // submissions by entity, method, outcome
	RevisionConflicts  *prometheus.CounterVec   // optimistic-concurrency conflicts by entity
	AlertsTotal        *prometheus.CounterVec   // dispatched alerts by status
	SubmissionDuration *prometheus.HistogramVec // end-to-end submission latency by entity
	ScoreDistribution  *prometheus.HistogramVec // computed scores by entity

	registry *prometheus.Registry
}

// NewMetrics creates and registers the workflow metrics on the given
// registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register workflow metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_evidence_submissions_total",
			Help: "Total number of evidence submissions by entity, method, and outcome",
		},
		[]string{"entity", "method", "outcome"}, // outcome: success, validation_error, not_found, conflict, error
	)

	m.RevisionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_revision_conflicts_total",
			Help: "Total number of optimistic-concurrency conflicts hit during saves, including retried ones",
		},
		[]string{"entity"},
	)

	m.AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_alerts_dispatched_total",
			Help: "Total number of fraud alerts dispatched by delivery status",
		},
		[]string{"status"}, // status: sent, failed
	)

	m.SubmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_submission_duration_seconds",
			Help:    "End-to-end evidence submission latency by entity",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"entity"},
	)

	m.ScoreDistribution = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_score_distribution",
			Help:    "Distribution of computed scores by entity",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"entity"},
	)
}

// Describe implements the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.SubmissionsTotal.Describe(ch)
	m.RevisionConflicts.Describe(ch)
	m.AlertsTotal.Describe(ch)
	m.SubmissionDuration.Describe(ch)
	m.ScoreDistribution.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.SubmissionsTotal.Collect(ch)
	m.RevisionConflicts.Collect(ch)
	m.AlertsTotal.Collect(ch)
	m.SubmissionDuration.Collect(ch)
	m.ScoreDistribution.Collect(ch)
}
