// Package metrics holds Prometheus instruments for the onboarding flow.  All
// collectors are registered with the global registry, so mounting promhttp in
// cmd/web is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes, used as the "outcome" label value.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeConfig    = "config"
	OutcomeServer    = "server"
	OutcomeTransport = "transport"
	OutcomeTimeout   = "timeout"
	OutcomeBusy      = "busy"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_submissions_total",
			Help: "Submit triggers by outcome.",
		}, []string{"outcome"})

	SubmissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboard_submission_duration_seconds",
			Help:    "Time spent waiting on the remote endpoint.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		})

	FormSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboard_form_sessions",
			Help: "Browser sessions currently holding a submission controller.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		SubmissionDuration,
		FormSessions,
	)
}
