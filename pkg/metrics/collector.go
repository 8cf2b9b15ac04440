// Package metrics exposes Prometheus collectors for the loyalty bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of phone resolutions labeled by outcome (new or returning)",
		},
		[]string{"result"},
	)
	resolveDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolve_duration_seconds",
			Help:    "Duration of find-or-create resolution calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	nameValidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "name_validation_total",
			Help: "Total number of name submissions labeled by outcome",
		},
		[]string{"outcome"},
	)
	workflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of registration workflow transitions",
		},
		[]string{"from", "to"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of Telegram update handling labeled by handler and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

// RecordRegistration counts a resolution outcome and its duration.
func RecordRegistration(result string, duration time.Duration) {
	if result == "" {
		result = "unknown"
	}

	registrationsTotal.WithLabelValues(result).Inc()
	resolveDurationSeconds.Observe(duration.Seconds())
}

// RecordNameValidation counts an accepted or rejected name submission.
// Rejections carry the specific reason as the outcome label.
func RecordNameValidation(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	nameValidationTotal.WithLabelValues(outcome).Inc()
}

// RecordWorkflowTransition tracks registration FSM transitions.
func RecordWorkflowTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	workflowTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordUpdate measures a handled Telegram update.
func RecordUpdate(handler, status string, duration time.Duration) {
	if handler == "" {
		handler = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updateDurationSeconds.WithLabelValues(handler, status).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}
