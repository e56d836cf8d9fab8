// Package metrics holds the prometheus collectors of the grading service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AICallAttempts counts chat-completion attempts by outcome (ok, retryable, fatal).
	AICallAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exstem",
		Subsystem: "ai",
		Name:      "call_attempts_total",
		Help:      "Chat-completion attempts by outcome.",
	}, []string{"outcome"})

	// AICallDuration observes the latency of a single attempt.
	AICallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exstem",
		Subsystem: "ai",
		Name:      "call_duration_seconds",
		Help:      "Latency of one chat-completion attempt.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
	})

	// GradedAnswers counts graded answers by question type and verdict.
	GradedAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exstem",
		Subsystem: "grading",
		Name:      "answers_total",
		Help:      "Graded answers by question type and correctness.",
	}, []string{"type", "correctness"})

	// GradingFaults counts answers forced to zero by a grading fault.
	GradingFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exstem",
		Subsystem: "grading",
		Name:      "faults_total",
		Help:      "Answers degraded to zero because grading failed.",
	}, []string{"type"})

	// GradingDuration observes a whole grading pipeline run.
	GradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exstem",
		Subsystem: "grading",
		Name:      "session_duration_seconds",
		Help:      "Duration of grading one session.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"result"})

	// SummaryFallbacks counts sessions graded with a locally rendered summary.
	SummaryFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exstem",
		Subsystem: "grading",
		Name:      "summary_fallbacks_total",
		Help:      "Sessions whose AI summary failed and fell back to a local summary.",
	})

	// BackgroundTasks counts best-effort tasks by result (ok, failed, dropped).
	BackgroundTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exstem",
		Subsystem: "worker",
		Name:      "tasks_total",
		Help:      "Background tasks by result.",
	}, []string{"task", "result"})
)
