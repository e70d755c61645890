package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for classification and review.
type Metrics struct {
	// Classification outcomes by zone
	Classifications *prometheus.CounterVec

	// Results scored without the AI signal
	DegradedScores prometheus.Counter

	// AI collaborator failures and timeouts
	AIFailures prometheus.Counter

	// 1 while the AI breaker is open
	AIBreakerOpen prometheus.Gauge

	// Review decisions by decision and outcome (accepted, rejected)
	ReviewDecisions *prometheus.CounterVec

	ClassifyLatency prometheus.Histogram
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bgv_classifications_total",
			Help: "Total classifications by resulting zone",
		}, []string{"zone"}),

		DegradedScores: f.NewCounter(prometheus.CounterOpts{
			Name: "bgv_degraded_scores_total",
			Help: "Classifications scored on the base score only",
		}),

		AIFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "bgv_ai_analysis_failures_total",
			Help: "AI analysis calls that failed or timed out",
		}),

		AIBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "bgv_ai_breaker_open",
			Help: "Whether the AI analysis circuit breaker is open",
		}),

		ReviewDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bgv_review_decisions_total",
			Help: "Review decisions by decision and outcome",
		}, []string{"decision", "outcome"}),

		ClassifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bgv_classify_duration_seconds",
			Help:    "Duration of one Check classification including the AI fetch",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) ObserveClassification(zone string, degraded bool, d time.Duration) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(zone).Inc()
	if degraded {
		m.DegradedScores.Inc()
	}
	m.ClassifyLatency.Observe(d.Seconds())
}

func (m *Metrics) IncrementAIFailure() {
	if m != nil {
		m.AIFailures.Inc()
	}
}

func (m *Metrics) SetAIBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.AIBreakerOpen.Set(1)
		return
	}
	m.AIBreakerOpen.Set(0)
}

func (m *Metrics) IncrementReview(decision, outcome string) {
	if m != nil {
		m.ReviewDecisions.WithLabelValues(decision, outcome).Inc()
	}
}
