package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeOK labels successful operations.
	OutcomeOK = "ok"
	// OutcomeError labels failed operations.
	OutcomeError = "error"
)

var (
	eventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_guard",
			Name:      "events_ingested_total",
			Help:      "Inbound ticket events, partitioned by disposition.",
		},
		[]string{"disposition"}, // accepted | duplicate | invalid | stale
	)

	scorerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_guard",
			Name:      "scorer_calls_total",
			Help:      "Calls to the prediction backend, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	scorerLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sla_guard",
			Name:      "scorer_latency_seconds",
			Help:      "Prediction backend latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3},
		},
	)

	assessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_guard",
			Name:      "assessments_total",
			Help:      "Risk assessments produced, partitioned by band and degraded flag.",
		},
		[]string{"band", "degraded"},
	)

	dispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_guard",
			Name:      "action_dispatches_total",
			Help:      "Preventive action dispatches, partitioned by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	escalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sla_guard",
			Name:      "workflow_escalations_total",
			Help:      "Workflows escalated to humans after retry exhaustion.",
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sla_guard",
			Name:      "queue_depth",
			Help:      "Number of tickets in the What Next projection.",
		},
	)
)

// RegisterMetrics attaches collectors to the supplied Prometheus registerer.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsIngestedTotal,
		scorerCallsTotal,
		scorerLatencySeconds,
		assessmentsTotal,
		dispatchesTotal,
		escalationsTotal,
		queueDepth,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEventIngested records an inbound event disposition.
func ObserveEventIngested(disposition string) {
	eventsIngestedTotal.WithLabelValues(disposition).Inc()
}

// ObserveScorerCall records a prediction backend call.
func ObserveScorerCall(duration time.Duration, outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeOK
	}
	scorerCallsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	scorerLatencySeconds.Observe(duration.Seconds())
}

// ObserveAssessment records a produced risk assessment.
func ObserveAssessment(band string, degraded bool) {
	flag := "false"
	if degraded {
		flag = "true"
	}
	assessmentsTotal.WithLabelValues(band, flag).Inc()
}

// ObserveDispatch records an action dispatch result.
func ObserveDispatch(action, outcome string) {
	dispatchesTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveEscalation records a workflow escalation.
func ObserveEscalation() {
	escalationsTotal.Inc()
}

// SetQueueDepth updates the projection depth gauge.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}
