package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the moderation pipeline collectors. Construct once per
// process with New and share by reference. All recording helpers accept a
// nil receiver, which disables recording.
type Metrics struct {
	evaluations      *prometheus.CounterVec
	actions          *prometheus.CounterVec
	banExecutions    *prometheus.CounterVec
	outboxPublishes  *prometheus.CounterVec
	failOpens        prometheus.Counter
	auditFailures    prometheus.Counter
	evaluateDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_evaluations_total",
				Help: "Total evaluate calls by verdict outcome.",
			},
			[]string{"outcome"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_actions_total",
				Help: "Enforcement actions issued, by kind.",
			},
			[]string{"kind"},
		),
		banExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_ban_executions_total",
				Help: "Directory ban invocations, by result.",
			},
			[]string{"result"},
		),
		outboxPublishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_outbox_publishes_total",
				Help: "Outbox delivery attempts, by event type and result.",
			},
			[]string{"event_type", "result"},
		),
		failOpens: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moderation_classifier_fail_open_total",
				Help: "Semantic classifier failures answered with the fail-open verdict.",
			},
		),
		auditFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moderation_audit_write_failures_total",
				Help: "Audit entries that could not be persisted.",
			},
		),
		evaluateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moderation_evaluate_duration_seconds",
				Help:    "End-to-end evaluate latency.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(
		m.evaluations,
		m.actions,
		m.banExecutions,
		m.outboxPublishes,
		m.failOpens,
		m.auditFailures,
		m.evaluateDuration,
	)
	return m
}

func (m *Metrics) RecordEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordAction(kind string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordBanExecution(result string) {
	if m == nil {
		return
	}
	m.banExecutions.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordOutboxPublish(eventType, result string) {
	if m == nil {
		return
	}
	m.outboxPublishes.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) RecordFailOpen() {
	if m == nil {
		return
	}
	m.failOpens.Inc()
}

func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

func (m *Metrics) ObserveEvaluateDuration(seconds float64) {
	if m == nil {
		return
	}
	m.evaluateDuration.Observe(seconds)
}
