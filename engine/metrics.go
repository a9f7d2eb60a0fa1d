package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KeSeaman/deep-causality/metric"
)

// engineMetrics holds Prometheus metrics for streaming engine operations.
type engineMetrics struct {
	updatesProcessed prometheus.Counter
	guardBlocked     prometheus.Counter
	alertsEmitted    prometheus.Counter
	alertsSuppressed prometheus.Counter
	trackedPatients  prometheus.Gauge
	riskScores       prometheus.Histogram
}

// newEngineMetrics creates and registers streaming engine metrics with the
// provided registry.
func newEngineMetrics(registry *metric.MetricsRegistry) (*engineMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &engineMetrics{
		updatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "engine",
			Name:      "updates_processed_total",
			Help:      "Total vital updates processed",
		}),
		guardBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "engine",
			Name:      "guard_blocked_total",
			Help:      "Predictions blocked by guardrails",
		}),
		alertsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "engine",
			Name:      "alerts_emitted_total",
			Help:      "Sepsis risk alerts emitted",
		}),
		alertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "engine",
			Name:      "alerts_suppressed_total",
			Help:      "High-risk evaluations suppressed by the alert cooldown",
		}),
		trackedPatients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "deepcausality",
			Subsystem: "engine",
			Name:      "tracked_patients",
			Help:      "Number of patients with in-memory state",
		}),
		riskScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deepcausality",
			Subsystem: "engine",
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.7, 0.75, 0.9, 1.0},
		}),
	}

	const serviceName = "streaming_engine"
	if err := registry.RegisterCounter(serviceName, "updates_processed", m.updatesProcessed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "guard_blocked", m.guardBlocked); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "alerts_emitted", m.alertsEmitted); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "alerts_suppressed", m.alertsSuppressed); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(serviceName, "tracked_patients", m.trackedPatients); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(serviceName, "risk_score", m.riskScores); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *engineMetrics) recordUpdate() {
	if m == nil {
		return
	}
	m.updatesProcessed.Inc()
}

func (m *engineMetrics) recordBlocked() {
	if m == nil {
		return
	}
	m.guardBlocked.Inc()
}

func (m *engineMetrics) recordAlert() {
	if m == nil {
		return
	}
	m.alertsEmitted.Inc()
}

func (m *engineMetrics) recordSuppressed() {
	if m == nil {
		return
	}
	m.alertsSuppressed.Inc()
}

func (m *engineMetrics) recordRisk(score float64) {
	if m == nil {
		return
	}
	m.riskScores.Observe(score)
}

func (m *engineMetrics) setTrackedPatients(n int) {
	if m == nil {
		return
	}
	m.trackedPatients.Set(float64(n))
}
