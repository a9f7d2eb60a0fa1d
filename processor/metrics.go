package processor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KeSeaman/deep-causality/metric"
)

// processorMetrics holds Prometheus metrics for the channel processor.
type processorMetrics struct {
	updatesSubmitted prometheus.Counter
	resultsEmitted   prometheus.Counter
	alertsForwarded  prometheus.Counter
	processingErrors prometheus.Counter
	inputUtilization prometheus.Gauge
}

// newProcessorMetrics creates and registers processor metrics with the
// provided registry.
func newProcessorMetrics(registry *metric.MetricsRegistry) (*processorMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &processorMetrics{
		updatesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "processor",
			Name:      "updates_submitted_total",
			Help:      "Total updates accepted onto the input channel",
		}),
		resultsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "processor",
			Name:      "results_emitted_total",
			Help:      "Total results pushed to the output channel",
		}),
		alertsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "processor",
			Name:      "alerts_forwarded_total",
			Help:      "Total alerts forwarded with results",
		}),
		processingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "processor",
			Name:      "processing_errors_total",
			Help:      "Per-update engine errors (update skipped, task continues)",
		}),
		inputUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "deepcausality",
			Subsystem: "processor",
			Name:      "input_utilization_ratio",
			Help:      "Input channel usage (0-1) showing backpressure",
		}),
	}

	const serviceName = "channel_processor"
	if err := registry.RegisterCounter(serviceName, "updates_submitted", m.updatesSubmitted); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "results_emitted", m.resultsEmitted); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "alerts_forwarded", m.alertsForwarded); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "processing_errors", m.processingErrors); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(serviceName, "input_utilization", m.inputUtilization); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *processorMetrics) recordSubmitted(queued, capacity int) {
	if m == nil {
		return
	}
	m.updatesSubmitted.Inc()
	if capacity > 0 {
		m.inputUtilization.Set(float64(queued) / float64(capacity))
	}
}

func (m *processorMetrics) recordResult(alerts int) {
	if m == nil {
		return
	}
	m.resultsEmitted.Inc()
	if alerts > 0 {
		m.alertsForwarded.Add(float64(alerts))
	}
}

func (m *processorMetrics) recordError() {
	if m == nil {
		return
	}
	m.processingErrors.Inc()
}
