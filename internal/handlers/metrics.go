package handlers

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/monitoring"
)

// PipelineMetrics counts webhook pipeline outcomes. All methods tolerate a
// nil receiver and nil vectors so handlers can run without a collector in
// tests.
type PipelineMetrics struct {
	eventsTotal     *prometheus.CounterVec
	outcomesTotal   *prometheus.CounterVec
	publishesTotal  *prometheus.CounterVec
	generateSeconds *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline vectors on the collector.
func NewPipelineMetrics(mc *monitoring.MetricsCollector) *PipelineMetrics {
	if mc == nil {
		return &PipelineMetrics{}
	}
	return &PipelineMetrics{
		eventsTotal: mc.NewCounter("webhook_events_total",
			"Webhook deliveries received, by verification result", []string{"result"}),
		outcomesTotal: mc.NewCounter("pipeline_outcomes_total",
			"Terminal pipeline outcomes per event", []string{"outcome"}),
		publishesTotal: mc.NewCounter("replies_published_total",
			"Replies published, by response kind", []string{"kind"}),
		generateSeconds: mc.NewHistogram("generation_duration_seconds",
			"Reply generation latency", []string{"status"}, nil),
	}
}

func (m *PipelineMetrics) Event(result string) {
	if m == nil || m.eventsTotal == nil {
		return
	}
	m.eventsTotal.WithLabelValues(result).Inc()
}

func (m *PipelineMetrics) Outcome(outcome string) {
	if m == nil || m.outcomesTotal == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) Published(kind string) {
	if m == nil || m.publishesTotal == nil {
		return
	}
	m.publishesTotal.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) GenerationObserved(status string, seconds float64) {
	if m == nil || m.generateSeconds == nil {
		return
	}
	m.generateSeconds.WithLabelValues(status).Observe(seconds)
}
