package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Plan outcomes.
const (
	outcomeAnswer   = "answer"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	planRequests *prometheus.CounterVec
	streamEvents *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	planDuration prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		planRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourmesh",
			Name:      "plan_requests_total",
			Help:      "Plan requests by outcome.",
		}, []string{"outcome"}),
		streamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourmesh",
			Name:      "stream_events_total",
			Help:      "Stream events written by type.",
		}, []string{"type"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourmesh",
			Name:      "tool_calls_total",
			Help:      "Tool calls requested by agents, by tool.",
		}, []string{"tool"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tourmesh",
			Name:      "plan_duration_seconds",
			Help:      "Duration of plan requests.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	reg.MustRegister(m.planRequests, m.streamEvents, m.toolCalls, m.planDuration)

	return m
}
