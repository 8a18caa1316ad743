// Package metrics exposes Prometheus instrumentation for frame dispatch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame outcomes.
const (
	OutcomeDispatched       = "dispatched"
	OutcomeMalformed        = "malformed_envelope"
	OutcomeUnroutable       = "unroutable"
	OutcomePayloadMalformed = "malformed_payload"
	OutcomeFailed           = "handler_error"
	OutcomeRateLimited      = "rate_limited"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	frames         *prometheus.CounterVec
	handlerLatency *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchboard",
			Name:      "frames_total",
			Help:      "Inbound frames by dispatch outcome",
		}, []string{"outcome"}),
		handlerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "switchboard",
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time by message type",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tag"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "switchboard",
			Name:      "active_sessions",
			Help:      "Currently open websocket sessions",
		}),
	}
}

func (m *Metrics) Frame(outcome string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHandler(tag string, d time.Duration) {
	if m == nil {
		return
	}
	m.handlerLatency.WithLabelValues(tag).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
