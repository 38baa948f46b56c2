// Package metrics exposes engine counters and gauges for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SessionsCreated  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	MovesPlayed      prometheus.Counter
	Rejections       *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	QueuedPlayers    prometheus.Gauge
	OpLatency        *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New registers every collector on a private registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created, by source (queue or challenge)",
		}, []string{"source"}),
		SessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Sessions finished, by result (won or draw)",
		}, []string{"result"}),
		MovesPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Accepted moves",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected operations, by error code",
		}, []string{"op", "code"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently running",
		}),
		QueuedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queued_players",
			Help:      "Accounts waiting in the matchmaking queue",
		}),
		OpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "op_latency_seconds",
			Help:      "Operation latency including store round trips",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.SessionsCreated,
		m.SessionsFinished,
		m.MovesPlayed,
		m.Rejections,
		m.ActiveSessions,
		m.QueuedPlayers,
		m.OpLatency,
	)
	return m
}

// Registry returns the registry holding the engine collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOp records one operation's latency.
func (m *Metrics) ObserveOp(op string, started time.Time) {
	if m == nil {
		return
	}
	m.OpLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Reject counts a rejected operation.
func (m *Metrics) Reject(op, code string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(op, code).Inc()
}

// SetGauges publishes the current session and queue sizes.
func (m *Metrics) SetGauges(activeSessions, queued int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(activeSessions))
	m.QueuedPlayers.Set(float64(queued))
}

func (m *Metrics) SessionCreated(source string) {
	if m == nil {
		return
	}
	m.SessionsCreated.WithLabelValues(source).Inc()
}

// SessionFinished counts a finished game; result is "won" or "draw".
func (m *Metrics) SessionFinished(result string) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(result).Inc()
}

func (m *Metrics) MovePlayed() {
	if m == nil {
		return
	}
	m.MovesPlayed.Inc()
}
