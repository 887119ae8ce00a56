// Package metrics exposes relay counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pairsignal"

// Metrics owns its registry so tests and multiple servers don't collide on
// the global one. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	Connections  prometheus.Gauge
	Rooms        prometheus.Gauge
	Events       *prometheus.CounterVec
	Errors       *prometheus.CounterVec
	Pairings     prometheus.Counter
	RelayDropped *prometheus.CounterVec
	SendDropped  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live signaling connections.",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one participant.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events accepted by the codec, by type.",
		}, []string{"type"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Error events sent to clients, by kind.",
		}, []string{"kind"}),
		Pairings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairings_total",
			Help:      "Rooms that reached the paired phase.",
		}),
		RelayDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_dropped_total",
			Help:      "Relay events dropped because no peer was present.",
		}, []string{"type"}),
		SendDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_dropped_total",
			Help:      "Outbound events not queued, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.Connections, m.Rooms, m.Events, m.Errors, m.Pairings, m.RelayDropped, m.SendDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Event(typ string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(typ).Inc()
}

func (m *Metrics) Error(kind string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Paired() {
	if m == nil {
		return
	}
	m.Pairings.Inc()
}

func (m *Metrics) Dropped(typ string) {
	if m == nil {
		return
	}
	m.RelayDropped.WithLabelValues(typ).Inc()
}

func (m *Metrics) SendDrop(reason string) {
	if m == nil {
		return
	}
	m.SendDropped.WithLabelValues(reason).Inc()
}

// SetGauges publishes the current table and registry sizes.
func (m *Metrics) SetGauges(conns, rooms int) {
	if m == nil {
		return
	}
	m.Connections.Set(float64(conns))
	m.Rooms.Set(float64(rooms))
}
