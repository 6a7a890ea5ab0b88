package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report hub activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	connections prometheus.Gauge
	broadcasts  *prometheus.CounterVec
	dropped     prometheus.Counter
}

// NewMetrics registers the hub collectors with reg. Collectors that are already
// registered (a second hub in the same process, tests) are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "careflow",
			Subsystem: "hub",
			Name:      "connections",
			Help:      "Number of live dashboard connections.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "hub",
			Name:      "broadcasts_total",
			Help:      "Change notifications fanned out, by kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "hub",
			Name:      "dropped_connections_total",
			Help:      "Connections unregistered after a failed send.",
		}),
	}

	if err := reg.Register(m.connections); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.connections = are.ExistingCollector.(prometheus.Gauge)
		} else {
			panic(err)
		}
	}
	if err := reg.Register(m.broadcasts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.broadcasts = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			panic(err)
		}
	}
	if err := reg.Register(m.dropped); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.dropped = are.ExistingCollector.(prometheus.Counter)
		} else {
			panic(err)
		}
	}
	return m
}

func (m *Metrics) setConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

func (m *Metrics) incBroadcast(kind Kind) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) incDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
