package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the signaling core's Prometheus collectors.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	LiveRooms         prometheus.Gauge
	JoinsTotal        prometheus.Counter
	JoinsRejected     prometheus.Counter
	MessagesRelayed   prometheus.Counter
	SignalsRelayed    prometheus.Counter
	DeliveriesDropped prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lemon",
			Name:      "active_connections",
			Help:      "Number of live websocket connections.",
		}),
		LiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lemon",
			Name:      "live_rooms",
			Help:      "Number of rooms with at least one occupant.",
		}),
		JoinsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lemon",
			Name:      "joins_total",
			Help:      "Accepted join-room requests.",
		}),
		JoinsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lemon",
			Name:      "joins_rejected_total",
			Help:      "join-room requests rejected for a missing room or peer id.",
		}),
		MessagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lemon",
			Name:      "messages_relayed_total",
			Help:      "Chat messages fanned out to a room.",
		}),
		SignalsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lemon",
			Name:      "signals_relayed_total",
			Help:      "Call-signal payloads routed between peers.",
		}),
		DeliveriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lemon",
			Name:      "deliveries_dropped_total",
			Help:      "Events dropped because a recipient buffer was full.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.LiveRooms,
		m.JoinsTotal,
		m.JoinsRejected,
		m.MessagesRelayed,
		m.SignalsRelayed,
		m.DeliveriesDropped,
	)

	return m
}
