package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	// wsConnections gauges open WebSocket connections, announced or not.
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Current number of open realtime connections.",
		},
	)

	// wsEvents counts inbound and outbound events by name.
	wsEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Realtime events processed, by event name.",
		},
		[]string{"event"},
	)

	// wsDropped counts outbound events dropped on saturated or closed connections.
	wsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_dropped_events_total",
			Help: "Outbound realtime events that could not be queued.",
		},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsEvents, wsDropped)
}
