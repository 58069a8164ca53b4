package guard

import "github.com/prometheus/client_golang/prometheus"

var (
	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abuse_guard_decisions_total",
			Help: "Abuse guard decisions by outcome and reason code.",
		},
		[]string{"outcome", "code"},
	)

	droppedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "abuse_guard_events_dropped_total",
			Help: "Guard events discarded because the log sink buffer was full.",
		},
	)

	// Refreshed on every sweep.
	trackedAddrs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "abuse_guard_tracked_addresses",
			Help: "Addresses with a live request history.",
		},
	)
	blacklistedAddrs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "abuse_guard_blacklisted_addresses",
			Help: "Addresses currently blacklisted.",
		},
	)
)

func init() {
	prometheus.MustRegister(decisions, droppedEvents, trackedAddrs, blacklistedAddrs)
}

func observe(d Decision) {
	code := d.Code
	if code == "" {
		code = "none"
	}
	decisions.WithLabelValues(string(d.Outcome), code).Inc()
}
