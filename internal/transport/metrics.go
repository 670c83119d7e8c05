package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOpenPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fiarb",
		Subsystem: "transport",
		Name:      "open_peers",
		Help:      "Connections currently in the Open state.",
	})
	metricAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fiarb",
		Subsystem: "transport",
		Name:      "accepted_total",
		Help:      "Raw streams accepted, whether or not they reached Open.",
	})
	metricHandshakeTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fiarb",
		Subsystem: "transport",
		Name:      "handshake_timeouts_total",
		Help:      "Pending connections force-closed before reaching Open.",
	})
	metricRefused = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fiarb",
		Subsystem: "transport",
		Name:      "refused_total",
		Help:      "Connections turned away while refusing new connections.",
	})
	metricMessagesIn = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fiarb",
		Subsystem: "transport",
		Name:      "messages_in_total",
		Help:      "Decoded inbound messages delivered to the authority.",
	})
	metricMessagesOut = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fiarb",
		Subsystem: "transport",
		Name:      "messages_out_total",
		Help:      "Messages enqueued for delivery to peers.",
	})
)
