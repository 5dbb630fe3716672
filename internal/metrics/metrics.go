// Package metrics registers the Prometheus instrumentation for the load
// server. Counters are incremented at the call sites that own the event;
// gauges are refreshed by the stats exporter sweep.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "load_server"

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Sessions created since process start.",
	})

	PeerConnectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "peer_connections_created_total",
		Help:      "Peer connections created since process start.",
	})

	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_state_transitions_total",
		Help:      "Successful session lifecycle transitions.",
	}, []string{"from", "to"})

	StatsCollectErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_collect_errors_total",
		Help:      "Peer connection stats collections that failed.",
	})

	FramesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_produced_total",
		Help:      "Synthetic video frames produced across all sessions.",
	})

	RTPWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rtp_write_errors_total",
		Help:      "RTP packet writes to local tracks that failed.",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sessions currently registered.",
	})

	PeerConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "peer_connections_active",
		Help:      "Peer connections currently registered across all sessions.",
	})

	OutboundPacketsSent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbound_rtp_packets_sent",
		Help:      "Outbound RTP packets sent, summed over all streams at the last exporter sweep.",
	})

	OutboundBytesSent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbound_rtp_bytes_sent",
		Help:      "Outbound RTP payload bytes sent, summed over all streams at the last exporter sweep.",
	})
)
