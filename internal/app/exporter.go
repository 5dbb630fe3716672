package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arcas-io/load-server/internal/core"
	"github.com/arcas-io/load-server/internal/metrics"
)

// Exporter periodically sweeps the registry and publishes aggregate
// gauges. It reuses the same stats fan-out the RPC surface uses, so a
// sweep never blocks session mutation.
type Exporter struct {
	registry  *core.Registry
	collector core.StatsCollector
	interval  time.Duration
}

func NewExporter(registry *core.Registry, collector core.StatsCollector, interval time.Duration) *Exporter {
	return &Exporter{registry: registry, collector: collector, interval: interval}
}

// Run sweeps until ctx is canceled. A non-positive interval disables the
// exporter.
func (e *Exporter) Run(ctx context.Context) {
	logger := log.With().Str("module", "app.exporter").Logger()
	if e.interval <= 0 {
		logger.Info().Msg("stats exporter disabled")
		return
	}
	logger.Info().Dur("interval", e.interval).Msg("stats exporter running")
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stats exporter stopped")
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *Exporter) sweep(ctx context.Context) {
	sessions := e.registry.Snapshot()
	var (
		peerConnections int
		packets         uint64
		bytes           uint64
	)
	for _, session := range sessions {
		peerConnections += session.PeerConnectionCount()
		stats := session.Stats(ctx, e.collector)
		for _, pc := range stats.PeerConnections {
			for _, stream := range pc.Streams {
				packets += stream.PacketsSent
				bytes += stream.BytesSent
			}
		}
	}
	metrics.SessionsActive.Set(float64(len(sessions)))
	metrics.PeerConnectionsActive.Set(float64(peerConnections))
	metrics.OutboundPacketsSent.Set(float64(packets))
	metrics.OutboundBytesSent.Set(float64(bytes))
}
