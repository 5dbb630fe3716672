package rtc

import (
	"context"
	"fmt"

	"github.com/arcas-io/load-server/internal/core"
)

// Collector reads outbound stream counters from the per-connection stats
// interceptor getter. Streams that have not sent anything yet have no
// interceptor entry and are omitted.
type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

func (*Collector) Collect(_ context.Context, conn core.Connection) ([]core.OutboundStreamStats, error) {
	c, ok := conn.(*Connection)
	if !ok {
		return nil, fmt.Errorf("unsupported connection type %T", conn)
	}

	senders := c.pc.GetSenders()
	out := make([]core.OutboundStreamStats, 0, len(senders))
	for _, sender := range senders {
		track := sender.Track()
		if track == nil || c.statsGetter == nil {
			continue
		}
		for _, encoding := range sender.GetParameters().Encodings {
			report := c.statsGetter.Get(uint32(encoding.SSRC))
			if report == nil {
				continue
			}
			outbound := report.OutboundRTPStreamStats
			out = append(out, core.OutboundStreamStats{
				SSRC:            uint32(encoding.SSRC),
				Kind:            track.Kind().String(),
				PacketsSent:     outbound.PacketsSent,
				BytesSent:       outbound.BytesSent,
				HeaderBytesSent: outbound.HeaderBytesSent,
				NACKCount:       outbound.NACKCount,
				PLICount:        outbound.PLICount,
				FIRCount:        outbound.FIRCount,
			})
		}
	}
	return out, nil
}
