package media

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/rs/zerolog/log"

	"github.com/arcas-io/load-server/internal/core"
	"github.com/arcas-io/load-server/internal/metrics"
)

const (
	defaultFPS         = 30
	defaultFrameBytes  = 37500
	defaultPacketBytes = 1200
)

// Config sizes the synthetic feed. Defaults approximate a 720p/30fps
// stream at roughly 9 Mbit/s.
type Config struct {
	FPS         int
	FrameBytes  int
	PacketBytes int
}

func (c Config) withDefaults() Config {
	if c.FPS <= 0 {
		c.FPS = defaultFPS
	}
	if c.FrameBytes <= 0 {
		c.FrameBytes = defaultFrameBytes
	}
	if c.PacketBytes <= 0 {
		c.PacketBytes = defaultPacketBytes
	}
	return c
}

// Provider builds the source and running producer for each new session.
type Provider struct {
	ctx context.Context
	cfg Config
}

// NewProvider binds all future producers to ctx; canceling it stops every
// producer the provider started, independent of per-session cancelation.
func NewProvider(ctx context.Context, cfg Config) *Provider {
	return &Provider{ctx: ctx, cfg: cfg.withDefaults()}
}

// Start creates a fresh source and launches its producer goroutine.
func (p *Provider) Start() (core.MediaSource, core.FrameProducer, error) {
	src := NewSource(uuid.NewString())
	ctx, cancel := context.WithCancel(p.ctx)
	prod := &Producer{cancel: cancel, done: make(chan struct{})}
	go prod.run(ctx, src, p.cfg)
	log.Info().
		Str("module", "media.provider").
		Str("source_id", src.ID()).
		Int("fps", p.cfg.FPS).
		Msg("frame producer started")
	return src, prod, nil
}

// Producer drives one synthetic feed until canceled.
type Producer struct {
	cancelOnce sync.Once
	cancel     context.CancelFunc
	done       chan struct{}
}

// Cancel stops the producer. It is idempotent and returns without waiting
// for the feed loop to exit.
func (p *Producer) Cancel() {
	p.cancelOnce.Do(p.cancel)
}

// Done closes once the feed loop has exited.
func (p *Producer) Done() <-chan struct{} { return p.done }

func (p *Producer) run(ctx context.Context, src *Source, cfg Config) {
	defer close(p.done)
	logger := log.With().
		Str("module", "media.producer").
		Str("source_id", src.ID()).
		Logger()

	frames := newPacketizer(cfg)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("frame producer stopped")
			return
		case <-ticker.C:
			failed := 0
			for _, pkt := range frames.nextFrame() {
				failed += src.writeRTP(pkt)
			}
			metrics.FramesProduced.Inc()
			if failed > 0 {
				metrics.RTPWriteErrors.Add(float64(failed))
				logger.Warn().Int("failed_writes", failed).Msg("rtp writes failed")
			}
		}
	}
}

// packetizer slices fixed-size frames into RTP packets. Packets of one
// frame share a timestamp and the last carries the marker bit. Sequence
// numbers run continuously across frames.
type packetizer struct {
	seq           uint16
	timestamp     uint32
	ticksPerFrame uint32
	ssrc          uint32
	frameBytes    int
	packetBytes   int
	payload       []byte
}

func newPacketizer(cfg Config) *packetizer {
	payload := make([]byte, cfg.PacketBytes)
	for i := range payload {
		payload[i] = byte(i)
	}
	return &packetizer{
		seq:           uint16(rand.Uint32()),
		timestamp:     rand.Uint32(),
		ticksPerFrame: uint32(videoClockRate / cfg.FPS),
		ssrc:          rand.Uint32(),
		frameBytes:    cfg.FrameBytes,
		packetBytes:   cfg.PacketBytes,
		payload:       payload,
	}
}

func (p *packetizer) nextFrame() []*rtp.Packet {
	count := (p.frameBytes + p.packetBytes - 1) / p.packetBytes
	packets := make([]*rtp.Packet, 0, count)
	remaining := p.frameBytes
	for remaining > 0 {
		size := p.packetBytes
		if remaining < size {
			size = remaining
		}
		remaining -= size
		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         remaining == 0,
				PayloadType:    vp8PayloadType,
				SequenceNumber: p.seq,
				Timestamp:      p.timestamp,
				SSRC:           p.ssrc,
			},
			Payload: p.payload[:size],
		})
		p.seq++
	}
	p.timestamp += p.ticksPerFrame
	return packets
}
