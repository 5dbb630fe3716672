// Package rtc adapts pion/webrtc to the core Engine, Connection and
// StatsCollector seams. Each connection gets its own webrtc.API so the
// stats interceptor getter binds unambiguously to that connection.
package rtc

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/stats"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/arcas-io/load-server/internal/adapters/media"
	"github.com/arcas-io/load-server/internal/core"
)

const initialTrackLabel = "video"

// Engine builds pion peer connections wired to a session's media source.
type Engine struct {
	config webrtc.Configuration
}

// DefaultICEServers is used when the configuration names none.
func DefaultICEServers() []string {
	return []string{"stun:stun.l.google.com:19302"}
}

func NewEngine(iceServers []string) *Engine {
	if len(iceServers) == 0 {
		iceServers = DefaultICEServers()
	}
	return &Engine{
		config: webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{{URLs: iceServers}},
		},
	}
}

// CreateConnection builds a peer connection with the default codecs and
// interceptors plus a stats interceptor, attaches one video track from the
// session source, and starts the RTCP drain for its sender.
func (e *Engine) CreateConnection(src core.MediaSource) (core.Connection, error) {
	msrc, err := sourceOf(src)
	if err != nil {
		return nil, err
	}

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	registry := &interceptor.Registry{}
	statsFactory, err := stats.NewInterceptor()
	if err != nil {
		return nil, fmt.Errorf("build stats interceptor: %w", err)
	}
	var getter stats.Getter
	statsFactory.OnNewPeerConnection(func(_ string, g stats.Getter) {
		getter = g
	})
	registry.Add(statsFactory)
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	)
	pc, err := api.NewPeerConnection(e.config)
	if err != nil {
		return nil, err
	}

	conn := newConnection(pc, msrc, getter)
	if err := conn.AddTrack(src, initialTrackLabel); err != nil {
		_ = pc.Close()
		return nil, err
	}
	return conn, nil
}

// sourceOf unwraps the media adapter source behind the core seam.
func sourceOf(src core.MediaSource) (*media.Source, error) {
	msrc, ok := src.(*media.Source)
	if !ok {
		return nil, fmt.Errorf("unsupported media source %T", src)
	}
	return msrc, nil
}

// drainRTCP keeps reading sender reports so interceptors see feedback. The
// loop ends when the sender is closed with its peer connection.
func drainRTCP(sender *webrtc.RTPSender) {
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
}

func logStateChanges(pc *webrtc.PeerConnection, sourceID string) {
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().
			Str("module", "rtc").
			Str("source_id", sourceID).
			Str("peer_connection_state", s.String()).
			Msg("peer connection state")
	})
	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Debug().
			Str("module", "rtc").
			Str("source_id", sourceID).
			Str("ice_state", s.String()).
			Msg("ice state")
	})
}
