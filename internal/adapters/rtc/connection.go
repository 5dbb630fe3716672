package rtc

import (
	"github.com/pion/interceptor/pkg/stats"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/arcas-io/load-server/internal/adapters/media"
	"github.com/arcas-io/load-server/internal/core"
)

// candidateBufferSize bounds buffered local ICE candidates per connection.
// Gathering outpacing the reader drops candidates with a warning rather
// than blocking the signaling goroutine.
const candidateBufferSize = 10

// Connection wraps one pion peer connection. Callers serialize access
// through the registry, so no internal locking beyond pion's own.
type Connection struct {
	pc          *webrtc.PeerConnection
	source      *media.Source
	statsGetter stats.Getter
	candidates  chan string
}

var _ core.Connection = (*Connection)(nil)

func newConnection(pc *webrtc.PeerConnection, source *media.Source, getter stats.Getter) *Connection {
	c := &Connection{
		pc:          pc,
		source:      source,
		statsGetter: getter,
		candidates:  make(chan string, candidateBufferSize),
	}
	logStateChanges(pc, source.ID())
	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		select {
		case c.candidates <- cand.ToJSON().Candidate:
		default:
			log.Warn().
				Str("module", "rtc").
				Str("source_id", source.ID()).
				Msg("ice candidate buffer full, dropping candidate")
		}
	})
	return c
}

// Candidates exposes buffered local ICE candidates as they gather.
func (c *Connection) Candidates() <-chan string { return c.candidates }

func (c *Connection) CreateOffer() (core.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return core.SessionDescription{}, err
	}
	return fromPion(offer), nil
}

func (c *Connection) CreateAnswer() (core.SessionDescription, error) {
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return core.SessionDescription{}, err
	}
	return fromPion(answer), nil
}

func (c *Connection) SetLocalDescription(desc core.SessionDescription) error {
	return c.pc.SetLocalDescription(toPion(desc))
}

func (c *Connection) SetRemoteDescription(desc core.SessionDescription) error {
	return c.pc.SetRemoteDescription(toPion(desc))
}

// AddTrack attaches another track from the session source under label.
func (c *Connection) AddTrack(src core.MediaSource, label string) error {
	msrc, err := sourceOf(src)
	if err != nil {
		return err
	}
	track, err := msrc.NewTrack(label)
	if err != nil {
		return err
	}
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return err
	}
	drainRTCP(sender)
	return nil
}

// AddTransceiver attaches a sendrecv transceiver carrying a track from the
// session source.
func (c *Connection) AddTransceiver(src core.MediaSource, label string) error {
	msrc, err := sourceOf(src)
	if err != nil {
		return err
	}
	track, err := msrc.NewTrack(label)
	if err != nil {
		return err
	}
	transceiver, err := c.pc.AddTransceiverFromTrack(track, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendrecv,
	})
	if err != nil {
		return err
	}
	drainRTCP(transceiver.Sender())
	return nil
}

func (c *Connection) Close() error {
	return c.pc.Close()
}

func toPion(desc core.SessionDescription) webrtc.SessionDescription {
	return webrtc.SessionDescription{
		Type: webrtc.NewSDPType(string(desc.Type)),
		SDP:  desc.SDP,
	}
}

func fromPion(desc webrtc.SessionDescription) core.SessionDescription {
	return core.SessionDescription{
		Type: core.SDPType(desc.Type.String()),
		SDP:  desc.SDP,
	}
}
