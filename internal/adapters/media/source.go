// Package media implements the synthetic video pipeline: one Source per
// session, fanned out to every local track attached to it, fed by a frame
// Producer running at a fixed rate.
package media

import (
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

const (
	videoClockRate  = 90000
	vp8PayloadType  = 96
	defaultStreamID = "0"
)

// rtpSink is the write side of a local track.
type rtpSink interface {
	WriteRTP(p *rtp.Packet) error
}

// Source is a session's shared media origin. Tracks created from it receive
// every packet the producer emits. Tracks are never detached; one whose
// peer connection has closed simply has no bindings left and swallows
// writes.
type Source struct {
	id string

	mu    sync.RWMutex
	sinks []rtpSink
}

func NewSource(id string) *Source {
	return &Source{id: id}
}

func (s *Source) ID() string { return s.id }

// NewTrack creates a VP8 local track fed by this source. Each call returns
// a distinct track even when labels repeat, so every peer connection gets
// its own sender.
func (s *Source) NewTrack(label string) (*webrtc.TrackLocalStaticRTP, error) {
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: videoClockRate},
		label,
		defaultStreamID,
	)
	if err != nil {
		return nil, err
	}
	s.addSink(track)
	return track, nil
}

func (s *Source) addSink(sink rtpSink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// writeRTP fans one packet out to a snapshot of the attached tracks and
// reports how many writes failed. The sink list lock is not held while
// writing.
func (s *Source) writeRTP(pkt *rtp.Packet) int {
	s.mu.RLock()
	sinks := make([]rtpSink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.RUnlock()

	failed := 0
	for _, sink := range sinks {
		if err := sink.WriteRTP(pkt); err != nil {
			failed++
		}
	}
	return failed
}
