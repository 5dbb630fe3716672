package core

import (
	"context"
	"fmt"
)

// SDPType is the session description flavor carried over the RPC surface.
type SDPType string

const (
	SDPTypeOffer    SDPType = "offer"
	SDPTypePranswer SDPType = "pranswer"
	SDPTypeAnswer   SDPType = "answer"
	SDPTypeRollback SDPType = "rollback"
)

// ParseSDPType validates a wire value for an SDP type.
func ParseSDPType(raw string) (SDPType, error) {
	switch SDPType(raw) {
	case SDPTypeOffer, SDPTypePranswer, SDPTypeAnswer, SDPTypeRollback:
		return SDPType(raw), nil
	default:
		return "", fmt.Errorf("unknown sdp type %q", raw)
	}
}

// SessionDescription is an SDP blob plus its type.
type SessionDescription struct {
	Type SDPType `json:"sdp_type"`
	SDP  string  `json:"sdp"`
}

// MediaSource is the session-wide media origin shared by every peer
// connection in a session. The concrete type lives in the media adapter;
// core treats it as an opaque handle.
type MediaSource interface {
	ID() string
}

// FrameProducer feeds a MediaSource until canceled. Cancel is idempotent
// and returns without waiting for the producer goroutine to exit.
type FrameProducer interface {
	Cancel()
}

// SourceProvider creates the media source and its producer for a new
// session. The producer starts running before Start returns.
type SourceProvider interface {
	Start() (MediaSource, FrameProducer, error)
}

// Connection is one peer connection as seen by the registry. Implementations
// are not required to be safe for concurrent use; PeerConnection serializes
// access through With.
type Connection interface {
	CreateOffer() (SessionDescription, error)
	CreateAnswer() (SessionDescription, error)
	SetLocalDescription(desc SessionDescription) error
	SetRemoteDescription(desc SessionDescription) error
	AddTrack(src MediaSource, label string) error
	AddTransceiver(src MediaSource, label string) error
	Close() error
}

// Engine builds peer connections bound to a session's media source.
type Engine interface {
	CreateConnection(src MediaSource) (Connection, error)
}

// StatsCollector extracts outbound stream counters from one connection.
type StatsCollector interface {
	Collect(ctx context.Context, conn Connection) ([]OutboundStreamStats, error)
}
