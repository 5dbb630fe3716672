package core

import (
	"context"
	"sync"
)

type fakeSource struct {
	id string
}

func (f *fakeSource) ID() string { return f.id }

type fakeProducer struct {
	mu      sync.Mutex
	cancels int
}

func (f *fakeProducer) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeProducer) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

type fakeConnection struct {
	ssrc uint32

	mu           sync.Mutex
	closed       bool
	closeErr     error
	offers       int
	answers      int
	locals       []SessionDescription
	remotes      []SessionDescription
	tracks       []string
	transceivers []string
}

func (f *fakeConnection) CreateOffer() (SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers++
	return SessionDescription{Type: SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (f *fakeConnection) CreateAnswer() (SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers++
	return SessionDescription{Type: SDPTypeAnswer, SDP: "v=0 answer"}, nil
}

func (f *fakeConnection) SetLocalDescription(desc SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locals = append(f.locals, desc)
	return nil
}

func (f *fakeConnection) SetRemoteDescription(desc SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remotes = append(f.remotes, desc)
	return nil
}

func (f *fakeConnection) AddTrack(_ MediaSource, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, label)
	return nil
}

func (f *fakeConnection) AddTransceiver(_ MediaSource, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transceivers = append(f.transceivers, label)
	return nil
}

func (f *fakeConnection) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeConnection) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeCollector struct {
	fn func(conn Connection) ([]OutboundStreamStats, error)
}

func (f *fakeCollector) Collect(_ context.Context, conn Connection) ([]OutboundStreamStats, error) {
	if f.fn == nil {
		return []OutboundStreamStats{}, nil
	}
	return f.fn(conn)
}

func newTestSession(clock Clock) (*Session, *fakeProducer) {
	producer := &fakeProducer{}
	session := NewSession("session-1", "load test", &fakeSource{id: "source-1"}, producer, SessionConfig{Clock: clock})
	return session, producer
}
