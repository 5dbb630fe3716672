package http

import (
	"context"
	"fmt"
	"sync"

	"github.com/arcas-io/load-server/internal/core"
)

type fakeSource struct {
	id string
}

func (f *fakeSource) ID() string { return f.id }

type fakeProducer struct{}

func (*fakeProducer) Cancel() {}

type fakeProvider struct {
	mu      sync.Mutex
	started int
}

func (f *fakeProvider) Start() (core.MediaSource, core.FrameProducer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return &fakeSource{id: fmt.Sprintf("source-%d", f.started)}, &fakeProducer{}, nil
}

type fakeConnection struct {
	mu           sync.Mutex
	offers       int
	answers      int
	locals       []core.SessionDescription
	remotes      []core.SessionDescription
	trackLabels  []string
	transceivers []string
}

func (f *fakeConnection) CreateOffer() (core.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers++
	return core.SessionDescription{Type: core.SDPTypeOffer, SDP: "v=0 fake offer"}, nil
}

func (f *fakeConnection) CreateAnswer() (core.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers++
	return core.SessionDescription{Type: core.SDPTypeAnswer, SDP: "v=0 fake answer"}, nil
}

func (f *fakeConnection) SetLocalDescription(desc core.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locals = append(f.locals, desc)
	return nil
}

func (f *fakeConnection) SetRemoteDescription(desc core.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remotes = append(f.remotes, desc)
	return nil
}

func (f *fakeConnection) AddTrack(_ core.MediaSource, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackLabels = append(f.trackLabels, label)
	return nil
}

func (f *fakeConnection) AddTransceiver(_ core.MediaSource, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transceivers = append(f.transceivers, label)
	return nil
}

func (f *fakeConnection) Close() error { return nil }

type fakeEngine struct {
	mu    sync.Mutex
	conns []*fakeConnection
}

func (f *fakeEngine) CreateConnection(core.MediaSource) (core.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn := &fakeConnection{}
	f.conns = append(f.conns, conn)
	return conn, nil
}

func (f *fakeEngine) lastConn() *fakeConnection {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

type fakeCollector struct {
	streams []core.OutboundStreamStats
}

func (f *fakeCollector) Collect(context.Context, core.Connection) ([]core.OutboundStreamStats, error) {
	return f.streams, nil
}
