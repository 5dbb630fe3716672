package app

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

type fakeProvider struct {
	mu        sync.Mutex
	err       error
	started   int
	producers []*fakeProducer
}

func (f *fakeProvider) Start() (core.MediaSource, core.FrameProducer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	f.started++
	producer := &fakeProducer{}
	f.producers = append(f.producers, producer)
	return &fakeSource{id: fmt.Sprintf("source-%d", f.started)}, producer, nil
}

type trackAdd struct {
	src   core.MediaSource
	label string
}

type fakeConnection struct {
	mu           sync.Mutex
	closed       bool
	offers       int
	answers      int
	locals       []core.SessionDescription
	remotes      []core.SessionDescription
	tracks       []trackAdd
	transceivers []trackAdd
}

func (f *fakeConnection) CreateOffer() (core.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers++
	return core.SessionDescription{Type: core.SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (f *fakeConnection) CreateAnswer() (core.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers++
	return core.SessionDescription{Type: core.SDPTypeAnswer, SDP: "v=0 answer"}, nil
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

func (f *fakeConnection) AddTrack(src core.MediaSource, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, trackAdd{src: src, label: label})
	return nil
}

func (f *fakeConnection) AddTransceiver(src core.MediaSource, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transceivers = append(f.transceivers, trackAdd{src: src, label: label})
	return nil
}

func (f *fakeConnection) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeEngine struct {
	mu      sync.Mutex
	err     error
	conns   []*fakeConnection
	sources []core.MediaSource
}

func (f *fakeEngine) CreateConnection(src core.MediaSource) (core.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	conn := &fakeConnection{}
	f.conns = append(f.conns, conn)
	f.sources = append(f.sources, src)
	return conn, nil
}

func (f *fakeEngine) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

type fakeCollector struct {
	mu      sync.Mutex
	calls   int
	streams []core.OutboundStreamStats
	err     error
}

func (f *fakeCollector) Collect(context.Context, core.Connection) ([]core.OutboundStreamStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.streams, nil
}

type testServer struct {
	server    *Server
	registry  *core.Registry
	engine    *fakeEngine
	provider  *fakeProvider
	collector *fakeCollector
	clock     *core.MockClock
}

func newTestServer() *testServer {
	ts := &testServer{
		registry:  core.NewRegistry(),
		engine:    &fakeEngine{},
		provider:  &fakeProvider{},
		collector: &fakeCollector{},
		clock:     core.NewMockClock(testEpoch),
	}
	ts.server = New(ts.registry, ts.engine, ts.provider, ts.collector, core.SessionConfig{Clock: ts.clock})
	return ts
}
