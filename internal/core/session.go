package core

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"
)

// State is a session lifecycle state.
type State string

const (
	StateCreated State = "created"
	StateStarted State = "started"
	StateStopped State = "stopped"
)

const (
	eventStart = "start"
	eventStop  = "stop"
)

const defaultStatsWorkers = 8

// newLifecycle builds the session state machine. Legal transitions are
// created -> started -> stopped; everything else is rejected by the machine.
func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		string(StateCreated),
		fsm.Events{
			{Name: eventStart, Src: []string{string(StateCreated)}, Dst: string(StateStarted)},
			{Name: eventStop, Src: []string{string(StateStarted)}, Dst: string(StateStopped)},
		},
		fsm.Callbacks{},
	)
}

// SessionConfig carries the tunables a Session needs beyond its identity.
// Zero values select production defaults.
type SessionConfig struct {
	// Clock drives start/stop timestamps. Nil selects MonotonicClock.
	Clock Clock
	// StatsWorkers bounds the fan-out when collecting peer connection stats.
	StatsWorkers int
}

// Session owns one load-test session: lifecycle state, timing, the shared
// media source with its producer, and the registry of peer connections
// attached to it.
//
// Lifecycle mutations and peer connection registration serialize on the
// session lock. Reads and per-peer-connection signaling do not contend with
// other sessions.
type Session struct {
	id   string
	name string

	mu        sync.RWMutex
	lifecycle *fsm.FSM
	startTime *time.Time
	stopTime  *time.Time

	peerConnections *PeerConnections
	source          MediaSource
	producer        FrameProducer

	clock        Clock
	statsWorkers int

	teardownOnce sync.Once
}

// NewSession assembles a session in the created state. The source and
// producer are owned by the session from this point on; Teardown cancels
// the producer and closes every peer connection.
func NewSession(id, name string, source MediaSource, producer FrameProducer, cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = MonotonicClock{}
	}
	workers := cfg.StatsWorkers
	if workers <= 0 {
		workers = defaultStatsWorkers
	}
	return &Session{
		id:              id,
		name:            name,
		lifecycle:       newLifecycle(),
		peerConnections: NewPeerConnections(),
		source:          source,
		producer:        producer,
		clock:           clock,
		statsWorkers:    workers,
	}
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Name() string { return s.name }

// Source exposes the session-wide media source for attaching tracks.
func (s *Session) Source() MediaSource { return s.source }

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State(s.lifecycle.Current())
}

// StartTime reports when the session was started, if it has been.
func (s *Session) StartTime() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime == nil {
		return time.Time{}, false
	}
	return *s.startTime, true
}

// StopTime reports when the session was stopped, if it has been.
func (s *Session) StopTime() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopTime == nil {
		return time.Time{}, false
	}
	return *s.stopTime, true
}

// Start moves the session from created to started and records the start
// time. Any other starting state fails with InvalidStateError and leaves
// the session untouched.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lifecycle.Event(context.Background(), eventStart); err != nil {
		return &InvalidStateError{Reason: "only a created session can be started"}
	}
	now := s.clock.Now()
	s.startTime = &now
	log.Info().
		Str("module", "core.session").
		Str("session_id", s.id).
		Str("state", string(StateStarted)).
		Msg("session started")
	return nil
}

// Stop moves the session from started to stopped and records the stop
// time. Any other starting state fails with InvalidStateError and leaves
// the session untouched.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lifecycle.Event(context.Background(), eventStop); err != nil {
		return &InvalidStateError{Reason: "only a started session can be stopped"}
	}
	now := s.clock.Now()
	s.stopTime = &now
	log.Info().
		Str("module", "core.session").
		Str("session_id", s.id).
		Str("state", string(StateStopped)).
		Msg("session stopped")
	return nil
}

// Elapsed reports how long the session has been running: now minus start
// while started, stop minus start once stopped. The second return is false
// before the session has started.
func (s *Session) Elapsed() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() (time.Duration, bool) {
	switch State(s.lifecycle.Current()) {
	case StateStarted:
		if s.startTime == nil {
			return 0, false
		}
		return clampElapsed(s.clock.Now().Sub(*s.startTime)), true
	case StateStopped:
		if s.startTime == nil || s.stopTime == nil {
			return 0, false
		}
		return clampElapsed(s.stopTime.Sub(*s.startTime)), true
	default:
		return 0, false
	}
}

func clampElapsed(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// AddPeerConnection registers a peer connection with the session. Sessions
// accept peer connections in every lifecycle state; a load test may build
// its connection fleet before starting the clock or grow it afterwards.
func (s *Session) AddPeerConnection(pc *PeerConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.peerConnections.Add(pc); err != nil {
		return err
	}
	log.Info().
		Str("module", "core.session").
		Str("session_id", s.id).
		Str("peer_connection_id", pc.ID()).
		Msg("peer connection added")
	return nil
}

// GetPeerConnection resolves a peer connection owned by this session.
func (s *Session) GetPeerConnection(id string) (*PeerConnection, error) {
	return s.peerConnections.Get(id)
}

// PeerConnectionCount reports how many peer connections the session holds.
func (s *Session) PeerConnectionCount() int {
	return s.peerConnections.Len()
}

// Teardown releases the session's media resources: it cancels the frame
// producer and closes every peer connection. It runs at most once; later
// calls are no-ops. Cancel itself is fire-and-forget, so Teardown does not
// wait for the producer goroutine to unwind.
func (s *Session) Teardown() {
	s.teardownOnce.Do(func() {
		log.Info().
			Str("module", "core.session").
			Str("session_id", s.id).
			Msg("tearing down session")
		if s.producer != nil {
			s.producer.Cancel()
		}
		for _, pc := range s.peerConnections.Snapshot() {
			if err := pc.close(); err != nil {
				log.Error().
					Err(err).
					Str("module", "core.session").
					Str("session_id", s.id).
					Str("peer_connection_id", pc.ID()).
					Msg("failed to close peer connection")
			}
		}
	})
}
