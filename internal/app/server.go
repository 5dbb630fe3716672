// Package app wires the session registry to the media engine and carries
// the RPC use cases. Handlers stay thin; every operation resolves its
// session (and peer connection) through the registry on each call.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arcas-io/load-server/internal/core"
	"github.com/arcas-io/load-server/internal/metrics"
)

// Server is the application facade over the registry.
type Server struct {
	registry   *core.Registry
	engine     core.Engine
	provider   core.SourceProvider
	collector  core.StatsCollector
	sessionCfg core.SessionConfig
}

func New(registry *core.Registry, engine core.Engine, provider core.SourceProvider, collector core.StatsCollector, sessionCfg core.SessionConfig) *Server {
	return &Server{
		registry:   registry,
		engine:     engine,
		provider:   provider,
		collector:  collector,
		sessionCfg: sessionCfg,
	}
}

// CreateSession mints a session identifier, starts the session's media
// source and producer, and registers the session in the created state.
func (s *Server) CreateSession(name string) (string, error) {
	src, producer, err := s.provider.Start()
	if err != nil {
		return "", fmt.Errorf("start media source: %w", err)
	}
	id := uuid.NewString()
	session := core.NewSession(id, name, src, producer, s.sessionCfg)
	if err := s.registry.Add(session); err != nil {
		producer.Cancel()
		return "", err
	}
	metrics.SessionsCreated.Inc()
	log.Info().
		Str("module", "app.server").
		Str("session_id", id).
		Str("name", name).
		Msg("session created")
	return id, nil
}

// StartSession moves a session to started.
func (s *Server) StartSession(id string) error {
	err := s.registry.WithSession(id, func(session *core.Session) error {
		return session.Start()
	})
	if err == nil {
		metrics.SessionTransitions.WithLabelValues(string(core.StateCreated), string(core.StateStarted)).Inc()
	}
	return err
}

// StopSession moves a session to stopped.
func (s *Server) StopSession(id string) error {
	err := s.registry.WithSession(id, func(session *core.Session) error {
		return session.Stop()
	})
	if err == nil {
		metrics.SessionTransitions.WithLabelValues(string(core.StateStarted), string(core.StateStopped)).Inc()
	}
	return err
}

// GetStats collects the session snapshot plus per peer connection outbound
// stream counters.
func (s *Server) GetStats(ctx context.Context, id string) (core.Stats, error) {
	var stats core.Stats
	err := s.registry.WithSession(id, func(session *core.Session) error {
		stats = session.Stats(ctx, s.collector)
		return nil
	})
	return stats, err
}

// CreatePeerConnection builds an engine connection on the session's media
// source and registers it under a fresh identifier. A connection that
// cannot be registered is closed before the error returns.
func (s *Server) CreatePeerConnection(sessionID, name string) (string, error) {
	id := uuid.NewString()
	err := s.registry.WithSession(sessionID, func(session *core.Session) error {
		conn, err := s.engine.CreateConnection(session.Source())
		if err != nil {
			return fmt.Errorf("create peer connection: %w", err)
		}
		pc := core.NewPeerConnection(id, name, conn)
		if err := session.AddPeerConnection(pc); err != nil {
			_ = conn.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	metrics.PeerConnectionsCreated.Inc()
	return id, nil
}

// CreateOffer produces a local offer on the peer connection.
func (s *Server) CreateOffer(sessionID, peerConnectionID string) (core.SessionDescription, error) {
	return s.describe(sessionID, peerConnectionID, core.Connection.CreateOffer)
}

// CreateAnswer produces a local answer on the peer connection.
func (s *Server) CreateAnswer(sessionID, peerConnectionID string) (core.SessionDescription, error) {
	return s.describe(sessionID, peerConnectionID, core.Connection.CreateAnswer)
}

func (s *Server) describe(sessionID, peerConnectionID string, op func(core.Connection) (core.SessionDescription, error)) (core.SessionDescription, error) {
	var desc core.SessionDescription
	err := s.registry.WithPeerConnection(sessionID, peerConnectionID, func(_ *core.Session, pc *core.PeerConnection) error {
		return pc.With(func(conn core.Connection) error {
			var opErr error
			desc, opErr = op(conn)
			return opErr
		})
	})
	return desc, err
}

// SetLocalDescription applies a local session description.
func (s *Server) SetLocalDescription(sessionID, peerConnectionID string, desc core.SessionDescription) error {
	return s.registry.WithPeerConnection(sessionID, peerConnectionID, func(_ *core.Session, pc *core.PeerConnection) error {
		return pc.With(func(conn core.Connection) error {
			return conn.SetLocalDescription(desc)
		})
	})
}

// SetRemoteDescription applies a remote session description.
func (s *Server) SetRemoteDescription(sessionID, peerConnectionID string, desc core.SessionDescription) error {
	return s.registry.WithPeerConnection(sessionID, peerConnectionID, func(_ *core.Session, pc *core.PeerConnection) error {
		return pc.With(func(conn core.Connection) error {
			return conn.SetRemoteDescription(desc)
		})
	})
}

// AddTrack attaches another track from the session's shared source to the
// peer connection.
func (s *Server) AddTrack(sessionID, peerConnectionID, label string) error {
	return s.registry.WithPeerConnection(sessionID, peerConnectionID, func(session *core.Session, pc *core.PeerConnection) error {
		return pc.With(func(conn core.Connection) error {
			return conn.AddTrack(session.Source(), label)
		})
	})
}

// AddTransceiver attaches a sendrecv transceiver fed by the session's
// shared source to the peer connection.
func (s *Server) AddTransceiver(sessionID, peerConnectionID, label string) error {
	return s.registry.WithPeerConnection(sessionID, peerConnectionID, func(session *core.Session, pc *core.PeerConnection) error {
		return pc.With(func(conn core.Connection) error {
			return conn.AddTransceiver(session.Source(), label)
		})
	})
}

// Close tears down every session. Called once at shutdown.
func (s *Server) Close() {
	s.registry.Close()
}
