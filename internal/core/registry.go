package core

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the process-wide session table. The registry mutex guards only
// the map itself; per-session work happens on the session's own locks, so
// operations on distinct sessions never contend here beyond the lookup.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session under its identifier.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return fmt.Errorf("session %s: %w", s.ID(), ErrSessionExists)
	}
	r.sessions[s.ID()] = s
	return nil
}

// Get resolves a session by identifier.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, &InvalidSessionError{ID: id}
	}
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the current set of sessions without holding the registry
// lock while callers iterate.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// WithSession resolves id and runs fn against the session. Resolution
// happens per call; a session removed between calls surfaces as
// InvalidSessionError rather than a stale reference.
func (r *Registry) WithSession(id string, fn func(*Session) error) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	return fn(s)
}

// WithPeerConnection resolves the session, then the peer connection inside
// it, and runs fn with both. Lookup failures come back as
// InvalidSessionError or InvalidPeerConnectionError; fn's error is returned
// unchanged.
func (r *Registry) WithPeerConnection(sessionID, peerConnectionID string, fn func(*Session, *PeerConnection) error) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	pc, err := s.GetPeerConnection(peerConnectionID)
	if err != nil {
		return err
	}
	return fn(s, pc)
}

// Remove drops a session from the registry and tears it down. Teardown runs
// after the map entry is gone, outside the registry lock, so other sessions
// make progress while media resources unwind.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return &InvalidSessionError{ID: id}
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	s.Teardown()
	log.Info().
		Str("module", "core.registry").
		Str("session_id", id).
		Msg("session removed")
	return nil
}

// Close empties the registry and tears down every session. Used at process
// shutdown; safe to call more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Teardown()
	}
	if len(sessions) > 0 {
		log.Info().
			Str("module", "core.registry").
			Int("sessions", len(sessions)).
			Msg("registry closed")
	}
}
