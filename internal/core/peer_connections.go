package core

import (
	"fmt"
	"sync"
)

// PeerConnection is the registry-owned record for one peer connection:
// caller-visible identity plus the engine connection behind it.
type PeerConnection struct {
	id   string
	name string

	mu   sync.Mutex
	conn Connection
}

// NewPeerConnection wraps an engine connection with its registry identity.
func NewPeerConnection(id, name string, conn Connection) *PeerConnection {
	return &PeerConnection{id: id, name: name, conn: conn}
}

func (p *PeerConnection) ID() string   { return p.id }
func (p *PeerConnection) Name() string { return p.name }

// With runs fn with exclusive access to the underlying connection.
// Signaling operations on a single peer connection serialize here; distinct
// peer connections proceed independently.
func (p *PeerConnection) With(fn func(Connection) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.conn)
}

func (p *PeerConnection) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

// PeerConnections is the per-session registry of peer connections.
type PeerConnections struct {
	mu   sync.RWMutex
	byID map[string]*PeerConnection
}

func NewPeerConnections() *PeerConnections {
	return &PeerConnections{byID: make(map[string]*PeerConnection)}
}

// Add registers a peer connection under its identifier.
func (r *PeerConnections) Add(pc *PeerConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[pc.ID()]; ok {
		return fmt.Errorf("peer connection %s: %w", pc.ID(), ErrPeerConnectionExists)
	}
	r.byID[pc.ID()] = pc
	return nil
}

// Get resolves a peer connection by identifier.
func (r *PeerConnections) Get(id string) (*PeerConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pc, ok := r.byID[id]
	if !ok {
		return nil, &InvalidPeerConnectionError{ID: id}
	}
	return pc, nil
}

func (r *PeerConnections) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Snapshot returns the current set of peer connections. The slice is a
// point-in-time copy; iterating it holds no registry lock.
func (r *PeerConnections) Snapshot() []*PeerConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*PeerConnection, 0, len(r.byID))
	for _, pc := range r.byID {
		out = append(out, pc)
	}
	return out
}
