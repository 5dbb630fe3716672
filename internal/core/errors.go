package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for duplicate registrations. Callers that mint random
// identifiers should never see these; they exist for direct registry use.
var (
	ErrSessionExists        = errors.New("session already exists")
	ErrPeerConnectionExists = errors.New("peer connection already exists")
)

// InvalidSessionError reports a lookup for a session identifier that is not
// present in the registry.
type InvalidSessionError struct {
	ID string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

// InvalidPeerConnectionError reports a lookup for a peer connection
// identifier that is not present within its session.
type InvalidPeerConnectionError struct {
	ID string
}

func (e *InvalidPeerConnectionError) Error() string {
	return fmt.Sprintf("peer connection %s not found", e.ID)
}

// InvalidStateError reports a lifecycle operation attempted from a state
// that does not permit it. The session is left unchanged.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid session state: %s", e.Reason)
}
