package recording

import (
	"errors"
	"fmt"
)

// ErrSessionStopped is returned by Record when the session's stop flag has
// been observed. Callers forwarding automation calls should treat it as
// "do not record", not as a call failure.
var ErrSessionStopped = errors.New("recording session is stopped")

// SessionNotFoundError indicates a lookup or finalize referenced a session
// name with no registry entry.
type SessionNotFoundError struct {
	Name string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("recording session %q not found", e.Name)
}

// DuplicateSessionError indicates a create collided with an existing
// registry entry. Session names are exclusive: reattaching to a prior
// session is not supported, callers must pick a fresh name.
type DuplicateSessionError struct {
	Name string
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("recording session %q already exists", e.Name)
}
