package recording

import "sync"

// Registry is the process-wide map of live recording sessions, keyed by
// session name. It is injected into the instance provider and the executor
// rather than accessed as ambient package state; it is the only mutable
// structure shared between them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new Active session under name, creating its bundle
// directory below outputDir. Session names are exclusive: any existing
// entry, regardless of its status, yields a DuplicateSessionError. Callers
// that need a fresh recording of the same task derive a new name.
func (r *Registry) Create(name, outputDir string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[name]; exists {
		return nil, &DuplicateSessionError{Name: name}
	}

	session, err := NewSession(name, outputDir)
	if err != nil {
		return nil, err
	}

	r.sessions[name] = session
	return session, nil
}

// Lookup returns the session registered under name.
func (r *Registry) Lookup(name string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[name]
	if !exists {
		return nil, &SessionNotFoundError{Name: name}
	}
	return session, nil
}

// Finalize stops and flushes the session registered under name, returning
// its Info. Finalizing an already Stopped session returns the cached Info;
// finalizing an unknown name returns a SessionNotFoundError. The entry
// stays in the registry after finalize so that defensive re-finalization
// by candidate code and the executor's safety net both resolve; Remove
// discards it once no consumer needs the live session.
func (r *Registry) Finalize(name string) (*Info, error) {
	session, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return session.Finalize()
}

// Remove discards the registry entry for name. The persisted bundle is the
// durable artifact; removing a Stopped session's entry frees its name for
// reuse. Removing an unknown name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, name)
}

// Names returns the names of all registered sessions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	return names
}
