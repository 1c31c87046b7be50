package relay

import "sync"

// Binding ties one live connection to a player within a session.
type Binding struct {
	PlayerID  string
	SessionID string
}

// Registry is the process-wide connection <-> player <-> session mapping.
// It is owned by the Relay and passed around explicitly so disconnect
// handling stays testable in isolation.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Binding
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Binding)}
}

func (r *Registry) Bind(connID string, b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = b
}

func (r *Registry) Lookup(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[connID]
	return b, ok
}

// Unbind removes the mapping and returns what was bound, if anything.
func (r *Registry) Unbind(connID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	return b, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
