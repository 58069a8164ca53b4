// Package realtime implements the delivery engine: the registry of live
// connections, presence broadcast, message fan-out and read receipts, plus the
// WebSocket transport that carries them.
package realtime

import "sync"

// Conn is one live client connection. Implementations compare by identity
// (pointer receivers), which is how the registry tells handles apart.
type Conn interface {
	// ID is a unique, stable identifier used for logging.
	ID() string
	// Send queues ev for delivery without blocking. It reports false when the
	// event was dropped because the connection is closed or saturated.
	Send(ev Event) bool
	// Close terminates the connection. It is safe to call more than once.
	Close()
}

// Registry maps each announced user to their current connection. The last
// announcement wins. The mapping is process-local and advisory: the persisted
// presence flag is authoritative.
//
// This type is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]Conn)}
}

// Register maps userID to c and returns the connection it superseded, or nil
// when there was none or it was c itself.
func (r *Registry) Register(userID string, c Conn) (prev Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byUser[userID]
	r.byUser[userID] = c
	if !ok || old == c {
		return nil
	}
	return old
}

// Lookup returns the connection registered for userID.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// UserOf returns the user c is registered under. A superseded handle is not
// registered under anyone.
func (r *Registry) UserOf(c Conn) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for uid, cc := range r.byUser {
		if cc == c {
			return uid, true
		}
	}
	return "", false
}

// Unregister removes the entry whose connection is c and returns its user.
// An entry that has since been overwritten by a newer handle is left alone.
func (r *Registry) Unregister(c Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid, cc := range r.byUser {
		if cc == c {
			delete(r.byUser, uid)
			return uid, true
		}
	}
	return "", false
}

// Peers returns a snapshot of every registered connection except except.
func (r *Registry) Peers(except Conn) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.byUser))
	for _, c := range r.byUser {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
