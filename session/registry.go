package session

import (
	"sort"
	"sync"
)

// Registry maps session ids to their controller. Each browser session owns
// its own controller, so sessions never share a market or a ledger.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Controller)}
}

// Add registers c under id, logging out any previous controller registered
// under the same id.
func (r *Registry) Add(id string, c *Controller) { r.TryAdd(id, c, 0) }

// TryAdd registers c under id unless limit controllers are already
// registered, it reports whether c was added. A limit <= 0 means no limit.
// Replacing the controller of a registered id is always allowed.
func (r *Registry) TryAdd(id string, c *Controller, limit int) bool {
	r.mu.Lock()
	prev, exists := r.sessions[id]
	if !exists && limit > 0 && len(r.sessions) >= limit {
		r.mu.Unlock()
		return false
	}
	r.sessions[id] = c
	r.mu.Unlock()
	if prev != nil && prev != c {
		prev.Logout()
	}
	return true
}

// Get returns the controller registered under id.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[id]
	return c, ok
}

// Remove logs out and forgets the controller registered under id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	c, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		c.Logout()
	}
	return ok
}

// IDs returns the registered session ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close logs out every session.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Remove(id)
	}
}
