package server

import (
	"encoding/base64"
	"sync"

	"github.com/etnz/tradesim"
)

func base64URL(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

// memoryStore is an IdentityStore in a map. Put fails when refuse is set.
type memoryStore struct {
	mu     sync.Mutex
	ids    map[string]tradesim.Identity
	refuse bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{ids: make(map[string]tradesim.Identity)}
}

func (m *memoryStore) Put(sid string, id tradesim.Identity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refuse {
		return false
	}
	m.ids[sid] = id
	return true
}

func (m *memoryStore) Get(sid string) (tradesim.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[sid]
	return id, ok
}

func (m *memoryStore) Forget(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, sid)
}

func (m *memoryStore) Close() {}
