package auth

import (
	"time"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/cache"
)

// Store remembers the identity bound to each session for a limited time.
// A session whose identity has expired is logged out.
type Store struct {
	c *cache.Cache[tradesim.Identity]
}

// NewStore creates a store of up to maxSessions identities kept for ttl.
func NewStore(maxSessions int64, ttl time.Duration) (*Store, error) {
	c, err := cache.New[tradesim.Identity](maxSessions, ttl)
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Put(sid string, id tradesim.Identity) bool { return s.c.Set(sid, id) }

func (s *Store) Get(sid string) (tradesim.Identity, bool) { return s.c.Get(sid) }

func (s *Store) Forget(sid string) { s.c.Del(sid) }

func (s *Store) Close() { s.c.Close() }
