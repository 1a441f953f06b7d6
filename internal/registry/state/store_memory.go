package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"provenance/pkg/platform/sentinel"
)

// InMemoryStore keeps state bindings in a go-cache. The mutex makes the
// get-and-delete in Consume a single critical section.
type InMemoryStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewInMemory creates a store that sweeps expired states every minute.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{c: gocache.New(DefaultTTL, time.Minute)}
}

func (s *InMemoryStore) Save(_ context.Context, state, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Set(keyPrefix+state, sessionID, ttl)
	return nil
}

func (s *InMemoryStore) Consume(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.c.Get(keyPrefix + state)
	if !ok {
		return "", fmt.Errorf("oauth state: %w", sentinel.ErrNotFound)
	}
	s.c.Delete(keyPrefix + state)
	return v.(string), nil
}
