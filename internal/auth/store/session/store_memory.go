package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"provenance/internal/auth/models"
	"provenance/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in a go-cache with per-entry TTLs.
// Values are stored encoded so callers never share a *Session.
type InMemorySessionStore struct {
	c   *gocache.Cache
	now func() time.Time
}

// New creates an in-memory store that sweeps expired sessions every minute.
func New() *InMemorySessionStore {
	return &InMemorySessionStore{
		c:   gocache.New(time.Hour, time.Minute),
		now: time.Now,
	}
}

func (s *InMemorySessionStore) Save(_ context.Context, sess *models.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("save session %s: %w", sess.ID, sentinel.ErrExpired)
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.c.Set(keyPrefix+sess.ID, raw, ttl)
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, id string) (*models.Session, error) {
	v, ok := s.c.Get(keyPrefix + id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	var sess models.Session
	if err := json.Unmarshal(v.([]byte), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.IsExpired(s.now()) {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrExpired)
	}
	return &sess, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.c.Delete(keyPrefix + id)
	return nil
}
