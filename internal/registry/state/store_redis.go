package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"provenance/pkg/platform/sentinel"
)

// RedisStore binds states with SET EX and consumes them with GETDEL so
// two concurrent callbacks can never both observe the session.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, state, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.client.Set(ctx, keyPrefix+state, sessionID, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, state string) (string, error) {
	sessionID, err := s.client.GetDel(ctx, keyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("oauth state: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return sessionID, nil
}
