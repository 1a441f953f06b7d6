// Package state binds OAuth authorization state values to app sessions.
// Every state is single-use: Consume returns the bound session at most once.
package state

import (
	"context"
	"time"
)

const keyPrefix = "oauth_state:"

// DefaultTTL bounds how long a user has to complete the registry consent.
const DefaultTTL = 10 * time.Minute

// Store saves and atomically consumes state bindings. Consume returns an
// error wrapping sentinel.ErrNotFound when the state is unknown, expired or
// already used.
type Store interface {
	Save(ctx context.Context, state, sessionID string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, error)
}
