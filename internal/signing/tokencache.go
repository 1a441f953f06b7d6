package signing

import (
	"sync"
	"time"
)

// DefaultSafetyMargin is how long before expiry a cached token stops being served.
const DefaultSafetyMargin = 60 * time.Second

// CachedToken is a service access token and the instant it expires.
type CachedToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenCache holds one token for one broker. The mutex only protects the
// value; it is never held across a token fetch.
type TokenCache struct {
	mu     sync.RWMutex
	token  *CachedToken
	margin time.Duration
	now    func() time.Time
}

// NewTokenCache creates an empty cache. A nil clock uses time.Now.
func NewTokenCache(margin time.Duration, now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{margin: margin, now: now}
}

// Get returns the cached token while it is valid for at least the margin.
func (c *TokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return "", false
	}
	if !c.now().Before(c.token.ExpiresAt.Add(-c.margin)) {
		return "", false
	}
	return c.token.AccessToken, true
}

// Set replaces the cached token.
func (c *TokenCache) Set(accessToken string, expiresIn time.Duration) CachedToken {
	tok := CachedToken{AccessToken: accessToken, ExpiresAt: c.now().Add(expiresIn)}
	c.mu.Lock()
	c.token = &tok
	c.mu.Unlock()
	return tok
}

// Clear drops the cached token.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}
