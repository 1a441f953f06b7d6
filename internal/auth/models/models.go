package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// User is a local operator account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
}

// RegistryTokenKey is the session data key holding the business registry token.
const RegistryTokenKey = "registryOAuthToken"

// Session is the server-side state behind an app bearer token. Data is a
// free-form bag other features merge their state into.
type Session struct {
	ID        string                     `json:"id"`
	UserID    string                     `json:"user_id"`
	Email     string                     `json:"email"`
	CreatedAt time.Time                  `json:"created_at"`
	ExpiresAt time.Time                  `json:"expires_at"`
	Data      map[string]json.RawMessage `json:"data,omitempty"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SetData stores v under key.
func (s *Session) SetData(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session data %s: %w", key, err)
	}
	if s.Data == nil {
		s.Data = make(map[string]json.RawMessage)
	}
	s.Data[key] = raw
	return nil
}

// GetData decodes the value under key into out. It reports false when the
// key is absent.
func (s *Session) GetData(key string, out any) (bool, error) {
	raw, ok := s.Data[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode session data %s: %w", key, err)
	}
	return true, nil
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	SessionID   string    `json:"session_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserView  `json:"user"`
}

// UserView is the public projection of a User.
type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
