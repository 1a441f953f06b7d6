package oauth

import "time"

// Token is the registry access token kept in the session data bag.
type Token struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	TokenType    string     `json:"token_type"`
}

// Expired reports whether the token is past its expiry. Tokens without an
// expiry never expire locally.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (r tokenResponse) token(now time.Time) *Token {
	tok := &Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if r.ExpiresIn > 0 {
		exp := now.Add(time.Duration(r.ExpiresIn) * time.Second)
		tok.ExpiresAt = &exp
	}
	return tok
}
