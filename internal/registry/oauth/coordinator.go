// Package oauth runs the three-legged authorization-code flow against the
// business registry and keeps the resulting token in the user's session.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"provenance/internal/auth/models"
	"provenance/internal/platform/metrics"
	"provenance/internal/registry/state"
	"provenance/internal/upstream"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
)

const stateBytes = 32

// Config holds the registry OAuth client settings.
type Config struct {
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	Policy       string
	StateTTL     time.Duration
}

type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
}

// CallbackParams are the query parameters of the redirect back from the
// authorization server.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackResult is the outcome of a successful code exchange.
type CallbackResult struct {
	SessionID string
	Token     *Token
}

// Coordinator drives authorize → callback → token exchange and refresh.
type Coordinator struct {
	cfg      Config
	http     *upstream.Client
	states   state.Store
	sessions SessionStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	random   io.Reader
}

// Option configures the Coordinator.
type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithClock overrides time.Now for token expiry calculations.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

func NewCoordinator(cfg Config, httpClient *upstream.Client, states state.Store, sessions SessionStore, opts ...Option) *Coordinator {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = state.DefaultTTL
	}
	c := &Coordinator{
		cfg:      cfg,
		http:     httpClient,
		states:   states,
		sessions: sessions,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL binds a fresh state to sessionID and returns the URL the
// user agent should be sent to.
func (c *Coordinator) AuthorizationURL(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if c.cfg.AuthorizeURL == "" || c.cfg.ClientID == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, "registry oauth client is not configured")
	}

	st, err := c.newState()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate state")
	}
	if err := c.states.Save(ctx, st, sessionID, c.cfg.StateTTL); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store state")
	}

	u, err := url.Parse(c.cfg.AuthorizeURL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid registry authorize URL")
	}
	q := u.Query()
	q.Set("p", c.cfg.Policy)
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", c.cfg.Scope)
	q.Set("state", st)
	u.RawQuery = q.Encode()

	c.logger.InfoContext(ctx, "registry authorization started", "session_id", sessionID)
	return u.String(), nil
}

// HandleCallback consumes the state and exchanges the code. The state is
// consumed even when the server reported an error so it cannot be replayed.
func (c *Coordinator) HandleCallback(ctx context.Context, p CallbackParams) (*CallbackResult, error) {
	if p.Error != "" {
		if p.State != "" {
			if _, err := c.states.Consume(ctx, p.State); err == nil {
				c.metrics.IncStateConsume("rejected")
			}
		}
		c.logger.WarnContext(ctx, "registry authorization denied",
			"error", p.Error,
			"error_description", p.ErrorDescription,
		)
		return nil, &CallbackError{Code: p.Error, Description: p.ErrorDescription}
	}

	sessionID, err := c.consumeState(ctx, p.State)
	if err != nil {
		return nil, err
	}
	if p.Code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "authorization code missing")
	}

	tok, err := c.exchange(ctx, p.Code)
	if err != nil {
		c.logger.ErrorContext(ctx, "registry code exchange failed",
			"session_id", sessionID,
			"error", err,
		)
		return nil, err
	}
	return &CallbackResult{SessionID: sessionID, Token: tok}, nil
}

// CompleteCallback runs HandleCallback and stores the token in the bound
// session.
func (c *Coordinator) CompleteCallback(ctx context.Context, p CallbackParams) (*CallbackResult, error) {
	res, err := c.HandleCallback(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := c.storeToken(ctx, res.SessionID, res.Token); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "registry token stored", "session_id", res.SessionID)
	return res, nil
}

// Refresh trades a refresh token for a new access token. The old refresh
// token is kept when the server does not rotate it.
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("scope", c.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid registry token URL")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	tok, err := c.requestToken(req, "refresh")
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// SessionToken returns the registry token stored in the session, refreshing
// it first when it has expired and a refresh token is available.
func (c *Coordinator) SessionToken(ctx context.Context, sessionID string) (*Token, error) {
	sess, err := c.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "registry token missing")
	}
	var tok Token
	found, err := sess.GetData(models.RegistryTokenKey, &tok)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt registry token")
	}
	if !found || tok.AccessToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "registry token missing")
	}
	if !tok.Expired(c.now()) {
		return &tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "registry token expired")
	}

	fresh, err := c.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		c.logger.WarnContext(ctx, "registry token refresh failed",
			"session_id", sessionID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "registry token expired")
	}
	if err := sess.SetData(models.RegistryTokenKey, fresh); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registry token")
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registry token")
	}
	c.logger.InfoContext(ctx, "registry token refreshed", "session_id", sessionID)
	return fresh, nil
}

func (c *Coordinator) consumeState(ctx context.Context, st string) (string, error) {
	if st == "" {
		c.metrics.IncStateConsume("invalid")
		return "", dErrors.New(dErrors.CodeInvalidState, "state parameter missing")
	}
	sessionID, err := c.states.Consume(ctx, st)
	if errors.Is(err, sentinel.ErrNotFound) {
		c.metrics.IncStateConsume("invalid")
		return "", dErrors.Wrap(err, dErrors.CodeInvalidState, "invalid or expired state")
	}
	if err != nil {
		c.metrics.IncStateConsume("error")
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read state")
	}
	c.metrics.IncStateConsume("ok")
	return sessionID, nil
}

// exchange posts the code with its parameters in the query string and an
// empty body, which is what the registry's token endpoint accepts.
func (c *Coordinator) exchange(ctx context.Context, code string) (*Token, error) {
	u, err := url.Parse(c.cfg.TokenURL)
	if err != nil || c.cfg.TokenURL == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "invalid registry token URL")
	}
	q := u.Query()
	q.Set("p", c.cfg.Policy)
	q.Set("grant_type", "authorization_code")
	q.Set("code", code)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), http.NoBody)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid registry token URL")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	return c.requestToken(req, "code_exchange")
}

func (c *Coordinator) requestToken(req *http.Request, operation string) (*Token, error) {
	req.Header.Set("Accept", "application/json")
	var resp tokenResponse
	if err := c.http.DoJSON(operation, req, &resp); err != nil {
		c.metrics.ObserveTokenFetch(c.http.Name(), operation, string(upstream.GetCategory(err)))
		return nil, err
	}
	if resp.AccessToken == "" {
		c.metrics.ObserveTokenFetch(c.http.Name(), operation, string(upstream.CategoryBadResponse))
		return nil, upstream.NewError(upstream.CategoryBadResponse, c.http.Name(), operation, "response missing access_token", nil)
	}
	c.metrics.ObserveTokenFetch(c.http.Name(), operation, "success")
	return resp.token(c.now()), nil
}

func (c *Coordinator) storeToken(ctx context.Context, sessionID string, tok *Token) error {
	sess, err := c.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	if err := sess.SetData(models.RegistryTokenKey, tok); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registry token")
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registry token")
	}
	return nil
}

func (c *Coordinator) newState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := io.ReadFull(c.random, b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
