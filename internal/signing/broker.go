// Package signing talks to the credential-signing platform: it brokers the
// client-credentials token and wraps the platform's compact credential API.
package signing

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"provenance/internal/platform/metrics"
	"provenance/internal/upstream"
	dErrors "provenance/pkg/domain-errors"
)

const defaultExpiresIn = 3600 * time.Second

// Client authentication schemes for the token endpoint.
const (
	schemeBody  = "body"
	schemeBasic = "basic"
)

// BrokerConfig holds the client-credentials grant settings.
type BrokerConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string
}

// Broker obtains and caches the platform access token.
type Broker struct {
	cfg     BrokerConfig
	http    *upstream.Client
	cache   *TokenCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// BrokerOption configures the Broker.
type BrokerOption func(*Broker)

// WithBrokerLogger sets the logger.
func WithBrokerLogger(logger *slog.Logger) BrokerOption {
	return func(b *Broker) {
		b.logger = logger
	}
}

// WithBrokerMetrics sets the metrics collector.
func WithBrokerMetrics(m *metrics.Metrics) BrokerOption {
	return func(b *Broker) {
		b.metrics = m
	}
}

// WithTokenCache replaces the default cache, mainly to inject a clock.
func WithTokenCache(cache *TokenCache) BrokerOption {
	return func(b *Broker) {
		b.cache = cache
	}
}

// NewBroker creates a broker with its own token cache.
func NewBroker(cfg BrokerConfig, httpClient *upstream.Client, opts ...BrokerOption) *Broker {
	b := &Broker{
		cfg:    cfg,
		http:   httpClient,
		cache:  NewTokenCache(DefaultSafetyMargin, nil),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// AccessToken returns a cached token or fetches a new one. The token endpoint
// is tried with credentials in the form body first; a 401 gets exactly one
// retry with HTTP Basic auth. If the retry fails too, the first error is
// returned.
func (b *Broker) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := b.cache.Get(); ok {
		return tok, nil
	}
	if b.cfg.TokenURL == "" || b.cfg.ClientID == "" || b.cfg.ClientSecret == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, "signing platform client credentials are not configured")
	}

	tok, err := b.fetch(ctx, schemeBody)
	if err == nil {
		return tok, nil
	}
	if upstream.StatusOf(err) != http.StatusUnauthorized {
		return "", err
	}

	b.logger.WarnContext(ctx, "token request rejected, retrying with basic auth",
		"upstream", b.http.Name(),
	)
	tok, retryErr := b.fetch(ctx, schemeBasic)
	if retryErr != nil {
		b.logger.ErrorContext(ctx, "basic auth token request failed",
			"upstream", b.http.Name(),
			"error", retryErr,
		)
		return "", err
	}
	return tok, nil
}

// Clear forces the next AccessToken call to fetch.
func (b *Broker) Clear() {
	b.cache.Clear()
}

func (b *Broker) fetch(ctx context.Context, scheme string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if scheme == schemeBody {
		form.Set("client_id", b.cfg.ClientID)
		form.Set("client_secret", b.cfg.ClientSecret)
	}
	if b.cfg.Audience != "" {
		form.Set("audience", b.cfg.Audience)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid signing token URL")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if scheme == schemeBasic {
		req.SetBasicAuth(b.cfg.ClientID, b.cfg.ClientSecret)
	}

	var resp tokenResponse
	if err := b.http.DoJSON("token", req, &resp); err != nil {
		b.metrics.ObserveTokenFetch(b.http.Name(), scheme, string(upstream.GetCategory(err)))
		return "", err
	}
	if resp.AccessToken == "" {
		b.metrics.ObserveTokenFetch(b.http.Name(), scheme, string(upstream.CategoryBadResponse))
		return "", upstream.NewError(upstream.CategoryBadResponse, b.http.Name(), "token", "response missing access_token", nil)
	}

	expiresIn := defaultExpiresIn
	if resp.ExpiresIn > 0 {
		expiresIn = time.Duration(resp.ExpiresIn) * time.Second
	}
	cached := b.cache.Set(resp.AccessToken, expiresIn)
	b.metrics.ObserveTokenFetch(b.http.Name(), scheme, "success")
	b.logger.InfoContext(ctx, "signing platform token acquired",
		"scheme", scheme,
		"expires_at", cached.ExpiresAt,
	)
	return resp.AccessToken, nil
}
