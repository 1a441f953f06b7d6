package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"provenance/internal/upstream"
	dErrors "provenance/pkg/domain-errors"
)

// TokenSource supplies bearer tokens for platform calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Clear()
}

// SignRequest is the compact credential payload handed to the platform.
type SignRequest struct {
	Payload   map[string]any `json:"payload"`
	Revocable bool           `json:"revocable"`
}

// SignedCredential is the platform's answer to a sign call.
type SignedCredential struct {
	ID      string         `json:"id"`
	Encoded string         `json:"encoded"`
	Decoded map[string]any `json:"decoded"`
}

// VerifyRequest always carries the issuer allow-list and the three checks.
type VerifyRequest struct {
	Payload          string   `json:"payload"`
	TrustedIssuers   []string `json:"trustedIssuers"`
	AssertValidFrom  bool     `json:"assertValidFrom"`
	AssertValidUntil bool     `json:"assertValidUntil"`
	CheckRevocation  bool     `json:"checkRevocation"`
}

// VerifyResponse is passed through from the platform. Older responses carry
// the claims under "payload" instead of "decoded".
type VerifyResponse struct {
	Verified bool           `json:"verified"`
	Decoded  map[string]any `json:"decoded"`
	Payload  map[string]any `json:"payload"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
}

// Claims returns whichever claim set the platform populated.
func (r *VerifyResponse) Claims() map[string]any {
	if r.Decoded != nil {
		return r.Decoded
	}
	return r.Payload
}

// RevocationStatus reports whether a credential is revoked.
type RevocationStatus struct {
	IsRevoked bool `json:"isRevoked"`
}

// QRCode is a rendered image of a compact credential.
type QRCode struct {
	Image       []byte
	ContentType string
}

// Client calls the platform's compact credential API with bearer tokens.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *upstream.Client
	logger  *slog.Logger
}

// NewClient creates a platform client rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, httpClient *upstream.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    httpClient,
		logger:  logger,
	}
}

// SignCompact asks the platform to sign a compact credential.
func (c *Client) SignCompact(ctx context.Context, in SignRequest) (*SignedCredential, error) {
	var out SignedCredential
	resp, err := c.call(ctx, "sign", http.MethodPost, "/v2/credentials/compact/sign", in)
	if err != nil {
		return nil, err
	}
	if err := c.decode("sign", resp, &out); err != nil {
		return nil, err
	}
	if out.Encoded == "" {
		return nil, upstream.NewError(upstream.CategoryBadResponse, c.http.Name(), "sign", "response missing encoded credential", nil)
	}
	return &out, nil
}

// Verify submits a compact credential for verification.
func (c *Client) Verify(ctx context.Context, in VerifyRequest) (*VerifyResponse, error) {
	var out VerifyResponse
	resp, err := c.call(ctx, "verify", http.MethodPost, "/v2/credentials/compact/verify", in)
	if err != nil {
		return nil, err
	}
	if err := c.decode("verify", resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCode renders a compact credential as an image.
func (c *Client) QRCode(ctx context.Context, encoded string) (*QRCode, error) {
	resp, err := c.call(ctx, "qrcode", http.MethodPost, "/v2/credentials/compact/qrcode", map[string]string{"payload": encoded})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, upstream.NewError(upstream.CategoryBadResponse, c.http.Name(), "qrcode", "empty image", nil)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/png"
	}
	return &QRCode{Image: resp.Body, ContentType: ct}, nil
}

// SetRevocationStatus marks a credential revoked (or reinstated) upstream.
func (c *Client) SetRevocationStatus(ctx context.Context, credentialID string, revoked bool) error {
	path := fmt.Sprintf("/v2/credentials/compact/%s/revocation-status", url.PathEscape(credentialID))
	_, err := c.call(ctx, "revoke", http.MethodPost, path, RevocationStatus{IsRevoked: revoked})
	return err
}

// RevocationStatus reads the upstream revocation status.
func (c *Client) RevocationStatus(ctx context.Context, credentialID string) (*RevocationStatus, error) {
	path := fmt.Sprintf("/v2/credentials/compact/%s/revocation-status", url.PathEscape(credentialID))
	resp, err := c.call(ctx, "revocation_status", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out RevocationStatus
	if err := c.decode("revocation_status", resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends an authenticated request. A 401 means the cached token was
// revoked or rotated early, so the cache is cleared and the call retried once.
func (c *Client) call(ctx context.Context, operation, method, path string, body any) (*upstream.Response, error) {
	if c.baseURL == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "signing platform API URL is not configured")
	}
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode request")
		}
	}

	resp, err := c.send(ctx, operation, method, path, payload)
	if upstream.StatusOf(err) == http.StatusUnauthorized {
		c.logger.WarnContext(ctx, "platform rejected access token, refreshing",
			"operation", operation,
		)
		c.tokens.Clear()
		resp, err = c.send(ctx, operation, method, path, payload)
	}
	return resp, err
}

func (c *Client) send(ctx context.Context, operation, method, path string, payload []byte) (*upstream.Response, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid signing platform URL")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(operation, req)
}

func (c *Client) decode(operation string, resp *upstream.Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return upstream.NewError(upstream.CategoryBadResponse, c.http.Name(), operation, "decode response body", err)
	}
	return nil
}
