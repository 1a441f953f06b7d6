// Package registry calls the business registry's organisation-parts API on
// behalf of a user whose registry token lives in their session.
package registry

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

	"provenance/internal/registry/oauth"
	"provenance/internal/upstream"
	dErrors "provenance/pkg/domain-errors"
)

// TokenSource resolves the registry token bound to an app session.
type TokenSource interface {
	SessionToken(ctx context.Context, sessionID string) (*oauth.Token, error)
}

// Client is the organisation-parts resource client.
type Client struct {
	baseURL         string
	subscriptionKey string
	tokens          TokenSource
	http            *upstream.Client
	logger          *slog.Logger
}

func NewClient(baseURL, subscriptionKey string, tokens TokenSource, httpClient *upstream.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		subscriptionKey: subscriptionKey,
		tokens:          tokens,
		http:            httpClient,
		logger:          logger,
	}
}

// OrganisationParts lists the parts registered under nzbn.
func (c *Client) OrganisationParts(ctx context.Context, sessionID, nzbn string) ([]OrganisationPart, error) {
	var out searchResponse
	if err := c.call(ctx, sessionID, "list_parts", http.MethodGet, partsPath(nzbn, ""), nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return []OrganisationPart{}, nil
	}
	c.logger.InfoContext(ctx, "organisation parts listed", "nzbn", nzbn, "count", len(out.Items))
	return out.Items, nil
}

// CreateOrganisationPart registers a new part under nzbn.
func (c *Client) CreateOrganisationPart(ctx context.Context, sessionID, nzbn string, in OrganisationPartRequest) (*OrganisationPart, error) {
	var out OrganisationPart
	if err := c.call(ctx, sessionID, "create_part", http.MethodPost, partsPath(nzbn, ""), in, &out); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "organisation part created", "nzbn", nzbn, "opn", out.OPN)
	return &out, nil
}

// UpdateOrganisationPart replaces the part identified by opn.
func (c *Client) UpdateOrganisationPart(ctx context.Context, sessionID, nzbn, opn string, in OrganisationPart) (*OrganisationPart, error) {
	var out OrganisationPart
	if err := c.call(ctx, sessionID, "update_part", http.MethodPut, partsPath(nzbn, opn), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOrganisationPart removes the part identified by opn.
func (c *Client) DeleteOrganisationPart(ctx context.Context, sessionID, nzbn, opn string) error {
	return c.call(ctx, sessionID, "delete_part", http.MethodDelete, partsPath(nzbn, opn), nil, nil)
}

func partsPath(nzbn, opn string) string {
	p := fmt.Sprintf("/nzbn/v5/entities/%s/organisation-parts", url.PathEscape(nzbn))
	if opn != "" {
		p += "/" + url.PathEscape(opn)
	}
	return p
}

// call authenticates with the raw access token in Authorization; the
// registry does not accept a Bearer prefix.
func (c *Client) call(ctx context.Context, sessionID, operation, method, path string, body, out any) error {
	if c.baseURL == "" {
		return dErrors.New(dErrors.CodeConfiguration, "registry API URL is not configured")
	}
	tok, err := c.tokens.SessionToken(ctx, sessionID)
	if err != nil {
		return err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode request")
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid registry API URL")
	}
	req.Header.Set("Authorization", tok.AccessToken)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.http.DoJSON(operation, req, out); err != nil {
		c.logger.ErrorContext(ctx, "registry request failed",
			"operation", operation,
			"status", upstream.StatusOf(err),
			"error", err,
		)
		return err
	}
	return nil
}
