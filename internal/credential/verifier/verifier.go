// Package verifier submits compact credentials to the signing platform with
// a fixed trust policy: the configured issuer allow-list plus validity
// window and revocation checks on every call.
package verifier

import (
	"context"
	"log/slog"
	"strings"

	"provenance/internal/credential"
	"provenance/internal/signing"
	dErrors "provenance/pkg/domain-errors"
	strutil "provenance/pkg/platform/strings"
)

type Platform interface {
	Verify(ctx context.Context, in signing.VerifyRequest) (*signing.VerifyResponse, error)
}

// Result is the platform's verdict passed through unchanged.
type Result struct {
	Verified bool              `json:"verified"`
	Claims   credential.Claims `json:"decoded,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
}

type Verifier struct {
	platform       Platform
	trustedIssuers []string
	logger         *slog.Logger
}

func New(platform Platform, trustedIssuers []string, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Verifier{
		platform:       platform,
		trustedIssuers: strutil.DedupeAndTrim(trustedIssuers),
		logger:         logger,
	}
}

// Verify checks compact against the platform. It never interprets
// cryptographic validity itself.
func (v *Verifier) Verify(ctx context.Context, compact string) (*Result, error) {
	if strings.TrimSpace(compact) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payload must be a non-empty string")
	}
	if len(v.trustedIssuers) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "trusted issuers are not configured")
	}

	resp, err := v.platform.Verify(ctx, signing.VerifyRequest{
		Payload:          compact,
		TrustedIssuers:   v.trustedIssuers,
		AssertValidFrom:  true,
		AssertValidUntil: true,
		CheckRevocation:  true,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Verified: resp.Verified,
		Claims:   credential.Claims(resp.Claims()),
		Errors:   resp.Errors,
	}
	if !res.Verified {
		v.logger.InfoContext(ctx, "credential failed verification", "errors", res.Errors)
	}
	return res, nil
}
