package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"provenance/internal/credential"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
)

// ReconcileRequest carries a verified credential's claims and the caller
// context of the scan.
type ReconcileRequest struct {
	Claims              credential.Claims
	Verified            bool
	CallerType          string
	UserID              string
	MobileApplicationID string
	// RequireRegistered fails the call when the claimed domain identifier is
	// missing or not in the local register.
	RequireRegistered bool
}

// Outcome reports what was resolved and whether a record was written.
type Outcome struct {
	Type              credential.Type
	CredentialID      string
	Verified          bool
	Recorded          bool
	FirstVerification bool
}

// ReconcileAndRecord cross-checks the claimed domain identifier against the
// local register and appends a verification record. Record failures are
// logged and never returned.
func (s *Service) ReconcileAndRecord(ctx context.Context, req ReconcileRequest) (*Outcome, error) {
	t := credential.ReconcileType(credential.DetectType(req.Claims), req.CallerType)
	out := &Outcome{Type: t, Verified: req.Verified}

	if !t.Recognized() {
		id, ok := credential.FallbackID(req.Claims)
		if !ok {
			s.logger.WarnContext(ctx, "credential type undetermined and no id claim, not recorded")
			return out, nil
		}
		out.CredentialID = id
		s.record(ctx, out, req, credential.TypeCollection, true)
		return out, nil
	}

	domainID, ok := credential.DomainID(req.Claims, t)
	switch {
	case !ok && req.RequireRegistered:
		return nil, dErrors.New(dErrors.CodeBadRequest, "identifier missing in decoded credential")
	case !ok:
		out.Verified = false
	default:
		externalID, err := s.lookupExternalID(ctx, t, domainID)
		switch {
		case err == nil:
			out.CredentialID = externalID
		case errors.Is(err, sentinel.ErrNotFound) && !req.RequireRegistered:
			out.Verified = false
		default:
			s.logger.WarnContext(ctx, "credential not registered",
				"credential_type", t,
				"domain_id", domainID,
				"error", err,
			)
			return nil, notRegistered(t, domainID, err)
		}
	}

	if out.CredentialID == "" {
		id, ok := credential.FallbackID(req.Claims)
		if !ok {
			s.logger.WarnContext(ctx, "no credential id resolved, not recorded", "credential_type", t)
			return out, nil
		}
		out.CredentialID = id
	}
	s.record(ctx, out, req, t, false)
	return out, nil
}

func (s *Service) record(ctx context.Context, out *Outcome, req ReconcileRequest, t credential.Type, defaulted bool) {
	first, err := s.verifications.IsFirstVerification(ctx, out.CredentialID)
	if err != nil {
		s.logger.WarnContext(ctx, "first verification check failed",
			"credential_id", out.CredentialID,
			"error", err,
		)
	}
	out.FirstVerification = first

	now := s.now()
	rec := &credential.VerificationRecord{
		ID:                  uuid.NewString(),
		CredentialID:        out.CredentialID,
		CredentialType:      t,
		TypeDefaulted:       defaulted,
		UserID:              req.UserID,
		MobileApplicationID: req.MobileApplicationID,
		Verified:            out.Verified,
		VerifiedAt:          now,
		CreatedAt:           now,
	}
	s.metrics.IncVerification(string(t), out.Verified)
	if err := s.verifications.Insert(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to record verification",
			"credential_id", out.CredentialID,
			"error", err,
		)
		return
	}
	out.Recorded = true
	s.logger.InfoContext(ctx, "verification recorded",
		"credential_id", out.CredentialID,
		"credential_type", t,
		"verified", out.Verified,
		"first_verification", first,
	)
}

// VerifyRequest is a scan submitted by a mobile application.
type VerifyRequest struct {
	Payload             string
	UserID              string
	MobileApplicationID string
	CredentialType      string
}

// VerifyResult is the platform verdict plus the reconciliation outcome.
type VerifyResult struct {
	Verified          bool              `json:"verified"`
	Decoded           credential.Claims `json:"decoded,omitempty"`
	Errors            []string          `json:"errors,omitempty"`
	CredentialType    credential.Type   `json:"credentialType"`
	CredentialID      string            `json:"credentialId,omitempty"`
	FirstVerification bool              `json:"firstVerification"`
}

// Verify checks the credential with the platform and reconciles it against
// the local registers. Recognized credentials must be registered locally.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	res, err := s.verifier.Verify(ctx, req.Payload)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{
		Verified:       res.Verified,
		Decoded:        res.Claims,
		Errors:         res.Errors,
		CredentialType: credential.TypeUnknown,
	}
	if len(res.Claims) == 0 {
		return result, nil
	}

	out, err := s.ReconcileAndRecord(ctx, ReconcileRequest{
		Claims:              res.Claims,
		Verified:            res.Verified,
		CallerType:          req.CredentialType,
		UserID:              req.UserID,
		MobileApplicationID: req.MobileApplicationID,
		RequireRegistered:   true,
	})
	if err != nil {
		return nil, err
	}
	result.Verified = out.Verified
	result.CredentialType = out.Type
	result.CredentialID = out.CredentialID
	result.FirstVerification = out.FirstVerification
	return result, nil
}
