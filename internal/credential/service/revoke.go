package service

import (
	"context"

	"provenance/internal/credential"
	dErrors "provenance/pkg/domain-errors"
)

// RevokeRequest identifies the credential to revoke by its compact form.
type RevokeRequest struct {
	Payload        string
	CredentialType string
}

type RevokeResult struct {
	Success        bool            `json:"success"`
	CredentialID   string          `json:"credentialId"`
	CredentialType credential.Type `json:"credentialType"`
}

// Revoke resolves the platform credential id through the local register and
// revokes it upstream. The local status changes only after the platform
// accepted the revocation.
func (s *Service) Revoke(ctx context.Context, req RevokeRequest) (*RevokeResult, error) {
	res, err := s.verifier.Verify(ctx, req.Payload)
	if err != nil {
		return nil, err
	}
	if len(res.Claims) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential could not be decoded")
	}

	t := credential.ReconcileType(credential.DetectType(res.Claims), req.CredentialType)
	var externalID string
	registered := false
	if domainID, ok := credential.DomainID(res.Claims, t); ok {
		externalID, err = s.lookupExternalID(ctx, t, domainID)
		if err != nil {
			s.metrics.IncRevocation("not_found")
			return nil, notRegistered(t, domainID, err)
		}
		registered = true
	}
	if externalID == "" {
		id, ok := credential.FallbackID(res.Claims)
		if !ok {
			s.metrics.IncRevocation("ambiguous")
			return nil, dErrors.New(dErrors.CodeAmbiguousCredential, "cannot determine which credential to revoke")
		}
		externalID = id
	}

	if err := s.platform.SetRevocationStatus(ctx, externalID, true); err != nil {
		s.metrics.IncRevocation("upstream_error")
		s.logger.ErrorContext(ctx, "upstream revocation failed",
			"credential_id", externalID,
			"error", err,
		)
		return nil, err
	}
	s.metrics.IncRevocation("success")

	if registered {
		s.markRevoked(ctx, t, externalID)
	}
	s.logger.InfoContext(ctx, "credential revoked",
		"credential_id", externalID,
		"credential_type", t,
	)
	return &RevokeResult{Success: true, CredentialID: externalID, CredentialType: t}, nil
}

// markRevoked mirrors an accepted upstream revocation locally. The platform
// is the source of truth, so a failure here is only logged.
func (s *Service) markRevoked(ctx context.Context, t credential.Type, externalID string) {
	var err error
	switch t {
	case credential.TypeCollection:
		err = s.collections.UpdateStatus(ctx, externalID, credential.StatusRevoked)
	case credential.TypeDelivery:
		err = s.deliveries.UpdateStatus(ctx, externalID, credential.StatusRevoked)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark credential revoked locally",
			"credential_id", externalID,
			"error", err,
		)
	}
}
