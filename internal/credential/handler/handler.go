// Package handler exposes credential verification, revocation and issuance
// over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"provenance/internal/credential"
	"provenance/internal/credential/service"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type Service interface {
	Verify(ctx context.Context, req service.VerifyRequest) (*service.VerifyResult, error)
	Revoke(ctx context.Context, req service.RevokeRequest) (*service.RevokeResult, error)
	IssueCollection(ctx context.Context, req service.IssueCollectionRequest) (*credential.CollectionCredential, error)
	IssueDelivery(ctx context.Context, req service.IssueDeliveryRequest) (*credential.DeliveryCredential, error)
	Collection(ctx context.Context, id string) (*credential.CollectionCredential, error)
	Delivery(ctx context.Context, id string) (*credential.DeliveryCredential, error)
	Verifications(ctx context.Context, credentialID string) ([]*credential.VerificationRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the routes. Verification is public for mobile scanners;
// everything else needs an operator session.
func (h *Handler) Register(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Post("/api/v1/verify", h.handleVerify)
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/api/v1/revoke", h.handleRevoke)
		r.Post("/api/v1/credentials/collection", h.handleIssueCollection)
		r.Post("/api/v1/credentials/delivery", h.handleIssueDelivery)
		r.Get("/api/v1/credentials/collection/{id}", h.handleGetCollection)
		r.Get("/api/v1/credentials/delivery/{id}", h.handleGetDelivery)
		r.Get("/api/v1/credentials/{id}/verifications", h.handleVerifications)
	})
}

// credentialRequest is the body shared by verify and revoke.
type credentialRequest struct {
	Payload             string `json:"payload"`
	UserID              string `json:"user_id,omitempty"`
	MobileApplicationID string `json:"mobile_application_id,omitempty"`
	CredentialType      string `json:"credential_type,omitempty"`
}

func (req *credentialRequest) normalize() error {
	req.Payload = strings.TrimSpace(req.Payload)
	if req.Payload == "" {
		return dErrors.New(dErrors.CodeBadRequest, "payload is required")
	}
	return nil
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req credentialRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.normalize(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Verify(ctx, service.VerifyRequest{
		Payload:             req.Payload,
		UserID:              req.UserID,
		MobileApplicationID: req.MobileApplicationID,
		CredentialType:      req.CredentialType,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "credential verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req credentialRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.normalize(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Revoke(ctx, service.RevokeRequest{
		Payload:        req.Payload,
		CredentialType: req.CredentialType,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "credential revocation failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", requestcontext.UserID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleIssueCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.IssueCollectionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.IssueCollection(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleIssueDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.IssueDeliveryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.IssueDelivery(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Collection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Delivery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleVerifications(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.Verifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"verifications": recs})
}
