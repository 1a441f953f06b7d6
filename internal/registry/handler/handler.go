package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"provenance/internal/registry"
	"provenance/internal/registry/oauth"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks OAuthFlow,PartsClient
type OAuthFlow interface {
	AuthorizationURL(ctx context.Context, sessionID string) (string, error)
	CompleteCallback(ctx context.Context, p oauth.CallbackParams) (*oauth.CallbackResult, error)
}

type PartsClient interface {
	OrganisationParts(ctx context.Context, sessionID, nzbn string) ([]registry.OrganisationPart, error)
	CreateOrganisationPart(ctx context.Context, sessionID, nzbn string, in registry.OrganisationPartRequest) (*registry.OrganisationPart, error)
	UpdateOrganisationPart(ctx context.Context, sessionID, nzbn, opn string, in registry.OrganisationPart) (*registry.OrganisationPart, error)
	DeleteOrganisationPart(ctx context.Context, sessionID, nzbn, opn string) error
}

// Handler serves the registry consent flow and the organisation-parts proxy.
type Handler struct {
	flow        OAuthFlow
	parts       PartsClient
	frontendURL string
	logger      *slog.Logger
}

func New(flow OAuthFlow, parts PartsClient, frontendURL string, logger *slog.Logger) *Handler {
	return &Handler{
		flow:        flow,
		parts:       parts,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Register mounts the routes. Consent starts from authorize-url: the SPA
// fetches the URL with its bearer token and navigates there itself. The
// callback is public because the user agent arrives from the registry
// without our bearer token; the state binds it to the session instead.
func (h *Handler) Register(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Get("/registry/oauth/callback", h.handleCallback)
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/registry/oauth/authorize-url", h.handleAuthorizeURL)
		r.Get("/registry/organisations/{nzbn}/parts", h.handleListParts)
		r.Post("/registry/organisations/{nzbn}/organisation-parts", h.handleCreatePart)
		r.Put("/registry/organisations/{nzbn}/organisation-parts/{opn}", h.handleUpdatePart)
		r.Delete("/registry/organisations/{nzbn}/organisation-parts/{opn}", h.handleDeletePart)
	})
}

func (h *Handler) handleAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authURL, err := h.flow.AuthorizationURL(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build registry authorization url",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"authorizationUrl": authURL})
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	_, err := h.flow.CompleteCallback(ctx, oauth.CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "registry callback failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		http.Redirect(w, r, h.callbackRedirect(callbackFailure(err)), http.StatusFound)
		return
	}
	http.Redirect(w, r, h.callbackRedirect(url.Values{"success": {"true"}}), http.StatusFound)
}

func (h *Handler) callbackRedirect(params url.Values) string {
	return h.frontendURL + "/nzbn/oauth/callback?" + params.Encode()
}

// callbackFailure maps a callback error onto the frontend's error codes.
func callbackFailure(err error) url.Values {
	var cbErr *oauth.CallbackError
	if errors.As(err, &cbErr) {
		return url.Values{"error": {cbErr.Code}, "error_description": {cbErr.Description}}
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidState:
		return url.Values{"error": {"invalid_state"}}
	case dErrors.CodeBadRequest:
		return url.Values{"error": {"missing_parameters"}}
	case dErrors.CodeNotFound:
		return url.Values{"error": {"session_not_found"}}
	default:
		return url.Values{"error": {"token_exchange_failed"}}
	}
}

func (h *Handler) handleListParts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts, err := h.parts.OrganisationParts(ctx, requestcontext.SessionID(ctx), chi.URLParam(r, "nzbn"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, parts)
}

func (h *Handler) handleCreatePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registry.OrganisationPartRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !req.TermsAndConditionsAccepted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "terms and conditions must be accepted"))
		return
	}
	if strings.TrimSpace(req.OrganisationPart.Name) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "organisation part name is required"))
		return
	}

	part, err := h.parts.CreateOrganisationPart(ctx, requestcontext.SessionID(ctx), chi.URLParam(r, "nzbn"), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, part)
}

func (h *Handler) handleUpdatePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registry.OrganisationPart
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	part, err := h.parts.UpdateOrganisationPart(ctx, requestcontext.SessionID(ctx), chi.URLParam(r, "nzbn"), chi.URLParam(r, "opn"), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, part)
}

func (h *Handler) handleDeletePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.parts.DeleteOrganisationPart(ctx, requestcontext.SessionID(ctx), chi.URLParam(r, "nzbn"), chi.URLParam(r, "opn")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
