package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"provenance/internal/auth/models"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*models.Session, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts login publicly and the rest behind requireSession.
func (h *Handler) Register(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Post("/auth/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/auth/me", h.handleMe)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type meResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	Registry  bool   `json:"registry_connected"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.service.Session(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	_, connected := sess.Data[models.RegistryTokenKey]
	httputil.WriteJSON(w, http.StatusOK, meResponse{
		UserID:    sess.UserID,
		Email:     sess.Email,
		SessionID: sess.ID,
		Registry:  connected,
	})
}
