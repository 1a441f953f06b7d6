package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "provenance/internal/auth/handler"
	credentialhandler "provenance/internal/credential/handler"
	"provenance/internal/platform/config"
	"provenance/internal/platform/middleware"
	registryhandler "provenance/internal/registry/handler"
	"provenance/pkg/platform/httputil"
)

const requestTimeout = 40 * time.Second

type routerDeps struct {
	cfg         config.Config
	log         *slog.Logger
	registry    *prometheus.Registry
	tokens      middleware.SessionTokenValidator
	sessions    middleware.SessionChecker
	auth        authhandler.Service
	credentials credentialhandler.Service
	oauth       registryhandler.OAuthFlow
	parts       registryhandler.PartsClient
	health      func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(d.log))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.health(r.Context()); err != nil {
			d.log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	requireSession := middleware.RequireSession(d.tokens, d.sessions, d.log)

	authhandler.New(d.auth, d.log).Register(r, requireSession)
	registryhandler.New(d.oauth, d.parts, d.cfg.Server.FrontendURL, d.log).Register(r, requireSession)
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		credentialhandler.New(d.credentials, d.log).Register(r, requireSession)
	})
	return r
}
