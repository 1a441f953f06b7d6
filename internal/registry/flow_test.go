package registry_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/auth/models"
	"provenance/internal/auth/store/session"
	"provenance/internal/registry"
	"provenance/internal/registry/oauth"
	"provenance/internal/registry/state"
	"provenance/internal/upstream"
	dErrors "provenance/pkg/domain-errors"
)

// fakeRegistry serves the token endpoint and the organisation-parts API.
func fakeRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "registry-access",
			"refresh_token": "registry-refresh",
			"expires_in":    3600,
		})
	})
	r.Get("/nzbn/v5/entities/{nzbn}/organisation-parts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "registry-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"opn": "OPN1", "parentNzbn": chi.URLParam(r, "nzbn")}},
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthorizeCallbackThenResourceCall(t *testing.T) {
	ctx := context.Background()
	srv := fakeRegistry(t)

	sessions := session.New()
	require.NoError(t, sessions.Save(ctx, &models.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	httpClient := upstream.NewClient("registry", 5*time.Second)
	coord := oauth.NewCoordinator(oauth.Config{
		AuthorizeURL: srv.URL + "/oauth2/v2.0/authorize",
		TokenURL:     srv.URL + "/oauth2/v2.0/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3001/registry/oauth/callback",
		Policy:       "b2c_1a_api_consent_susi",
	}, httpClient, state.NewInMemory(), sessions)
	client := registry.NewClient(srv.URL, "sub-key", coord, httpClient, nil)

	_, err := client.OrganisationParts(ctx, "sess-1", "9429041535060")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), "no token before consent")

	authURL, err := coord.AuthorizationURL(ctx, "sess-1")
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	st := u.Query().Get("state")

	res, err := coord.CompleteCallback(ctx, oauth.CallbackParams{Code: "good-code", State: st})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", res.SessionID)

	parts, err := client.OrganisationParts(ctx, "sess-1", "9429041535060")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "9429041535060", parts[0].ParentNZBN)

	_, err = coord.CompleteCallback(ctx, oauth.CallbackParams{Code: "good-code", State: st})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState), "replayed state must be rejected")
}
