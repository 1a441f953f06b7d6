package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"provenance/internal/auth/models"
	"provenance/internal/auth/store/session"
	"provenance/internal/registry/state"
	"provenance/internal/upstream"
	dErrors "provenance/pkg/domain-errors"
)

type recordedRequest struct {
	Method   string
	Query    url.Values
	Body     string
	User     string
	Password string
	HasBasic bool
}

type fakeTokenServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response map[string]any
}

func (f *fakeTokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	user, pass, ok := r.BasicAuth()
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:   r.Method,
		Query:    r.URL.Query(),
		Body:     string(body),
		User:     user,
		Password: pass,
		HasBasic: ok,
	})
	status, resp := f.status, f.response
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeTokenServer) respond(status int, resp map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.response = status, resp
}

func (f *fakeTokenServer) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

type CoordinatorSuite struct {
	suite.Suite
	ctx      context.Context
	tokens   *fakeTokenServer
	server   *httptest.Server
	states   *state.InMemoryStore
	sessions *session.InMemorySessionStore
	now      time.Time
	coord    *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.tokens = &fakeTokenServer{
		status: http.StatusOK,
		response: map[string]any{
			"access_token":  "registry-access",
			"refresh_token": "registry-refresh",
			"expires_in":    3600,
		},
	}
	s.server = httptest.NewServer(s.tokens)
	s.T().Cleanup(s.server.Close)

	s.states = state.NewInMemory()
	s.sessions = session.New()
	s.now = time.Now()
	s.coord = NewCoordinator(Config{
		AuthorizeURL: "https://registry.example.com/oauth2/v2.0/authorize",
		TokenURL:     s.server.URL + "/oauth2/v2.0/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3001/registry/oauth/callback",
		Scope:        "NZBNCO:manage offline_access",
		Policy:       "b2c_1a_api_consent_susi",
	}, upstream.NewClient("registry", 5*time.Second), s.states, s.sessions,
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *CoordinatorSuite) saveSession(id string) *models.Session {
	sess := &models.Session{
		ID:        id,
		UserID:    "user-1",
		Email:     "ops@example.com",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	s.Require().NoError(s.sessions.Save(s.ctx, sess))
	return sess
}

func (s *CoordinatorSuite) stateFrom(rawURL string) string {
	u, err := url.Parse(rawURL)
	s.Require().NoError(err)
	return u.Query().Get("state")
}

func (s *CoordinatorSuite) TestAuthorizationURL() {
	s.Run("carries the registry parameters and a fresh state", func() {
		raw, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
		s.Require().NoError(err)

		u, err := url.Parse(raw)
		s.Require().NoError(err)
		q := u.Query()
		s.Equal("registry.example.com", u.Host)
		s.Equal("b2c_1a_api_consent_susi", q.Get("p"))
		s.Equal("code", q.Get("response_type"))
		s.Equal("client-id", q.Get("client_id"))
		s.Equal("http://localhost:3001/registry/oauth/callback", q.Get("redirect_uri"))
		s.Equal("NZBNCO:manage offline_access", q.Get("scope"))
		s.Len(q.Get("state"), 43)

		sessionID, err := s.states.Consume(s.ctx, q.Get("state"))
		s.Require().NoError(err)
		s.Equal("sess-1", sessionID)
	})

	s.Run("states are unique", func() {
		a, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
		s.Require().NoError(err)
		b, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
		s.Require().NoError(err)
		s.NotEqual(s.stateFrom(a), s.stateFrom(b))
	})

	s.Run("requires a session", func() {
		_, err := s.coord.AuthorizationURL(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *CoordinatorSuite) TestHandleCallbackExchangesCode() {
	raw, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
	s.Require().NoError(err)

	res, err := s.coord.HandleCallback(s.ctx, CallbackParams{Code: "auth-code", State: s.stateFrom(raw)})
	s.Require().NoError(err)
	s.Equal("sess-1", res.SessionID)
	s.Equal("registry-access", res.Token.AccessToken)
	s.Equal("registry-refresh", res.Token.RefreshToken)
	s.Equal("Bearer", res.Token.TokenType)
	s.Require().NotNil(res.Token.ExpiresAt)
	s.WithinDuration(s.now.Add(time.Hour), *res.Token.ExpiresAt, time.Second)

	calls := s.tokens.calls()
	s.Require().Len(calls, 1)
	got := calls[0]
	s.Equal(http.MethodPost, got.Method)
	s.Equal("b2c_1a_api_consent_susi", got.Query.Get("p"))
	s.Equal("authorization_code", got.Query.Get("grant_type"))
	s.Equal("auth-code", got.Query.Get("code"))
	s.Equal("http://localhost:3001/registry/oauth/callback", got.Query.Get("redirect_uri"))
	s.Empty(got.Body)
	s.True(got.HasBasic)
	s.Equal("client-id", got.User)
	s.Equal("client-secret", got.Password)
}

func (s *CoordinatorSuite) TestHandleCallbackRejectsReplay() {
	raw, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
	s.Require().NoError(err)
	st := s.stateFrom(raw)

	_, err = s.coord.HandleCallback(s.ctx, CallbackParams{Code: "auth-code", State: st})
	s.Require().NoError(err)

	_, err = s.coord.HandleCallback(s.ctx, CallbackParams{Code: "auth-code", State: st})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Len(s.tokens.calls(), 1)
}

func (s *CoordinatorSuite) TestHandleCallbackUnknownState() {
	_, err := s.coord.HandleCallback(s.ctx, CallbackParams{Code: "auth-code", State: "forged"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Empty(s.tokens.calls())
}

func (s *CoordinatorSuite) TestHandleCallbackProviderError() {
	raw, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
	s.Require().NoError(err)
	st := s.stateFrom(raw)

	_, err = s.coord.HandleCallback(s.ctx, CallbackParams{
		State:            st,
		Error:            "access_denied",
		ErrorDescription: "user cancelled",
	})
	var cbErr *CallbackError
	s.Require().ErrorAs(err, &cbErr)
	s.Equal("access_denied", cbErr.Code)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = s.states.Consume(s.ctx, st)
	s.Error(err, "state must not survive a provider error")
	s.Empty(s.tokens.calls())
}

func (s *CoordinatorSuite) TestHandleCallbackExchangeFailure() {
	s.tokens.respond(http.StatusBadRequest, map[string]any{"error": "invalid_grant"})

	raw, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
	s.Require().NoError(err)

	_, err = s.coord.HandleCallback(s.ctx, CallbackParams{Code: "stale", State: s.stateFrom(raw)})
	s.Require().Error(err)
	s.Equal(http.StatusBadRequest, upstream.StatusOf(err))
	s.Equal(upstream.CategoryRejected, upstream.GetCategory(err))
}

func (s *CoordinatorSuite) TestCompleteCallbackStoresToken() {
	s.saveSession("sess-1")
	raw, err := s.coord.AuthorizationURL(s.ctx, "sess-1")
	s.Require().NoError(err)

	_, err = s.coord.CompleteCallback(s.ctx, CallbackParams{Code: "auth-code", State: s.stateFrom(raw)})
	s.Require().NoError(err)

	sess, err := s.sessions.FindByID(s.ctx, "sess-1")
	s.Require().NoError(err)
	var tok Token
	found, err := sess.GetData(models.RegistryTokenKey, &tok)
	s.Require().NoError(err)
	s.True(found)
	s.Equal("registry-access", tok.AccessToken)
}

func (s *CoordinatorSuite) TestCompleteCallbackMissingSession() {
	raw, err := s.coord.AuthorizationURL(s.ctx, "gone")
	s.Require().NoError(err)

	_, err = s.coord.CompleteCallback(s.ctx, CallbackParams{Code: "auth-code", State: s.stateFrom(raw)})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CoordinatorSuite) TestRefresh() {
	s.tokens.respond(http.StatusOK, map[string]any{"access_token": "rotated", "expires_in": 600})

	tok, err := s.coord.Refresh(s.ctx, "old-refresh")
	s.Require().NoError(err)
	s.Equal("rotated", tok.AccessToken)
	s.Equal("old-refresh", tok.RefreshToken)

	calls := s.tokens.calls()
	s.Require().Len(calls, 1)
	form, err := url.ParseQuery(calls[0].Body)
	s.Require().NoError(err)
	s.Equal("refresh_token", form.Get("grant_type"))
	s.Equal("old-refresh", form.Get("refresh_token"))
	s.Equal("NZBNCO:manage offline_access", form.Get("scope"))
	s.True(calls[0].HasBasic)
}

func (s *CoordinatorSuite) TestSessionToken() {
	s.Run("missing session", func() {
		_, err := s.coord.SessionToken(s.ctx, "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("registry token missing", dErrors.Message(err))
	})

	s.Run("session without token", func() {
		s.saveSession("bare")
		_, err := s.coord.SessionToken(s.ctx, "bare")
		s.Equal("registry token missing", dErrors.Message(err))
	})

	s.Run("valid token is returned as is", func() {
		sess := s.saveSession("valid")
		exp := s.now.Add(time.Hour)
		s.Require().NoError(sess.SetData(models.RegistryTokenKey, Token{AccessToken: "live", ExpiresAt: &exp}))
		s.Require().NoError(s.sessions.Save(s.ctx, sess))

		tok, err := s.coord.SessionToken(s.ctx, "valid")
		s.Require().NoError(err)
		s.Equal("live", tok.AccessToken)
	})

	s.Run("expired without refresh token", func() {
		sess := s.saveSession("stale")
		exp := s.now.Add(-time.Minute)
		s.Require().NoError(sess.SetData(models.RegistryTokenKey, Token{AccessToken: "old", ExpiresAt: &exp}))
		s.Require().NoError(s.sessions.Save(s.ctx, sess))

		_, err := s.coord.SessionToken(s.ctx, "stale")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("registry token expired", dErrors.Message(err))
	})

	s.Run("expired with refresh token is refreshed and persisted", func() {
		sess := s.saveSession("refreshable")
		exp := s.now.Add(-time.Minute)
		s.Require().NoError(sess.SetData(models.RegistryTokenKey, Token{
			AccessToken:  "old",
			RefreshToken: "refresh-me",
			ExpiresAt:    &exp,
		}))
		s.Require().NoError(s.sessions.Save(s.ctx, sess))

		tok, err := s.coord.SessionToken(s.ctx, "refreshable")
		s.Require().NoError(err)
		s.Equal("registry-access", tok.AccessToken)

		stored, err := s.sessions.FindByID(s.ctx, "refreshable")
		s.Require().NoError(err)
		var persisted Token
		_, err = stored.GetData(models.RegistryTokenKey, &persisted)
		s.Require().NoError(err)
		s.Equal("registry-access", persisted.AccessToken)
	})
}
