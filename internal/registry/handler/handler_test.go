package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"provenance/internal/registry"
	"provenance/internal/registry/handler/mocks"
	"provenance/internal/registry/oauth"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

type RegistryHandlerSuite struct {
	suite.Suite
	flow   *mocks.MockOAuthFlow
	parts  *mocks.MockPartsClient
	router http.Handler
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

// fakeSession stands in for RequireSession.
func fakeSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithSessionID(r.Context(), "sess-1")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *RegistryHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.flow = mocks.NewMockOAuthFlow(ctrl)
	s.parts = mocks.NewMockPartsClient(ctrl)

	h := New(s.flow, s.parts, "http://localhost:3000/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r, fakeSession)
	s.router = r
}

func (s *RegistryHandlerSuite) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RegistryHandlerSuite) redirectQuery(w *httptest.ResponseRecorder) url.Values {
	s.Require().Equal(http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("/nzbn/oauth/callback", loc.Path)
	return loc.Query()
}

func (s *RegistryHandlerSuite) TestAuthorizeURL() {
	s.flow.EXPECT().AuthorizationURL(gomock.Any(), "sess-1").Return("https://registry.example.com/authorize?state=abc", nil)

	w := s.do(http.MethodGet, "/registry/oauth/authorize-url", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("https://registry.example.com/authorize?state=abc", resp["authorizationUrl"])
}

func (s *RegistryHandlerSuite) TestNoBearerGuardedRedirectRoute() {
	w := s.do(http.MethodGet, "/registry/oauth/authorize", nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RegistryHandlerSuite) TestCallback() {
	s.Run("success", func() {
		s.flow.EXPECT().CompleteCallback(gomock.Any(), oauth.CallbackParams{Code: "c", State: "st"}).
			Return(&oauth.CallbackResult{SessionID: "sess-1"}, nil)

		q := s.redirectQuery(s.do(http.MethodGet, "/registry/oauth/callback?code=c&state=st", nil))
		s.Equal("true", q.Get("success"))
	})

	s.Run("provider error is forwarded", func() {
		s.flow.EXPECT().CompleteCallback(gomock.Any(), gomock.Any()).
			Return(nil, &oauth.CallbackError{Code: "access_denied", Description: "cancelled"})

		q := s.redirectQuery(s.do(http.MethodGet, "/registry/oauth/callback?error=access_denied&state=st", nil))
		s.Equal("access_denied", q.Get("error"))
		s.Equal("cancelled", q.Get("error_description"))
	})

	s.Run("invalid state", func() {
		s.flow.EXPECT().CompleteCallback(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "invalid or expired state"))

		q := s.redirectQuery(s.do(http.MethodGet, "/registry/oauth/callback?code=c&state=replayed", nil))
		s.Equal("invalid_state", q.Get("error"))
	})

	s.Run("session gone", func() {
		s.flow.EXPECT().CompleteCallback(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "session not found"))

		q := s.redirectQuery(s.do(http.MethodGet, "/registry/oauth/callback?code=c&state=st", nil))
		s.Equal("session_not_found", q.Get("error"))
	})

	s.Run("exchange failure", func() {
		s.flow.EXPECT().CompleteCallback(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUpstream, "registry unavailable"))

		q := s.redirectQuery(s.do(http.MethodGet, "/registry/oauth/callback?code=c&state=st", nil))
		s.Equal("token_exchange_failed", q.Get("error"))
	})
}

func (s *RegistryHandlerSuite) TestListParts() {
	s.Run("returns the parts", func() {
		s.parts.EXPECT().OrganisationParts(gomock.Any(), "sess-1", "9429041535060").
			Return([]registry.OrganisationPart{{OPN: "OPN1", Name: "Packhouse"}}, nil)

		w := s.do(http.MethodGet, "/registry/organisations/9429041535060/parts", nil)

		s.Equal(http.StatusOK, w.Code)
		var parts []registry.OrganisationPart
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &parts))
		s.Require().Len(parts, 1)
		s.Equal("OPN1", parts[0].OPN)
	})

	s.Run("missing registry token", func() {
		s.parts.EXPECT().OrganisationParts(gomock.Any(), "sess-1", "9429041535060").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "registry token missing"))

		w := s.do(http.MethodGet, "/registry/organisations/9429041535060/parts", nil)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *RegistryHandlerSuite) TestCreatePart() {
	s.Run("requires accepted terms", func() {
		w := s.do(http.MethodPost, "/registry/organisations/9429041535060/organisation-parts",
			strings.NewReader(`{"organisationPart":{"name":"Orchard"}}`))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("creates", func() {
		s.parts.EXPECT().CreateOrganisationPart(gomock.Any(), "sess-1", "9429041535060", gomock.Any()).
			Return(&registry.OrganisationPart{OPN: "OPN9", Name: "Orchard"}, nil)

		w := s.do(http.MethodPost, "/registry/organisations/9429041535060/organisation-parts",
			strings.NewReader(`{"termsAndConditionsAccepted":true,"organisationPart":{"name":"Orchard"}}`))
		s.Equal(http.StatusCreated, w.Code)
	})
}

func TestUpdateAndDeletePart(t *testing.T) {
	ctrl := gomock.NewController(t)
	parts := mocks.NewMockPartsClient(ctrl)
	h := New(mocks.NewMockOAuthFlow(ctrl), parts, "http://localhost:3000", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r, fakeSession)

	parts.EXPECT().UpdateOrganisationPart(gomock.Any(), "sess-1", "9429041535060", "OPN9", registry.OrganisationPart{Name: "Renamed"}).
		Return(&registry.OrganisationPart{OPN: "OPN9", Name: "Renamed"}, nil)
	parts.EXPECT().DeleteOrganisationPart(gomock.Any(), "sess-1", "9429041535060", "OPN9").Return(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/registry/organisations/9429041535060/organisation-parts/OPN9", strings.NewReader(`{"name":"Renamed"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/registry/organisations/9429041535060/organisation-parts/OPN9", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
