package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"physioflow/internal/consent/service"
	"physioflow/internal/consent/store"
	"physioflow/internal/platform/middleware"
)

type HandlerSuite struct {
	suite.Suite
	store  *store.InMemoryStore
	router chi.Router
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = store.NewInMemory()
	manager := service.NewManager(s.store, logger)
	h := New(manager, logger, "https://example.com/privacy", time.Second)

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) request(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(middleware.WithClientID(req.Context(), "client-1"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestGetConsent_Undecided() {
	rec := s.request(http.MethodGet, "/consent", "")

	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.JSONEq(s.T(), `{
		"hasConsent": false,
		"allowed": {"analytics": false, "marketing": false, "preferences": false}
	}`, rec.Body.String())
}

func (s *HandlerSuite) TestDecide_AcceptAll() {
	rec := s.request(http.MethodPost, "/consent", `{"action":"accept_all"}`)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/consent", "")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(s.T(), body, `"hasConsent":true`)
	assert.Contains(s.T(), body, `"analytics":true`)
	assert.Contains(s.T(), body, `"version":"1.0"`)
}

func (s *HandlerSuite) TestDecide_CustomPersistsExactFlags() {
	rec := s.request(http.MethodPost, "/consent",
		`{"action":"custom","preferences":{"necessary":false,"analytics":true,"marketing":false,"preferences":false}}`)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	stored, err := s.store.Load(context.Background(), "client-1")
	require.NoError(s.T(), err)
	assert.True(s.T(), stored.Preferences.Necessary, "necessary is forced on")
	assert.True(s.T(), stored.Preferences.Analytics)
	assert.False(s.T(), stored.Preferences.Marketing)
}

func (s *HandlerSuite) TestDecide_InvalidAction() {
	rec := s.request(http.MethodPost, "/consent", `{"action":"maybe"}`)

	require.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "bad_request")
}

func (s *HandlerSuite) TestDecide_CustomWithoutPreferences() {
	rec := s.request(http.MethodPost, "/consent", `{"action":"custom"}`)

	require.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "preferences is required")
}

func (s *HandlerSuite) TestDecide_MalformedBody() {
	rec := s.request(http.MethodPost, "/consent", `{"action":`)

	require.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "invalid request body")
}

func (s *HandlerSuite) TestClear() {
	rec := s.request(http.MethodPost, "/consent", `{"action":"accept_all"}`)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	rec = s.request(http.MethodDelete, "/consent", "")
	require.Equal(s.T(), http.StatusNoContent, rec.Code)

	rec = s.request(http.MethodGet, "/consent", "")
	assert.Contains(s.T(), rec.Body.String(), `"hasConsent":false`)

	// Clearing again stays a no-op.
	rec = s.request(http.MethodDelete, "/consent", "")
	require.Equal(s.T(), http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestMissingClientIdentity() {
	req := httptest.NewRequest(http.MethodGet, "/consent", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestGetSettings() {
	rec := s.request(http.MethodGet, "/consent/settings", "")

	require.Equal(s.T(), http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(s.T(), body, `"id":"necessary"`)
	assert.Contains(s.T(), body, `"required":true`)
	assert.Contains(s.T(), body, "https://example.com/privacy")
	assert.Contains(s.T(), body, `"bannerDelayMs":1000`)
}
