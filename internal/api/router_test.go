package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cs-simulator/internal/config"
	"cs-simulator/internal/services"

	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	return NewRouter(RouterDependencies{
		Config: &config.Config{JWTSecret: "access-secret", JWTRefreshSecret: "refresh-secret"},
	})
}

func TestRequestTimeoutExceedsAIBudget(t *testing.T) {
	require.Greater(t, requestTimeout, services.AIRequestTimeout,
		"request context must outlive the slowest allowed upstream reply")
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountRoutesRejectMissingToken(t *testing.T) {
	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/settings"},
		{http.MethodPost, "/api/projects/migrate"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		newTestRouter().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}
