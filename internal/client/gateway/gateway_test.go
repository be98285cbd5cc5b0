package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cs-simulator/internal/client/storage"
	"cs-simulator/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func authResponse(access, refresh string) models.AuthResponse {
	return models.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         models.UserResponse{ID: uuid.New(), Email: "a@b.c", Name: "a"},
	}
}

func seedCredentials(t *testing.T, store storage.Store, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, storage.KeyAccessToken, []byte(access)))
	require.NoError(t, store.Set(ctx, storage.KeyRefreshToken, []byte(refresh)))
	rawUser, err := json.Marshal(models.UserResponse{ID: uuid.New(), Email: "a@b.c"})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, storage.KeyUser, rawUser))
}

func TestRequestRetriesExactlyOnceAfterRefresh(t *testing.T) {
	var projectCalls, refreshCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		projectCalls++
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Token has expired"})
			return
		}
		json.NewEncoder(w).Encode([]models.ProjectResponse{{ID: uuid.New(), Name: "Returns"}})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var req models.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "old-refresh", req.RefreshToken)
		json.NewEncoder(w).Encode(authResponse("fresh-access", "fresh-refresh"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedCredentials(t, store, "stale-access", "old-refresh")

	c := NewClient(srv.URL, store)
	require.NoError(t, c.Restore(context.Background()))

	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, 2, projectCalls, "original call plus exactly one retry")
	require.Equal(t, 1, refreshCalls)

	// The rotated pair must be persisted durably.
	access, err := store.Get(context.Background(), storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "fresh-access", string(access))
	refresh, err := store.Get(context.Background(), storage.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "fresh-refresh", string(refresh))
}

func TestFailedRefreshClearsCredentialsNoLoop(t *testing.T) {
	var projectCalls, refreshCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		projectCalls++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Token has expired"})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Invalid refresh token"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedCredentials(t, store, "stale-access", "dead-refresh")

	c := NewClient(srv.URL, store)
	require.NoError(t, c.Restore(context.Background()))

	_, err := c.ListProjects(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status, "original 401 is returned")

	require.Equal(t, 1, projectCalls, "no retry after a failed refresh")
	require.Equal(t, 1, refreshCalls)
	require.False(t, c.Authenticated())

	access, err := store.Get(context.Background(), storage.KeyAccessToken)
	require.NoError(t, err)
	require.Nil(t, access, "durable credentials are wiped")
}

func TestNoRefreshAttemptWithoutRefreshToken(t *testing.T) {
	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Authorization header required"})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, storage.NewMemoryStore())
	_, err := c.ListProjects(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Zero(t, refreshCalls)
}

func TestNoContentYieldsEmptyResult(t *testing.T) {
	mux := http.NewServeMux()
	id := uuid.New()
	mux.HandleFunc("/api/projects/"+id.String(), func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, storage.NewMemoryStore())
	require.NoError(t, c.DeleteProject(context.Background(), id))
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "project name is required"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, storage.NewMemoryStore())
	_, err := c.CreateProject(context.Background(), models.CreateProjectRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "project name is required", apiErr.Message)
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", storage.NewMemoryStore())
	_, err := c.ListProjects(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr), "network failure surfaces as a generic error")
}

func TestLoginPersistsCredentialPair(t *testing.T) {
	auth := authResponse("access-1", "refresh-1")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(auth)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := storage.NewMemoryStore()
	c := NewClient(srv.URL, store)

	got, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, auth.AccessToken, got.AccessToken)
	require.True(t, c.Authenticated())
	require.Equal(t, auth.User.ID, c.User().ID)

	access, err := store.Get(context.Background(), storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "access-1", string(access))

	rawUser, err := store.Get(context.Background(), storage.KeyUser)
	require.NoError(t, err)
	var storedUser models.UserResponse
	require.NoError(t, json.Unmarshal(rawUser, &storedUser))
	require.Equal(t, auth.User.Email, storedUser.Email)
}

func TestLogoutClearsCredentialsEvenOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "boom"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedCredentials(t, store, "access", "refresh")
	c := NewClient(srv.URL, store)
	require.NoError(t, c.Restore(context.Background()))

	err := c.Logout(context.Background())
	require.Error(t, err, "server failure is still reported")
	require.False(t, c.Authenticated())
}

func TestRestoreTrustsStoredPairWithoutValidation(t *testing.T) {
	// No server at all: restoring must not require a round trip.
	store := storage.NewMemoryStore()
	seedCredentials(t, store, "access", "refresh")

	c := NewClient("http://127.0.0.1:1", store)
	require.NoError(t, c.Restore(context.Background()))
	require.True(t, c.Authenticated())
}
