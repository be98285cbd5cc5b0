// Package gateway is the typed HTTP client for the REST backend. It owns
// the credential lifecycle: attaching the bearer token, refreshing it once
// on a 401, and tearing the session down when the refresh is rejected.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"cs-simulator/internal/client/storage"
	"cs-simulator/internal/models"
)

// APIError carries a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Credentials is the durable authentication state: the token pair plus the
// minimal user record the auth endpoints return.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *models.UserResponse
}

// Client talks to the backend. Safe for concurrent use; the credential pair
// is guarded by a mutex so a refresh swaps both tokens atomically.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Store

	mu    sync.Mutex
	creds Credentials
}

func NewClient(baseURL string, store storage.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 65 * time.Second,
		},
		store: store,
	}
}

// Restore loads a previously persisted credential pair from durable storage.
// Holding stale tokens is fine: the first 401 triggers the refresh path.
func (c *Client) Restore(ctx context.Context) error {
	access, err := c.store.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("failed to restore access token: %w", err)
	}
	refresh, err := c.store.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("failed to restore refresh token: %w", err)
	}
	rawUser, err := c.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return fmt.Errorf("failed to restore user record: %w", err)
	}

	var user *models.UserResponse
	if len(rawUser) > 0 {
		user = &models.UserResponse{}
		if err := json.Unmarshal(rawUser, user); err != nil {
			return fmt.Errorf("failed to decode stored user record: %w", err)
		}
	}

	c.mu.Lock()
	c.creds = Credentials{
		AccessToken:  string(access),
		RefreshToken: string(refresh),
		User:         user,
	}
	c.mu.Unlock()
	return nil
}

// Authenticated reports whether a credential pair is held.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.AccessToken != ""
}

// User returns the stored user record, or nil for a guest session.
func (c *Client) User() *models.UserResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.User
}

// request performs one JSON backend call. On a 401 with a held refresh token
// it refreshes the pair exactly once and retries the original request exactly
// once; a failed refresh clears all credentials and returns the original 401.
func (c *Client) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = raw
		contentType = "application/json"
	}
	return c.requestRaw(ctx, method, path, contentType, payload)
}

// requestRaw is the refresh-and-retry core shared by JSON and multipart
// callers. The payload is held as bytes so the retry can replay it.
func (c *Client) requestRaw(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	data, status, err := c.doOnce(ctx, method, path, contentType, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusUnauthorized {
		return c.finish(data, status)
	}

	c.mu.Lock()
	refreshToken := c.creds.RefreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return c.finish(data, status)
	}

	if err := c.refreshCredentials(ctx, refreshToken); err != nil {
		log.Printf("WARN: token refresh failed, clearing session: %v", err)
		if clearErr := c.ClearCredentials(ctx); clearErr != nil {
			log.Printf("WARN: failed to clear credentials: %v", clearErr)
		}
		return c.finish(data, status)
	}

	data, status, err = c.doOnce(ctx, method, path, contentType, payload)
	if err != nil {
		return nil, err
	}
	return c.finish(data, status)
}

// doOnce executes a single HTTP round trip, returning the raw body and
// status. Transport failures come back as errors; HTTP-level failures do not.
func (c *Client) doOnce(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.mu.Lock()
	access := c.creds.AccessToken
	c.mu.Unlock()
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("network error: failed to read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// finish converts a completed round trip into the request contract: empty
// result for 204, APIError for other non-2xx.
func (c *Client) finish(data []byte, status int) ([]byte, error) {
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Message: errorMessage(data, status)}
	}
	return data, nil
}

// refreshCredentials performs the single refresh attempt and persists the
// rotated pair on success.
func (c *Client) refreshCredentials(ctx context.Context, refreshToken string) error {
	raw, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/refresh", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error during refresh: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	var auth models.AuthResponse
	if err := json.Unmarshal(data, &auth); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	return c.setCredentials(ctx, auth)
}

// setCredentials swaps the in-memory pair and persists it durably.
func (c *Client) setCredentials(ctx context.Context, auth models.AuthResponse) error {
	user := auth.User

	c.mu.Lock()
	c.creds = Credentials{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		User:         &user,
	}
	c.mu.Unlock()

	if err := c.store.Set(ctx, storage.KeyAccessToken, []byte(auth.AccessToken)); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := c.store.Set(ctx, storage.KeyRefreshToken, []byte(auth.RefreshToken)); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}
	if err := c.store.Set(ctx, storage.KeyUser, rawUser); err != nil {
		return fmt.Errorf("failed to persist user record: %w", err)
	}
	return nil
}

// ClearCredentials drops the in-memory pair and wipes durable storage.
func (c *Client) ClearCredentials(ctx context.Context) error {
	c.mu.Lock()
	c.creds = Credentials{}
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

// errorMessage pulls the backend's {"error": ...} message out of a failure
// body, falling back to the HTTP status text.
func errorMessage(data []byte, status int) string {
	var body models.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}

// getJSON is a typed GET helper.
func getJSON[T any](ctx context.Context, c *Client, path string) (*T, error) {
	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return &out, nil
}

// sendJSON is a typed helper for mutating calls that return a body.
func sendJSON[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	data, err := c.request(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return &out, nil
}
