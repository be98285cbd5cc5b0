package gateway

import (
	"context"
	"fmt"
	"net/http"

	"cs-simulator/internal/models"
)

// Register creates an account and persists the returned credential pair.
func (c *Client) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	auth, err := sendJSON[models.AuthResponse](ctx, c, http.MethodPost, "/api/auth/register",
		models.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, err
	}
	if err := c.setCredentials(ctx, *auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// Login authenticates and persists the returned credential pair.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	auth, err := sendJSON[models.AuthResponse](ctx, c, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := c.setCredentials(ctx, *auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// Logout invalidates the server-side refresh credential, then clears local
// credentials unconditionally, even when the server call failed.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "/api/auth/logout", nil)
	if clearErr := c.ClearCredentials(ctx); clearErr != nil {
		return fmt.Errorf("failed to clear credentials: %w", clearErr)
	}
	return err
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*models.ProfileResponse, error) {
	return getJSON[models.ProfileResponse](ctx, c, "/api/auth/profile")
}

// GetSettings fetches the account's settings bundle.
func (c *Client) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	return getJSON[models.UserSettings](ctx, c, "/api/auth/settings")
}

// UpdateSettings applies a partial settings update.
func (c *Client) UpdateSettings(ctx context.Context, req models.UpdateSettingsRequest) (*models.UserSettings, error) {
	return sendJSON[models.UserSettings](ctx, c, http.MethodPut, "/api/auth/settings", req)
}
