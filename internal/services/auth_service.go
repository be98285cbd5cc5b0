package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"cs-simulator/internal/auth"
	"cs-simulator/internal/config"
	"cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrHashingPassword     = errors.New("failed to hash password")
	ErrCreatingToken       = errors.New("failed to create access token")
	ErrUserNotFound        = errors.New("user not found")
	ErrValidation          = errors.New("input validation failed")
)

type AuthService struct {
	store store.Store
	cfg   *config.Config
}

func NewAuthService(s store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: s,
		cfg:   cfg,
	}
}

// Register creates a new user and issues the first credential pair.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}

	// Check if user already exists
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Error checking user existence for %s: %v", email, err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", email, err)
		return nil, ErrHashingPassword
	}

	// Name falls back to the local part of the email address.
	if name = strings.TrimSpace(name); name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user := &models.User{
		ID:             uuid.New(),
		Email:          email,
		Name:           name,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		log.Printf("Error creating user for %s: %v", email, err)
		return nil, fmt.Errorf("creating user failed: %w", err)
	}

	log.Printf("Successfully registered user %s (ID: %s)", email, user.ID)
	return s.issueTokens(ctx, user)
}

// Login verifies user credentials and issues a fresh credential pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials // Don't reveal if user exists or password is wrong
		}
		log.Printf("Error retrieving user %s during login: %v", email, err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	log.Printf("Successfully logged in user %s (ID: %s)", email, user.ID)
	return s.issueTokens(ctx, user)
}

// Refresh rotates the credential pair. The presented refresh token must both
// verify as a JWT against the refresh secret and match the stored hash, so a
// stolen pre-rotation token is useless.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := auth.ParseToken(refreshToken, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		log.Printf("Error retrieving user %s during refresh: %v", claims.UserID, err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if user.RefreshTokenHash == nil || !auth.CheckRefreshTokenHash(refreshToken, *user.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

// Logout clears the stored refresh hash so the outstanding refresh token can
// no longer rotate.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.UpdateUserRefreshToken(ctx, userID, nil); err != nil {
		log.Printf("Error clearing refresh token for user %s: %v", userID, err)
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// Profile returns the caller's profile.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.ProfileResponse, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &models.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}, nil
}

// GetSettings returns the user's settings with documented defaults filled in
// for anything never saved.
func (s *AuthService) GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return settingsFromUser(user), nil
}

// UpdateSettings applies a partial settings update and returns the merged
// result.
func (s *AuthService) UpdateSettings(ctx context.Context, userID uuid.UUID, req models.UpdateSettingsRequest) (*models.UserSettings, error) {
	params := store.UpdateUserSettingsParams{UserID: userID, SelectedModel: req.SelectedModel}

	if req.APIKeys != nil {
		raw, err := json.Marshal(req.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal api keys: %w", err)
		}
		params.APIKeys = raw
	}
	if req.EnabledModels != nil {
		raw, err := json.Marshal(req.EnabledModels)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal enabled models: %w", err)
		}
		params.EnabledModels = raw
	}

	user, err := s.store.UpdateUserSettings(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("Error updating settings for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settingsFromUser(user), nil
}

func settingsFromUser(user *models.User) *models.UserSettings {
	settings := models.DefaultSettings()

	if len(user.APIKeys) > 0 {
		if err := json.Unmarshal(user.APIKeys, &settings.APIKeys); err != nil {
			log.Printf("WARN: Corrupt api_keys for user %s, using defaults: %v", user.ID, err)
		}
	}
	if len(user.EnabledModels) > 0 {
		var enabled []string
		if err := json.Unmarshal(user.EnabledModels, &enabled); err != nil {
			log.Printf("WARN: Corrupt enabled_models for user %s, using defaults: %v", user.ID, err)
		} else {
			settings.EnabledModels = enabled
		}
	}
	if user.SelectedModel != nil && *user.SelectedModel != "" {
		settings.SelectedModel = *user.SelectedModel
	}
	return &settings
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, err := auth.NewAccessToken(user.ID, user.Email, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, ErrCreatingToken
	}
	refreshToken, err := auth.NewRefreshToken(user.ID, user.Email, s.cfg.JWTRefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, ErrCreatingToken
	}

	refreshHash, err := auth.HashRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrCreatingToken
	}
	if err := s.store.UpdateUserRefreshToken(ctx, user.ID, &refreshHash); err != nil {
		log.Printf("Error storing refresh token hash for user %s: %v", user.ID, err)
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: models.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	}, nil
}
