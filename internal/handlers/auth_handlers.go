package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cs-simulator/internal/auth"
	"cs-simulator/internal/models"
	"cs-simulator/internal/services"
	"cs-simulator/pkg/httputil"

	"github.com/google/uuid"
)

// AuthService defines the interface expected from the auth service.
// This promotes loose coupling and testability.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*models.ProfileResponse, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req models.UpdateSettingsRequest) (*models.UserSettings, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authSvc AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
	}
}

// HandleRegister handles the POST /api/auth/register request.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Printf("Register handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			httputil.RespondError(w, http.StatusConflict, err.Error()) // 409
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
		case errors.Is(err, services.ErrHashingPassword):
			fallthrough
		case errors.Is(err, services.ErrCreatingToken):
			fallthrough
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Registration failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp) // 201 Created
}

// HandleLogin handles the POST /api/auth/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Login handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error()) // 401
		case errors.Is(err, services.ErrCreatingToken):
			fallthrough
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleRefresh handles the POST /api/auth/refresh request. Every failure
// mode maps to 401 so the client knows to discard its credential pair.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	defer r.Body.Close()

	if req.RefreshToken == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "Refresh token is required")
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		log.Printf("Refresh handler failed: %v", err)
		switch {
		case errors.Is(err, services.ErrInvalidRefreshToken), errors.Is(err, services.ErrUserNotFound):
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid refresh token")
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Token refresh failed due to an internal error")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleLogout handles the POST /api/auth/logout request.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "User ID not found in token context")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		log.Printf("ERROR [AuthHandler] HandleLogout for UserID %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Logout failed due to an internal error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

// HandleProfile handles the GET /api/auth/profile request.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "User ID not found in token context")
		return
	}

	resp, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [AuthHandler] HandleProfile for UserID %s: %v", userID, err)
		if errors.Is(err, services.ErrUserNotFound) {
			httputil.RespondError(w, http.StatusNotFound, err.Error())
		} else {
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to load profile")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetSettings handles the GET /api/auth/settings request.
func (h *AuthHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "User ID not found in token context")
		return
	}

	settings, err := h.authService.GetSettings(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [AuthHandler] HandleGetSettings for UserID %s: %v", userID, err)
		if errors.Is(err, services.ErrUserNotFound) {
			httputil.RespondError(w, http.StatusNotFound, err.Error())
		} else {
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to load settings")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings)
}

// HandleUpdateSettings handles the PUT /api/auth/settings request.
func (h *AuthHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "User ID not found in token context")
		return
	}

	var req models.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	settings, err := h.authService.UpdateSettings(r.Context(), userID, req)
	if err != nil {
		log.Printf("ERROR [AuthHandler] HandleUpdateSettings for UserID %s: %v", userID, err)
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			httputil.RespondError(w, http.StatusNotFound, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to update settings")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings)
}
