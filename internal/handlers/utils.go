package handlers

import (
	"context"
	"net/http"

	"cs-simulator/internal/auth"
	"cs-simulator/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// optionalUserID returns the authenticated user's ID, or nil for guest
// requests that carried no token.
func optionalUserID(ctx context.Context) *uuid.UUID {
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil
	}
	return &userID
}

// parseIDParam parses a UUID path parameter, writing a 400 response itself
// when the value is malformed.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
