package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"cs-simulator/internal/models"
)

// RespondJSON writes payload as JSON with the given status code. A nil
// payload writes the status line only. An encode failure can only be logged;
// the header is already on the wire.
func RespondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// RespondError writes the standard {"error": message} envelope.
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{Error: message})
}

// RespondNoContent writes an empty 204, the contract for every delete route.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
