package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cs-simulator/internal/models"
	"cs-simulator/internal/services"
	"cs-simulator/pkg/httputil"

	"github.com/google/uuid"
)

// ConversationService defines the interface expected from the conversation service.
type ConversationService interface {
	List(ctx context.Context, projectID *uuid.UUID) ([]models.ConversationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ConversationResponse, error)
	Create(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateConversationRequest) (*models.ConversationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ConversationHandler struct {
	conversationService ConversationService
}

func NewConversationHandler(convSvc ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: convSvc,
	}
}

// HandleListConversations handles GET /api/conversations with an optional
// ?projectId= filter.
func (h *ConversationHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	var projectID *uuid.UUID
	if raw := r.URL.Query().Get("projectId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid projectId filter")
			return
		}
		projectID = &id
	}

	conversations, err := h.conversationService.List(r.Context(), projectID)
	if err != nil {
		log.Printf("ERROR [ConversationHandler] HandleListConversations: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	if conversations == nil {
		conversations = []models.ConversationResponse{}
	}
	httputil.RespondJSON(w, http.StatusOK, conversations)
}

// HandleGetConversation handles GET /api/conversations/{conversationID}
func (h *ConversationHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := parseIDParam(w, r, "conversationID")
	if !ok {
		return
	}

	resp, err := h.conversationService.Get(r.Context(), conversationID)
	if err != nil {
		log.Printf("ERROR [ConversationHandler] HandleGetConversation for ID %s: %v", conversationID, err)
		respondEntityError(w, err, "Failed to get conversation")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleCreateConversation handles POST /api/conversations
func (h *ConversationHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.conversationService.Create(r.Context(), req)
	if err != nil {
		log.Printf("ERROR [ConversationHandler] HandleCreateConversation: %v", err)
		respondEntityError(w, err, "Failed to create conversation")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleUpdateConversation handles PUT /api/conversations/{conversationID}.
// Only title and preview are mutable.
func (h *ConversationHandler) HandleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := parseIDParam(w, r, "conversationID")
	if !ok {
		return
	}

	var req models.UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.conversationService.Update(r.Context(), conversationID, req)
	if err != nil {
		log.Printf("ERROR [ConversationHandler] HandleUpdateConversation for ID %s: %v", conversationID, err)
		respondEntityError(w, err, "Failed to update conversation")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteConversation handles DELETE /api/conversations/{conversationID}
func (h *ConversationHandler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := parseIDParam(w, r, "conversationID")
	if !ok {
		return
	}

	if err := h.conversationService.Delete(r.Context(), conversationID); err != nil {
		log.Printf("ERROR [ConversationHandler] HandleDeleteConversation for ID %s: %v", conversationID, err)
		respondEntityError(w, err, "Failed to delete conversation")
		return
	}

	httputil.RespondNoContent(w)
}

func respondEntityError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
