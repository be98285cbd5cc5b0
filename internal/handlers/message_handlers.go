package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"cs-simulator/internal/models"
	"cs-simulator/pkg/httputil"

	"github.com/google/uuid"
)

// MessageService defines the interface expected from the message service.
type MessageService interface {
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.ChatMessageModel, error)
	Create(ctx context.Context, req models.CreateMessageRequest) (*models.ChatMessageModel, error)
	CreateBatch(ctx context.Context, reqs []models.CreateMessageRequest) ([]models.ChatMessageModel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MessageHandler struct {
	messageService MessageService
}

func NewMessageHandler(msgSvc MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: msgSvc,
	}
}

// HandleListMessages handles GET /api/messages/conversation/{conversationID}.
// Messages come back in timestamp order.
func (h *MessageHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := parseIDParam(w, r, "conversationID")
	if !ok {
		return
	}

	messages, err := h.messageService.ListByConversation(r.Context(), conversationID)
	if err != nil {
		log.Printf("ERROR [MessageHandler] HandleListMessages for conversation %s: %v", conversationID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	if messages == nil {
		messages = []models.ChatMessageModel{}
	}
	httputil.RespondJSON(w, http.StatusOK, messages)
}

// HandleCreateMessage handles POST /api/messages
func (h *MessageHandler) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.messageService.Create(r.Context(), req)
	if err != nil {
		log.Printf("ERROR [MessageHandler] HandleCreateMessage for conversation %s: %v", req.ConversationID, err)
		respondEntityError(w, err, "Failed to create message")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleCreateMessagesBatch handles POST /api/messages/batch. The whole batch
// persists in one transaction, preserving order.
func (h *MessageHandler) HandleCreateMessagesBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.messageService.CreateBatch(r.Context(), reqs)
	if err != nil {
		log.Printf("ERROR [MessageHandler] HandleCreateMessagesBatch (%d messages): %v", len(reqs), err)
		respondEntityError(w, err, "Failed to create messages")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleDeleteMessage handles DELETE /api/messages/{messageID}
func (h *MessageHandler) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := parseIDParam(w, r, "messageID")
	if !ok {
		return
	}

	if err := h.messageService.Delete(r.Context(), messageID); err != nil {
		log.Printf("ERROR [MessageHandler] HandleDeleteMessage for ID %s: %v", messageID, err)
		respondEntityError(w, err, "Failed to delete message")
		return
	}

	httputil.RespondNoContent(w)
}
