package services

import (
	"context"
	"errors"
	"fmt"

	"cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
)

// MessageService handles message persistence.
type MessageService struct {
	store store.Store
}

func NewMessageService(s store.Store) *MessageService {
	return &MessageService{store: s}
}

// ListByConversation returns the conversation's messages, oldest first.
func (s *MessageService) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.ChatMessageModel, error) {
	messages, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	responses := make([]models.ChatMessageModel, 0, len(messages))
	for i := range messages {
		responses = append(responses, mapMessageToResponse(&messages[i]))
	}
	return responses, nil
}

// Create persists one message.
func (s *MessageService) Create(ctx context.Context, req models.CreateMessageRequest) (*models.ChatMessageModel, error) {
	if err := validateMessageRequest(req); err != nil {
		return nil, err
	}
	message, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ID:             uuid.New(),
		ConversationID: req.ConversationID,
		Role:           req.Role,
		Content:        req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	resp := mapMessageToResponse(message)
	return &resp, nil
}

// CreateBatch persists several messages at once, preserving order. Used when
// a guest conversation is synced after migration.
func (s *MessageService) CreateBatch(ctx context.Context, reqs []models.CreateMessageRequest) ([]models.ChatMessageModel, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: message batch must not be empty", ErrValidation)
	}
	params := make([]store.CreateMessageParams, 0, len(reqs))
	for _, req := range reqs {
		if err := validateMessageRequest(req); err != nil {
			return nil, err
		}
		params = append(params, store.CreateMessageParams{
			ID:             uuid.New(),
			ConversationID: req.ConversationID,
			Role:           req.Role,
			Content:        req.Content,
		})
	}

	messages, err := s.store.CreateMessages(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create message batch: %w", err)
	}
	responses := make([]models.ChatMessageModel, 0, len(messages))
	for i := range messages {
		responses = append(responses, mapMessageToResponse(&messages[i]))
	}
	return responses, nil
}

// Delete removes one message.
func (s *MessageService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func validateMessageRequest(req models.CreateMessageRequest) error {
	if req.Role != models.MessageRoleUser && req.Role != models.MessageRoleAssistant {
		return fmt.Errorf("%w: role must be %q or %q", ErrValidation, models.MessageRoleUser, models.MessageRoleAssistant)
	}
	if req.Content == "" {
		return fmt.Errorf("%w: message content is required", ErrValidation)
	}
	if req.ConversationID == uuid.Nil {
		return fmt.Errorf("%w: conversationId is required", ErrValidation)
	}
	return nil
}

func mapMessageToResponse(m *models.Message) models.ChatMessageModel {
	return models.ChatMessageModel{
		ID:             m.ID,
		Role:           m.Role,
		Content:        m.Content,
		ConversationID: m.ConversationID,
		Timestamp:      m.Timestamp,
	}
}
