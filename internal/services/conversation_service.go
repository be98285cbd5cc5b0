package services

import (
	"context"
	"errors"
	"fmt"

	"cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
)

// ConversationService handles conversation business logic.
type ConversationService struct {
	store store.Store
}

func NewConversationService(s store.Store) *ConversationService {
	return &ConversationService{store: s}
}

// List returns conversations, optionally filtered by project, each with its
// message sequence in chronological order.
func (s *ConversationService) List(ctx context.Context, projectID *uuid.UUID) ([]models.ConversationResponse, error) {
	conversations, err := s.store.ListConversations(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	responses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		messages, err := s.store.ListMessagesByConversation(ctx, conversations[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages for conversation %s: %w", conversations[i].ID, err)
		}
		responses = append(responses, mapConversationToResponse(&conversations[i], messages))
	}
	return responses, nil
}

// Get returns one conversation with messages.
func (s *ConversationService) Get(ctx context.Context, id uuid.UUID) (*models.ConversationResponse, error) {
	conversation, err := s.store.GetConversationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	messages, err := s.store.ListMessagesByConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for conversation %s: %w", id, err)
	}
	resp := mapConversationToResponse(conversation, messages)
	return &resp, nil
}

// Create stores a new conversation. Role must be customer or employee and is
// fixed for the conversation's lifetime.
func (s *ConversationService) Create(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: conversation title is required", ErrValidation)
	}
	if req.Role != models.RoleCustomer && req.Role != models.RoleEmployee {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrValidation, models.RoleCustomer, models.RoleEmployee)
	}
	if req.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: projectId is required", ErrValidation)
	}

	conversation, err := s.store.CreateConversation(ctx, store.CreateConversationParams{
		ID:        uuid.New(),
		ProjectID: req.ProjectID,
		Title:     req.Title,
		Preview:   req.Preview,
		Role:      req.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	resp := mapConversationToResponse(conversation, nil)
	return &resp, nil
}

// Update applies a partial title/preview update.
func (s *ConversationService) Update(ctx context.Context, id uuid.UUID, req models.UpdateConversationRequest) (*models.ConversationResponse, error) {
	conversation, err := s.store.UpdateConversation(ctx, store.UpdateConversationParams{
		ID:      id,
		Title:   req.Title,
		Preview: req.Preview,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	messages, err := s.store.ListMessagesByConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for conversation %s: %w", id, err)
	}
	resp := mapConversationToResponse(conversation, messages)
	return &resp, nil
}

// Delete removes a conversation; its messages cascade.
func (s *ConversationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func mapConversationToResponse(c *models.Conversation, messages []models.Message) models.ConversationResponse {
	msgResponses := make([]models.ChatMessageModel, 0, len(messages))
	for i := range messages {
		msgResponses = append(msgResponses, mapMessageToResponse(&messages[i]))
	}
	return models.ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		Preview:   c.Preview,
		Role:      c.Role,
		ProjectID: c.ProjectID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  msgResponses,
	}
}
