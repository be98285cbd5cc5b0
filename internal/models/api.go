package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth DTOs ---

// RegisterRequest defines the expected body for the register endpoint.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh credential for token rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UserResponse is the minimal user identity returned by the API.
// Never includes password or refresh-token material.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// AuthResponse is the credential pair plus user identity returned by
// register, login and refresh.
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         UserResponse `json:"user"`
}

// ProfileResponse is the full profile returned by GET /auth/profile.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// APIKeys is the per-provider credential bundle forwarded to the AI service.
// The ollama entry is a base URL rather than a key.
type APIKeys struct {
	GPT        string `json:"gpt"`
	Gemini     string `json:"gemini"`
	Claude     string `json:"claude"`
	Perplexity string `json:"perplexity"`
	Ollama     string `json:"ollama"`
}

// UserSettings is the model-selection state persisted per user.
type UserSettings struct {
	APIKeys       APIKeys  `json:"apiKeys"`
	EnabledModels []string `json:"enabledModels"`
	SelectedModel string   `json:"selectedModel"`
}

// UpdateSettingsRequest is a partial settings update; only non-nil fields
// are persisted.
type UpdateSettingsRequest struct {
	APIKeys       *APIKeys  `json:"apiKeys,omitempty"`
	EnabledModels *[]string `json:"enabledModels,omitempty"`
	SelectedModel *string   `json:"selectedModel,omitempty"`
}

// MessageResponse is returned inline with a generic success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Project DTOs ---

// CreateProjectRequest defines the body for creating a project.
type CreateProjectRequest struct {
	Name             string  `json:"name"`
	Category         *string `json:"category,omitempty"`
	Guidelines       *string `json:"guidelines,omitempty"`
	UploadPercentage *int    `json:"uploadPercentage,omitempty"`
}

// UpdateProjectRequest is a partial project update.
type UpdateProjectRequest struct {
	Name             *string `json:"name,omitempty"`
	Category         *string `json:"category,omitempty"`
	Guidelines       *string `json:"guidelines,omitempty"`
	UploadPercentage *int    `json:"uploadPercentage,omitempty"`
	IsExpanded       *bool   `json:"isExpanded,omitempty"`
}

// MigrateProjectsRequest lists the guest projects to claim for the caller.
type MigrateProjectsRequest struct {
	ProjectIDs []uuid.UUID `json:"projectIds"`
}

// ProjectResponse embeds the project's conversations (messages included,
// timestamp ascending) and files.
type ProjectResponse struct {
	ID               uuid.UUID              `json:"id"`
	Name             string                 `json:"name"`
	Category         *string                `json:"category,omitempty"`
	Guidelines       *string                `json:"guidelines,omitempty"`
	UploadPercentage int                    `json:"uploadPercentage"`
	IsExpanded       bool                   `json:"isExpanded"`
	UserID           *uuid.UUID             `json:"userId,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
	Conversations    []ConversationResponse `json:"conversations"`
	Files            []FileResponse         `json:"files"`
}

// --- Conversation DTOs ---

// CreateConversationRequest defines the body for creating a conversation.
// Role is fixed at creation.
type CreateConversationRequest struct {
	Title     string           `json:"title"`
	Preview   *string          `json:"preview,omitempty"`
	Role      ConversationRole `json:"role"`
	ProjectID uuid.UUID        `json:"projectId"`
}

// UpdateConversationRequest is a partial conversation update. Role is
// deliberately absent: it cannot change after creation.
type UpdateConversationRequest struct {
	Title   *string `json:"title,omitempty"`
	Preview *string `json:"preview,omitempty"`
}

// ConversationResponse embeds the ordered message sequence.
type ConversationResponse struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Preview   *string            `json:"preview,omitempty"`
	Role      ConversationRole   `json:"role"`
	ProjectID uuid.UUID          `json:"projectId"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Messages  []ChatMessageModel `json:"messages"`
}

// ChatMessageModel is the API shape of a persisted message.
type ChatMessageModel struct {
	ID             uuid.UUID   `json:"id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	ConversationID uuid.UUID   `json:"conversationId"`
	Timestamp      time.Time   `json:"timestamp"`
}

// CreateMessageRequest defines the body for persisting one message.
type CreateMessageRequest struct {
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	ConversationID uuid.UUID   `json:"conversationId"`
}

// --- File DTOs ---

// CreateFileRequest stores the metadata record of an already-embedded upload.
type CreateFileRequest struct {
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Size            int64     `json:"size"`
	ProjectID       uuid.UUID `json:"projectId"`
	EmbeddingFileID *string   `json:"embeddingFileId,omitempty"`
}

// FileResponse is the API shape of a project file record.
type FileResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Size            int64     `json:"size"`
	EmbeddingFileID *string   `json:"embeddingFileId,omitempty"`
	ProjectID       uuid.UUID `json:"projectId"`
	CreatedAt       time.Time `json:"createdAt"`
}
