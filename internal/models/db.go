package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account in the database.
type User struct {
	ID               uuid.UUID       `db:"id"`
	Email            string          `db:"email"`
	Name             string          `db:"name"`
	HashedPassword   string          `db:"hashed_password"`
	RefreshTokenHash *string         `db:"refresh_token_hash"` // nil when logged out
	APIKeys          json.RawMessage `db:"api_keys"`           // Stored as JSONB, nil until first save
	EnabledModels    json.RawMessage `db:"enabled_models"`     // Stored as JSONB array of model ids
	SelectedModel    *string         `db:"selected_model"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// Project is a training project. UserID is nil for guest-created rows; the
// migrate operation claims exactly those rows for an authenticated user.
type Project struct {
	ID               uuid.UUID  `db:"id"`
	UserID           *uuid.UUID `db:"user_id"`
	Name             string     `db:"name"`
	Category         *string    `db:"category"`
	Guidelines       *string    `db:"guidelines"`
	UploadPercentage int        `db:"upload_percentage"` // 0-100 retrieval-depth knob
	IsExpanded       bool       `db:"is_expanded"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// ConversationRole tags which side of the simulation the trainee plays.
type ConversationRole string

const (
	RoleCustomer ConversationRole = "customer"
	RoleEmployee ConversationRole = "employee"
)

// Conversation belongs to exactly one project. Role is immutable after
// creation; there is no rename-role operation.
type Conversation struct {
	ID        uuid.UUID        `db:"id"`
	ProjectID uuid.UUID        `db:"project_id"`
	Title     string           `db:"title"`
	Preview   *string          `db:"preview"`
	Role      ConversationRole `db:"role"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

// MessageRole distinguishes trainee input from AI output.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one chat turn inside a conversation.
type Message struct {
	ID             uuid.UUID   `db:"id"`
	ConversationID uuid.UUID   `db:"conversation_id"`
	Role           MessageRole `db:"role"`
	Content        string      `db:"content"`
	Timestamp      time.Time   `db:"timestamp"`
}

// ProjectFile is the metadata record of an uploaded document. The embedding
// file id is the opaque handle returned by the AI service after ingestion.
type ProjectFile struct {
	ID              uuid.UUID `db:"id"`
	ProjectID       uuid.UUID `db:"project_id"`
	Name            string    `db:"name"`
	Type            string    `db:"type"`
	Size            int64     `db:"size"`
	EmbeddingFileID *string   `db:"embedding_file_id"`
	CreatedAt       time.Time `db:"created_at"`
}
