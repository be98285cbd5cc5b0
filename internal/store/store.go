package store

import (
	"context"
	"encoding/json"
	"errors"

	db_models "cs-simulator/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// UpdateUserSettingsParams contains the optional per-field settings update.
// Pointers distinguish "not provided" from "set to zero value".
type UpdateUserSettingsParams struct {
	UserID        uuid.UUID
	APIKeys       json.RawMessage // JSON marshaled bytes, nil = keep
	EnabledModels json.RawMessage // JSON marshaled bytes, nil = keep
	SelectedModel *string
}

// CreateProjectParams contains parameters for creating a project.
type CreateProjectParams struct {
	ID               uuid.UUID
	UserID           *uuid.UUID // nil for guest-created projects
	Name             string
	Category         *string
	Guidelines       *string
	UploadPercentage int
	IsExpanded       bool
}

// UpdateProjectParams contains parameters for a partial project update.
type UpdateProjectParams struct {
	ID               uuid.UUID
	Name             *string
	Category         *string
	Guidelines       *string
	UploadPercentage *int
	IsExpanded       *bool
}

// CreateConversationParams contains parameters for creating a conversation.
type CreateConversationParams struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Title     string
	Preview   *string
	Role      db_models.ConversationRole
}

// UpdateConversationParams contains parameters for a partial conversation
// update. Role is immutable and deliberately absent.
type UpdateConversationParams struct {
	ID      uuid.UUID
	Title   *string
	Preview *string
}

// CreateMessageParams contains parameters for persisting one message.
type CreateMessageParams struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           db_models.MessageRole
	Content        string
}

// CreateFileParams contains parameters for persisting a file metadata record.
type CreateFileParams struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	Name            string
	Type            string
	Size            int64
	EmbeddingFileID *string
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error)
	CreateUser(ctx context.Context, user *db_models.User) error
	UpdateUserRefreshToken(ctx context.Context, id uuid.UUID, refreshTokenHash *string) error
	UpdateUserSettings(ctx context.Context, arg UpdateUserSettingsParams) (*db_models.User, error)

	// Project operations
	CreateProject(ctx context.Context, arg CreateProjectParams) (*db_models.Project, error)
	GetProjectByID(ctx context.Context, id uuid.UUID) (*db_models.Project, error)
	// ListProjects returns the caller's projects when userID is non-nil,
	// otherwise the unowned (guest) pool.
	ListProjects(ctx context.Context, userID *uuid.UUID) ([]db_models.Project, error)
	UpdateProject(ctx context.Context, arg UpdateProjectParams) (*db_models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	// MigrateProjects claims the listed projects for userID, skipping any row
	// that already has an owner. Returns the number of rows claimed.
	MigrateProjects(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error)

	// Conversation operations
	CreateConversation(ctx context.Context, arg CreateConversationParams) (*db_models.Conversation, error)
	GetConversationByID(ctx context.Context, id uuid.UUID) (*db_models.Conversation, error)
	ListConversations(ctx context.Context, projectID *uuid.UUID) ([]db_models.Conversation, error)
	UpdateConversation(ctx context.Context, arg UpdateConversationParams) (*db_models.Conversation, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	// Message operations
	CreateMessage(ctx context.Context, arg CreateMessageParams) (*db_models.Message, error)
	CreateMessages(ctx context.Context, args []CreateMessageParams) ([]db_models.Message, error)
	ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]db_models.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error

	// File operations
	CreateFile(ctx context.Context, arg CreateFileParams) (*db_models.ProjectFile, error)
	CreateFiles(ctx context.Context, args []CreateFileParams) ([]db_models.ProjectFile, error)
	ListFilesByProject(ctx context.Context, projectID uuid.UUID) ([]db_models.ProjectFile, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}
