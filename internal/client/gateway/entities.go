package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cs-simulator/internal/models"

	"github.com/google/uuid"
)

// --- Projects ---

func (c *Client) ListProjects(ctx context.Context) ([]models.ProjectResponse, error) {
	return listJSON[models.ProjectResponse](ctx, c, "/api/projects/")
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*models.ProjectResponse, error) {
	return getJSON[models.ProjectResponse](ctx, c, "/api/projects/"+id.String())
}

func (c *Client) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.ProjectResponse, error) {
	return sendJSON[models.ProjectResponse](ctx, c, http.MethodPost, "/api/projects/", req)
}

func (c *Client) UpdateProject(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.ProjectResponse, error) {
	return sendJSON[models.ProjectResponse](ctx, c, http.MethodPut, "/api/projects/"+id.String(), req)
}

func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	_, err := c.request(ctx, http.MethodDelete, "/api/projects/"+id.String(), nil)
	return err
}

// MigrateProjects transfers ownership of the given guest projects to the
// authenticated account.
func (c *Client) MigrateProjects(ctx context.Context, projectIDs []uuid.UUID) error {
	_, err := c.request(ctx, http.MethodPost, "/api/projects/migrate",
		models.MigrateProjectsRequest{ProjectIDs: projectIDs})
	return err
}

// --- Conversations ---

func (c *Client) ListConversations(ctx context.Context, projectID *uuid.UUID) ([]models.ConversationResponse, error) {
	path := "/api/conversations/"
	if projectID != nil {
		path += "?projectId=" + projectID.String()
	}
	return listJSON[models.ConversationResponse](ctx, c, path)
}

func (c *Client) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error) {
	return sendJSON[models.ConversationResponse](ctx, c, http.MethodPost, "/api/conversations/", req)
}

func (c *Client) UpdateConversation(ctx context.Context, id uuid.UUID, req models.UpdateConversationRequest) (*models.ConversationResponse, error) {
	return sendJSON[models.ConversationResponse](ctx, c, http.MethodPut, "/api/conversations/"+id.String(), req)
}

func (c *Client) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	_, err := c.request(ctx, http.MethodDelete, "/api/conversations/"+id.String(), nil)
	return err
}

// --- Messages ---

func (c *Client) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.ChatMessageModel, error) {
	return listJSON[models.ChatMessageModel](ctx, c, "/api/messages/conversation/"+conversationID.String())
}

func (c *Client) CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*models.ChatMessageModel, error) {
	return sendJSON[models.ChatMessageModel](ctx, c, http.MethodPost, "/api/messages/", req)
}

// CreateMessagesBatch persists several messages in one call, preserving order.
func (c *Client) CreateMessagesBatch(ctx context.Context, reqs []models.CreateMessageRequest) ([]models.ChatMessageModel, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/messages/batch", reqs)
	if err != nil {
		return nil, err
	}
	var out []models.ChatMessageModel
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode message batch response: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	_, err := c.request(ctx, http.MethodDelete, "/api/messages/"+id.String(), nil)
	return err
}

// --- Files ---

func (c *Client) ListFiles(ctx context.Context, projectID uuid.UUID) ([]models.FileResponse, error) {
	return listJSON[models.FileResponse](ctx, c, "/api/files/project/"+projectID.String())
}

func (c *Client) CreateFile(ctx context.Context, req models.CreateFileRequest) (*models.FileResponse, error) {
	return sendJSON[models.FileResponse](ctx, c, http.MethodPost, "/api/files/", req)
}

func (c *Client) CreateFilesBatch(ctx context.Context, reqs []models.CreateFileRequest) ([]models.FileResponse, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/files/batch", reqs)
	if err != nil {
		return nil, err
	}
	var out []models.FileResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode file batch response: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, id uuid.UUID) error {
	_, err := c.request(ctx, http.MethodDelete, "/api/files/"+id.String(), nil)
	return err
}

// listJSON decodes a JSON array response.
func listJSON[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return out, nil
}
