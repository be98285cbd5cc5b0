package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"cs-simulator/internal/models"

	"github.com/google/uuid"
)

// Chat requests an AI reply for a conversation turn. Callers in guest mode
// leave UserID empty; the server attaches the identity for members anyway.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	return sendJSON[models.ChatResponse](ctx, c, http.MethodPost, "/api/ai/chat", req)
}

// GenerateScenario asks for a fresh customer scenario to seed a conversation.
func (c *Client) GenerateScenario(ctx context.Context, req models.ScenarioRequest) (*models.ScenarioResponse, error) {
	return sendJSON[models.ScenarioResponse](ctx, c, http.MethodPost, "/api/ai/scenario", req)
}

// UploadFile sends a document for embedding. The multipart body is buffered
// so the refresh path can replay it on a 401.
func (c *Client) UploadFile(ctx context.Context, file io.Reader, filename string, projectID uuid.UUID, embedPercentage int) (*models.FileUploadResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to buffer upload: %w", err)
	}
	_ = writer.WriteField("projectId", projectID.String())
	_ = writer.WriteField("embedPercentage", strconv.Itoa(embedPercentage))
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	data, err := c.requestRaw(ctx, http.MethodPost, "/api/ai/upload", writer.FormDataContentType(), body.Bytes())
	if err != nil {
		return nil, err
	}
	var out models.FileUploadResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &out, nil
}

// Search queries a project's embedded documents.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	return sendJSON[models.SearchResponse](ctx, c, http.MethodPost, "/api/ai/search", req)
}

// DeleteProjectFiles removes all of a project's embedded documents.
func (c *Client) DeleteProjectFiles(ctx context.Context, projectID uuid.UUID) error {
	_, err := c.request(ctx, http.MethodDelete, "/api/ai/project/"+projectID.String()+"/files", nil)
	return err
}

// AIHealth reports inference availability. Never fails by contract.
func (c *Client) AIHealth(ctx context.Context) (*models.AIHealthResponse, error) {
	return getJSON[models.AIHealthResponse](ctx, c, "/api/ai/health")
}

// OllamaModels lists locally installed ollama models.
func (c *Client) OllamaModels(ctx context.Context) (*models.OllamaModelsResponse, error) {
	return getJSON[models.OllamaModelsResponse](ctx, c, "/api/ai/models/ollama")
}
