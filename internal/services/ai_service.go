package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cs-simulator/internal/models"
)

// AIRequestTimeout bounds every proxied call; model responses can be slow.
// The router request timeout and the server write timeout both sit above it
// so a slow-but-successful upstream reply is never severed mid-flight.
const AIRequestTimeout = 60 * time.Second

// UpstreamError carries a failure reported by the AI inference service so
// handlers can forward its status code.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai service error (status %d): %s", e.Status, e.Message)
}

// AIService proxies requests to the external AI inference service. The
// service is usable without authentication; guest calls simply omit the
// user identity.
type AIService struct {
	baseURL    string
	httpClient *http.Client
}

func NewAIService(baseURL string) *AIService {
	return &AIService{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: AIRequestTimeout,
		},
	}
}

// upstream payloads use the inference service's snake_case contract.

type upstreamChatRequest struct {
	Message             string                `json:"message"`
	ProjectID           string                `json:"project_id"`
	ConversationID      string                `json:"conversation_id"`
	Role                string                `json:"role"`
	ModelID             string                `json:"model_id"`
	APIKeys             *models.APIKeys       `json:"api_keys,omitempty"`
	Guidelines          string                `json:"guidelines,omitempty"`
	ConversationHistory []models.HistoryEntry `json:"conversation_history,omitempty"`
	UserID              *string               `json:"user_id"`
}

type upstreamScenarioRequest struct {
	ProjectID  string          `json:"project_id"`
	ModelID    string          `json:"model_id"`
	APIKeys    *models.APIKeys `json:"api_keys,omitempty"`
	Guidelines string          `json:"guidelines,omitempty"`
	UserID     *string         `json:"user_id"`
}

type upstreamSearchRequest struct {
	Query     string  `json:"query"`
	ProjectID string  `json:"project_id"`
	TopK      int     `json:"top_k"`
	UserID    *string `json:"user_id"`
}

// Chat forwards a chat turn to the inference service.
func (s *AIService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	payload := upstreamChatRequest{
		Message:             req.Message,
		ProjectID:           req.ProjectID,
		ConversationID:      req.ConversationID,
		Role:                req.Role,
		ModelID:             defaultModel(req.ModelID),
		APIKeys:             req.APIKeys,
		Guidelines:          req.Guidelines,
		ConversationHistory: req.ConversationHistory,
		UserID:              nullable(req.UserID),
	}

	var resp models.ChatResponse
	if err := s.postJSON(ctx, "/api/ai/chat", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateScenario asks the inference service to invent a customer scenario.
func (s *AIService) GenerateScenario(ctx context.Context, req models.ScenarioRequest) (*models.ScenarioResponse, error) {
	payload := upstreamScenarioRequest{
		ProjectID:  req.ProjectID,
		ModelID:    defaultModel(req.ModelID),
		APIKeys:    req.APIKeys,
		Guidelines: req.Guidelines,
		UserID:     nullable(req.UserID),
	}

	var resp models.ScenarioResponse
	if err := s.postJSON(ctx, "/api/ai/scenario", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadFile streams a document to the inference service for chunking and
// embedding. Returns the opaque embedding file id.
func (s *AIService) UploadFile(ctx context.Context, file io.Reader, filename, projectID string, embedPercentage int, userID string) (*models.FileUploadResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to buffer upload: %w", err)
	}
	_ = writer.WriteField("project_id", projectID)
	_ = writer.WriteField("embed_percentage", strconv.Itoa(embedPercentage))
	if userID != "" {
		_ = writer.WriteField("user_id", userID)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/ai/upload", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var resp models.FileUploadResponse
	if err := s.doRequest(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search queries the project's embedded documents.
func (s *AIService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = 3
	}
	payload := upstreamSearchRequest{
		Query:     req.Query,
		ProjectID: req.ProjectID,
		TopK:      topK,
		UserID:    nullable(req.UserID),
	}

	var resp models.SearchResponse
	if err := s.postJSON(ctx, "/api/ai/search", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteProjectFiles removes all embedded documents for a project.
func (s *AIService) DeleteProjectFiles(ctx context.Context, projectID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/api/ai/project/"+projectID+"/files", nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	return s.doRequest(httpReq, nil)
}

// Health reports inference-service availability. By contract this never
// fails: an unreachable upstream yields an unhealthy payload instead.
func (s *AIService) Health(ctx context.Context) *models.AIHealthResponse {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/ai/health", nil)
	if err != nil {
		return &models.AIHealthResponse{Status: "unhealthy", Error: err.Error()}
	}

	var resp models.AIHealthResponse
	if err := s.doRequest(httpReq, &resp); err != nil {
		log.Printf("WARN: AI health check failed: %v", err)
		return &models.AIHealthResponse{Status: "unhealthy", Error: err.Error()}
	}
	return &resp
}

// OllamaModels lists locally installed ollama models. Like Health, failure
// degrades to an empty list rather than an error.
func (s *AIService) OllamaModels(ctx context.Context) *models.OllamaModelsResponse {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/ai/models/ollama", nil)
	if err != nil {
		return &models.OllamaModelsResponse{Models: []string{}, Error: err.Error()}
	}

	var resp models.OllamaModelsResponse
	if err := s.doRequest(httpReq, &resp); err != nil {
		log.Printf("WARN: Ollama model listing failed: %v", err)
		return &models.OllamaModelsResponse{Models: []string{}, Error: err.Error()}
	}
	if resp.Models == nil {
		resp.Models = []string{}
	}
	return &resp
}

func (s *AIService) postJSON(ctx context.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build ai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return s.doRequest(httpReq, out)
}

func (s *AIService) doRequest(req *http.Request, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Status: resp.StatusCode, Message: readUpstreamDetail(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ai response: %w", err)
	}
	return nil
}

// readUpstreamDetail extracts the FastAPI-style {"detail": ...} message,
// falling back to the raw body.
func readUpstreamDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "unknown error"
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	return string(raw)
}

func defaultModel(modelID string) string {
	if modelID == "" {
		return models.DefaultSelectedModel
	}
	return modelID
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
