package models

// DTOs for the AI proxy routes. The client-facing side uses the same
// camelCase convention as the rest of the API; the upstream payloads the
// proxy emits toward the inference service use its snake_case contract and
// live in the AI service implementation.

// HistoryEntry is one prior turn handed to the model as context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the client-facing AI chat payload. UserID is empty for
// guest callers; the proxy forwards null upstream in that case.
type ChatRequest struct {
	Message             string         `json:"message"`
	ProjectID           string         `json:"projectId"`
	ConversationID      string         `json:"conversationId"`
	Role                string         `json:"role"`
	ModelID             string         `json:"modelId,omitempty"`
	APIKeys             *APIKeys       `json:"apiKeys,omitempty"`
	Guidelines          string         `json:"guidelines,omitempty"`
	ConversationHistory []HistoryEntry `json:"conversationHistory,omitempty"`
	UserID              string         `json:"userId,omitempty"`
}

// Evaluation is the optional grading block the model attaches to a reply.
type Evaluation struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Feedback string  `json:"feedback"`
}

// ChatResponse is the AI service's reply, passed through unchanged.
type ChatResponse struct {
	Response   string      `json:"response"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// ScenarioRequest asks the AI service to invent a customer scenario for a
// project.
type ScenarioRequest struct {
	ProjectID  string   `json:"projectId"`
	ModelID    string   `json:"modelId,omitempty"`
	APIKeys    *APIKeys `json:"apiKeys,omitempty"`
	Guidelines string   `json:"guidelines,omitempty"`
	UserID     string   `json:"userId,omitempty"`
}

// ScenarioResponse is the generated scenario, passed through unchanged.
type ScenarioResponse struct {
	Situation    string `json:"situation"`
	CustomerType string `json:"customer_type"`
	FirstMessage string `json:"first_message"`
}

// FileUploadResponse is the AI service's answer to a document ingestion.
type FileUploadResponse struct {
	Success     bool   `json:"success"`
	FileID      string `json:"file_id"`
	ChunksCount int    `json:"chunks_count"`
	Message     string `json:"message"`
}

// SearchRequest queries the project's embedded documents.
type SearchRequest struct {
	Query     string `json:"query"`
	ProjectID string `json:"projectId"`
	TopK      int    `json:"topK,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// SearchResponse is the retrieval result, passed through unchanged.
type SearchResponse struct {
	Results []string `json:"results"`
}

// AIHealthResponse reports upstream provider availability. When the AI
// service itself is unreachable the proxy substitutes an unhealthy status
// instead of failing.
type AIHealthResponse struct {
	Status          string `json:"status"`
	OllamaAvailable bool   `json:"ollama_available"`
	OpenAIAvailable bool   `json:"openai_available"`
	GeminiAvailable bool   `json:"gemini_available"`
	ClaudeAvailable bool   `json:"claude_available"`
	Error           string `json:"error,omitempty"`
}

// OllamaModelsResponse lists locally installed ollama models. Failure
// yields an empty list plus the error text rather than an API error.
type OllamaModelsResponse struct {
	Models []string `json:"models"`
	Error  string   `json:"error,omitempty"`
}
