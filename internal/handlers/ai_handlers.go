package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"cs-simulator/internal/models"
	"cs-simulator/internal/services"
	"cs-simulator/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// maxUploadSize bounds multipart document uploads at 20 MB.
const maxUploadSize = 20 << 20

// AIService defines the interface expected from the AI proxy service.
type AIService interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	GenerateScenario(ctx context.Context, req models.ScenarioRequest) (*models.ScenarioResponse, error)
	UploadFile(ctx context.Context, file io.Reader, filename, projectID string, embedPercentage int, userID string) (*models.FileUploadResponse, error)
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
	DeleteProjectFiles(ctx context.Context, projectID string) error
	Health(ctx context.Context) *models.AIHealthResponse
	OllamaModels(ctx context.Context) *models.OllamaModelsResponse
}

type AIHandler struct {
	aiService AIService
}

func NewAIHandler(aiSvc AIService) *AIHandler {
	return &AIHandler{
		aiService: aiSvc,
	}
}

// HandleChat handles POST /api/ai/chat. When the caller is authenticated the
// token identity overrides any userId in the body.
func (h *AIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Message == "" || req.ProjectID == "" || req.ConversationID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "message, projectId and conversationId are required")
		return
	}
	if userID := optionalUserID(r.Context()); userID != nil {
		req.UserID = userID.String()
	}

	resp, err := h.aiService.Chat(r.Context(), req)
	if err != nil {
		log.Printf("ERROR [AIHandler] HandleChat for conversation %s: %v", req.ConversationID, err)
		respondUpstreamError(w, err, "AI chat request failed")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleScenario handles POST /api/ai/scenario
func (h *AIHandler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	var req models.ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.ProjectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "projectId is required")
		return
	}
	if userID := optionalUserID(r.Context()); userID != nil {
		req.UserID = userID.String()
	}

	resp, err := h.aiService.GenerateScenario(r.Context(), req)
	if err != nil {
		log.Printf("ERROR [AIHandler] HandleScenario for project %s: %v", req.ProjectID, err)
		respondUpstreamError(w, err, "Scenario generation failed")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUpload handles POST /api/ai/upload (multipart: file, projectId,
// embedPercentage). The document streams through to the inference service
// for chunking and embedding; nothing is stored locally.
func (h *AIHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "A file part is required")
		return
	}
	defer file.Close()

	projectID := r.FormValue("projectId")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "projectId is required")
		return
	}

	embedPercentage := 100
	if raw := r.FormValue("embedPercentage"); raw != "" {
		embedPercentage, err = strconv.Atoi(raw)
		if err != nil || embedPercentage < 0 || embedPercentage > 100 {
			httputil.RespondError(w, http.StatusBadRequest, "embedPercentage must be an integer between 0 and 100")
			return
		}
	}

	var userID string
	if id := optionalUserID(r.Context()); id != nil {
		userID = id.String()
	}

	resp, err := h.aiService.UploadFile(r.Context(), file, header.Filename, projectID, embedPercentage, userID)
	if err != nil {
		log.Printf("ERROR [AIHandler] HandleUpload %q for project %s: %v", header.Filename, projectID, err)
		respondUpstreamError(w, err, "File upload failed")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleSearch handles POST /api/ai/search
func (h *AIHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Query == "" || req.ProjectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "query and projectId are required")
		return
	}
	if userID := optionalUserID(r.Context()); userID != nil {
		req.UserID = userID.String()
	}

	resp, err := h.aiService.Search(r.Context(), req)
	if err != nil {
		log.Printf("ERROR [AIHandler] HandleSearch for project %s: %v", req.ProjectID, err)
		respondUpstreamError(w, err, "Document search failed")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteProjectFiles handles DELETE /api/ai/project/{projectID}/files
func (h *AIHandler) HandleDeleteProjectFiles(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "projectID is required")
		return
	}

	if err := h.aiService.DeleteProjectFiles(r.Context(), projectID); err != nil {
		log.Printf("ERROR [AIHandler] HandleDeleteProjectFiles for project %s: %v", projectID, err)
		respondUpstreamError(w, err, "Failed to delete project embeddings")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "Project files deleted"})
}

// HandleHealth handles GET /api/ai/health. Always 200: upstream failure is
// reported in the body, never as a transport error.
func (h *AIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.aiService.Health(r.Context()))
}

// HandleOllamaModels handles GET /api/ai/models/ollama. Same non-blocking
// contract as HandleHealth.
func (h *AIHandler) HandleOllamaModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.aiService.OllamaModels(r.Context()))
}

// respondUpstreamError forwards the inference service's status code when it
// produced one, and maps transport failures to 502.
func respondUpstreamError(w http.ResponseWriter, err error, fallback string) {
	var upstream *services.UpstreamError
	if errors.As(err, &upstream) {
		httputil.RespondError(w, upstream.Status, upstream.Message)
		return
	}
	httputil.RespondError(w, http.StatusBadGateway, fallback)
}
