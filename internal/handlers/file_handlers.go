package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"cs-simulator/internal/models"
	"cs-simulator/pkg/httputil"

	"github.com/google/uuid"
)

// FileService defines the interface expected from the file metadata service.
type FileService interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.FileResponse, error)
	Create(ctx context.Context, req models.CreateFileRequest) (*models.FileResponse, error)
	CreateBatch(ctx context.Context, reqs []models.CreateFileRequest) ([]models.FileResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FileHandler struct {
	fileService FileService
}

func NewFileHandler(fileSvc FileService) *FileHandler {
	return &FileHandler{
		fileService: fileSvc,
	}
}

// HandleListFiles handles GET /api/files/project/{projectID}
func (h *FileHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseIDParam(w, r, "projectID")
	if !ok {
		return
	}

	files, err := h.fileService.ListByProject(r.Context(), projectID)
	if err != nil {
		log.Printf("ERROR [FileHandler] HandleListFiles for project %s: %v", projectID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	if files == nil {
		files = []models.FileResponse{}
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// HandleCreateFile handles POST /api/files
func (h *FileHandler) HandleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.fileService.Create(r.Context(), req)
	if err != nil {
		log.Printf("ERROR [FileHandler] HandleCreateFile for project %s: %v", req.ProjectID, err)
		respondEntityError(w, err, "Failed to create file record")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleCreateFilesBatch handles POST /api/files/batch
func (h *FileHandler) HandleCreateFilesBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []models.CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.fileService.CreateBatch(r.Context(), reqs)
	if err != nil {
		log.Printf("ERROR [FileHandler] HandleCreateFilesBatch (%d files): %v", len(reqs), err)
		respondEntityError(w, err, "Failed to create file records")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleDeleteFile handles DELETE /api/files/{fileID}
func (h *FileHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := parseIDParam(w, r, "fileID")
	if !ok {
		return
	}

	if err := h.fileService.Delete(r.Context(), fileID); err != nil {
		log.Printf("ERROR [FileHandler] HandleDeleteFile for ID %s: %v", fileID, err)
		respondEntityError(w, err, "Failed to delete file record")
		return
	}

	httputil.RespondNoContent(w)
}
