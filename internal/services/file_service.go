package services

import (
	"context"
	"errors"
	"fmt"

	"cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
)

// FileService handles project-file metadata records. The document bytes
// themselves never reach this service; they go straight to the AI service
// for embedding, which hands back the opaque embedding file id stored here.
type FileService struct {
	store store.Store
}

func NewFileService(s store.Store) *FileService {
	return &FileService{store: s}
}

// ListByProject returns the project's file records, newest first.
func (s *FileService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.FileResponse, error) {
	files, err := s.store.ListFilesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	responses := make([]models.FileResponse, 0, len(files))
	for i := range files {
		responses = append(responses, mapFileToResponse(&files[i]))
	}
	return responses, nil
}

// Create stores one file metadata record.
func (s *FileService) Create(ctx context.Context, req models.CreateFileRequest) (*models.FileResponse, error) {
	if err := validateFileRequest(req); err != nil {
		return nil, err
	}
	file, err := s.store.CreateFile(ctx, store.CreateFileParams{
		ID:              uuid.New(),
		ProjectID:       req.ProjectID,
		Name:            req.Name,
		Type:            req.Type,
		Size:            req.Size,
		EmbeddingFileID: req.EmbeddingFileID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}
	resp := mapFileToResponse(file)
	return &resp, nil
}

// CreateBatch stores several file records at once.
func (s *FileService) CreateBatch(ctx context.Context, reqs []models.CreateFileRequest) ([]models.FileResponse, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: file batch must not be empty", ErrValidation)
	}
	params := make([]store.CreateFileParams, 0, len(reqs))
	for _, req := range reqs {
		if err := validateFileRequest(req); err != nil {
			return nil, err
		}
		params = append(params, store.CreateFileParams{
			ID:              uuid.New(),
			ProjectID:       req.ProjectID,
			Name:            req.Name,
			Type:            req.Type,
			Size:            req.Size,
			EmbeddingFileID: req.EmbeddingFileID,
		})
	}

	files, err := s.store.CreateFiles(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create file batch: %w", err)
	}
	responses := make([]models.FileResponse, 0, len(files))
	for i := range files {
		responses = append(responses, mapFileToResponse(&files[i]))
	}
	return responses, nil
}

// Delete removes one file metadata record.
func (s *FileService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteFile(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func validateFileRequest(req models.CreateFileRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if req.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: projectId is required", ErrValidation)
	}
	if req.Size < 0 {
		return fmt.Errorf("%w: size must not be negative", ErrValidation)
	}
	return nil
}

func mapFileToResponse(f *models.ProjectFile) models.FileResponse {
	return models.FileResponse{
		ID:              f.ID,
		Name:            f.Name,
		Type:            f.Type,
		Size:            f.Size,
		EmbeddingFileID: f.EmbeddingFileID,
		ProjectID:       f.ProjectID,
		CreatedAt:       f.CreatedAt,
	}
}
