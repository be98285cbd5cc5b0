package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers any entity lookup miss at the service layer.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when a caller touches another user's project.
	ErrForbidden = errors.New("access to this resource is forbidden")
)

// FileCleaner removes a project's embedded documents from the AI service.
// Satisfied by AIService.
type FileCleaner interface {
	DeleteProjectFiles(ctx context.Context, projectID string) error
}

// ProjectService handles project business logic, including assembly of the
// nested conversation/message/file payloads the API returns.
type ProjectService struct {
	store   store.Store
	cleaner FileCleaner
}

func NewProjectService(s store.Store, cleaner FileCleaner) *ProjectService {
	return &ProjectService{store: s, cleaner: cleaner}
}

// List returns the caller's projects (authenticated) or the unowned guest
// pool, with conversations and files embedded.
func (s *ProjectService) List(ctx context.Context, userID *uuid.UUID) ([]models.ProjectResponse, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	responses := make([]models.ProjectResponse, 0, len(projects))
	for i := range projects {
		resp, err := s.assemble(ctx, &projects[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// Get returns one project with children. A guest may read unowned projects;
// an authenticated caller may not read another user's project.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.ProjectResponse, error) {
	project, err := s.fetchOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, project)
}

// Create stores a new project owned by the caller, or unowned for guests.
func (s *ProjectService) Create(ctx context.Context, req models.CreateProjectRequest, userID *uuid.UUID) (*models.ProjectResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}

	uploadPercentage := 100
	if req.UploadPercentage != nil {
		uploadPercentage = *req.UploadPercentage
	}
	if uploadPercentage < 0 || uploadPercentage > 100 {
		return nil, fmt.Errorf("%w: uploadPercentage must be between 0 and 100", ErrValidation)
	}

	project, err := s.store.CreateProject(ctx, store.CreateProjectParams{
		ID:               uuid.New(),
		UserID:           userID,
		Name:             req.Name,
		Category:         req.Category,
		Guidelines:       req.Guidelines,
		UploadPercentage: uploadPercentage,
		IsExpanded:       true, // new projects start expanded
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.assemble(ctx, project)
}

// Update applies a partial update after the ownership check.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest, userID *uuid.UUID) (*models.ProjectResponse, error) {
	if _, err := s.fetchOwned(ctx, id, userID); err != nil {
		return nil, err
	}
	if req.UploadPercentage != nil && (*req.UploadPercentage < 0 || *req.UploadPercentage > 100) {
		return nil, fmt.Errorf("%w: uploadPercentage must be between 0 and 100", ErrValidation)
	}

	project, err := s.store.UpdateProject(ctx, store.UpdateProjectParams{
		ID:               id,
		Name:             req.Name,
		Category:         req.Category,
		Guidelines:       req.Guidelines,
		UploadPercentage: req.UploadPercentage,
		IsExpanded:       req.IsExpanded,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return s.assemble(ctx, project)
}

// Delete removes the project (children cascade) and asks the AI service to
// drop its embedded documents. The cleanup is best effort: a failure is
// logged, never surfaced.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	if _, err := s.fetchOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if s.cleaner != nil {
		if err := s.cleaner.DeleteProjectFiles(ctx, id.String()); err != nil {
			log.Printf("WARN: Failed to clean up embedded files for project %s: %v", id, err)
		}
	}
	return nil
}

// Migrate claims the listed guest projects for userID. Projects already
// owned by anyone are skipped, never reassigned.
func (s *ProjectService) Migrate(ctx context.Context, projectIDs []uuid.UUID, userID uuid.UUID) error {
	if len(projectIDs) == 0 {
		return fmt.Errorf("%w: projectIds must not be empty", ErrValidation)
	}
	claimed, err := s.store.MigrateProjects(ctx, projectIDs, userID)
	if err != nil {
		return fmt.Errorf("failed to migrate projects: %w", err)
	}
	log.Printf("Migrated %d/%d projects to user %s", claimed, len(projectIDs), userID)
	return nil
}

func (s *ProjectService) fetchOwned(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if userID != nil && project.UserID != nil && *project.UserID != *userID {
		return nil, ErrForbidden
	}
	return project, nil
}

func (s *ProjectService) assemble(ctx context.Context, project *models.Project) (*models.ProjectResponse, error) {
	conversations, err := s.store.ListConversations(ctx, &project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for project %s: %w", project.ID, err)
	}

	convResponses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		messages, err := s.store.ListMessagesByConversation(ctx, conversations[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages for conversation %s: %w", conversations[i].ID, err)
		}
		convResponses = append(convResponses, mapConversationToResponse(&conversations[i], messages))
	}

	files, err := s.store.ListFilesByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files for project %s: %w", project.ID, err)
	}
	fileResponses := make([]models.FileResponse, 0, len(files))
	for i := range files {
		fileResponses = append(fileResponses, mapFileToResponse(&files[i]))
	}

	return &models.ProjectResponse{
		ID:               project.ID,
		Name:             project.Name,
		Category:         project.Category,
		Guidelines:       project.Guidelines,
		UploadPercentage: project.UploadPercentage,
		IsExpanded:       project.IsExpanded,
		UserID:           project.UserID,
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
		Conversations:    convResponses,
		Files:            fileResponses,
	}, nil
}
