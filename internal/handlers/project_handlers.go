package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cs-simulator/internal/auth"
	"cs-simulator/internal/models"
	"cs-simulator/internal/services"
	"cs-simulator/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ProjectService defines the interface expected from the project service.
type ProjectService interface {
	List(ctx context.Context, userID *uuid.UUID) ([]models.ProjectResponse, error)
	Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.ProjectResponse, error)
	Create(ctx context.Context, req models.CreateProjectRequest, userID *uuid.UUID) (*models.ProjectResponse, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest, userID *uuid.UUID) (*models.ProjectResponse, error)
	Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
	Migrate(ctx context.Context, projectIDs []uuid.UUID, userID uuid.UUID) error
}

type ProjectHandler struct {
	projectService ProjectService
}

func NewProjectHandler(projectSvc ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectSvc,
	}
}

// HandleListProjects handles GET /api/projects. Guests see unowned projects,
// authenticated users see their own.
func (h *ProjectHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	userID := optionalUserID(r.Context())

	projects, err := h.projectService.List(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [ProjectHandler] HandleListProjects: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}

	if projects == nil {
		projects = []models.ProjectResponse{}
	}
	httputil.RespondJSON(w, http.StatusOK, projects)
}

// HandleGetProject handles GET /api/projects/{projectID}
func (h *ProjectHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}
	userID := optionalUserID(r.Context())

	resp, err := h.projectService.Get(r.Context(), projectID, userID)
	if err != nil {
		log.Printf("ERROR [ProjectHandler] HandleGetProject for ID %s: %v", projectID, err)
		respondProjectError(w, err, "Failed to get project")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleCreateProject handles POST /api/projects
func (h *ProjectHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	userID := optionalUserID(r.Context())

	resp, err := h.projectService.Create(r.Context(), req, userID)
	if err != nil {
		log.Printf("ERROR [ProjectHandler] HandleCreateProject: %v", err)
		if errors.Is(err, services.ErrValidation) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		} else {
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to create project")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleUpdateProject handles PUT /api/projects/{projectID}
func (h *ProjectHandler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}

	var req models.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	userID := optionalUserID(r.Context())

	resp, err := h.projectService.Update(r.Context(), projectID, req, userID)
	if err != nil {
		log.Printf("ERROR [ProjectHandler] HandleUpdateProject for ID %s: %v", projectID, err)
		respondProjectError(w, err, "Failed to update project")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteProject handles DELETE /api/projects/{projectID}
func (h *ProjectHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}
	userID := optionalUserID(r.Context())

	if err := h.projectService.Delete(r.Context(), projectID, userID); err != nil {
		log.Printf("ERROR [ProjectHandler] HandleDeleteProject for ID %s: %v", projectID, err)
		respondProjectError(w, err, "Failed to delete project")
		return
	}

	httputil.RespondNoContent(w)
}

// HandleMigrateProjects handles POST /api/projects/migrate. Requires auth:
// the caller becomes the owner of the listed guest projects.
func (h *ProjectHandler) HandleMigrateProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "User ID not found in token context")
		return
	}

	var req models.MigrateProjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.projectService.Migrate(r.Context(), req.ProjectIDs, userID); err != nil {
		log.Printf("ERROR [ProjectHandler] HandleMigrateProjects for UserID %s: %v", userID, err)
		if errors.Is(err, services.ErrValidation) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		} else {
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to migrate projects")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "Projects migrated successfully"})
}

func respondProjectError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
