package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/vaais251/studytimer-api/internal/database"
	"github.com/vaais251/studytimer-api/internal/middleware"
	"github.com/vaais251/studytimer-api/internal/models"
	"github.com/vaais251/studytimer-api/internal/validation"
)

// MaxProjectNameLength is the maximum length for a project name
const MaxProjectNameLength = 500

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectRepo *database.ProjectRepository
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectRepo *database.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo}
}

// RegisterRoutes registers project routes on the given router
// The router should already have the /projects prefix
func (h *ProjectHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListProjects).Methods("GET")
	r.HandleFunc("", h.CreateProject).Methods("POST")
	r.HandleFunc("/{id}", h.GetProject).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateProject).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteProject).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteProject).Methods("POST")
}

// CreateProjectRequest represents a create project request
type CreateProjectRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=500"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// UpdateProjectRequest represents an update project request
type UpdateProjectRequest struct {
	Name     *string    `json:"name,omitempty"`
	Status   *string    `json:"status,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ListProjects lists projects for the authenticated user
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	projects, err := h.projectRepo.ListByUserID(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve projects")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateProjectRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	project := &models.Project{
		ID:       uuid.New(),
		UserID:   user.ID,
		Name:     req.Name,
		Status:   models.ProjectStatusActive,
		Deadline: req.Deadline,
	}

	if err := h.projectRepo.Create(r.Context(), project); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create project")
		return
	}

	respondJSON(w, http.StatusCreated, project)
}

// loadOwnedProject resolves the {id} path var and enforces ownership
func (h *ProjectHandler) loadOwnedProject(w http.ResponseWriter, r *http.Request, user *models.User) *models.Project {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project ID")
		return nil
	}

	project, err := h.projectRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return nil
	}

	if project.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Project does not belong to user")
		return nil
	}

	return project
}

// GetProject retrieves a project by ID
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	project := h.loadOwnedProject(w, r, user)
	if project == nil {
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// UpdateProject updates an existing project
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	project := h.loadOwnedProject(w, r, user)
	if project == nil {
		return
	}

	var req UpdateProjectRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Name != nil {
		sanitized := validation.SanitizeText(*req.Name)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxProjectNameLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Name exceeds maximum length of %d characters", MaxProjectNameLength))
			return
		}
		project.Name = sanitized
	}
	if req.Status != nil {
		if err := validation.ValidateProjectStatus(*req.Status); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		project.Status = models.ProjectStatus(*req.Status)
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
	}

	if err := h.projectRepo.Update(r.Context(), project); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update project")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	project := h.loadOwnedProject(w, r, user)
	if project == nil {
		return
	}

	if err := h.projectRepo.Delete(r.Context(), project.ID, user.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete project")
		return
	}

	respondNoContent(w)
}

// CompleteProject marks a project as completed. The completion day becomes a
// marker on the calendar heatmap.
func (h *ProjectHandler) CompleteProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	project := h.loadOwnedProject(w, r, user)
	if project == nil {
		return
	}

	completed, err := h.projectRepo.Complete(r.Context(), project.ID, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete project")
		return
	}

	respondJSON(w, http.StatusOK, completed)
}
