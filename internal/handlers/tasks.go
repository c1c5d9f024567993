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

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo    *database.TaskRepository
	sessionRepo *database.SessionRepository
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo *database.TaskRepository, sessionRepo *database.SessionRepository) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo, sessionRepo: sessionRepo}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id}/pomodoro", h.LogPomodoro).Methods("POST")
}

const (
	// MaxTaskTextLength is the maximum length for task text
	MaxTaskTextLength = 10000
	// MaxTagsPerTask bounds the tag list on a single task
	MaxTagsPerTask = 20
	// MaxPomEstimate bounds the pomodoro estimate on a single task
	MaxPomEstimate = 100
)

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Text      string     `json:"text" validate:"required,min=1,max=10000"`
	TotalPoms *int       `json:"total_poms,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Tags      []string   `json:"tags,omitempty" validate:"max=20"`
	Priority  *int       `json:"priority,omitempty"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Text      *string    `json:"text,omitempty"`
	TotalPoms *int       `json:"total_poms,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Tags      *[]string  `json:"tags,omitempty"`
	Priority  *int       `json:"priority,omitempty"`
}

// validatePomEstimate accepts a fixed estimate or the stopwatch sentinel
func validatePomEstimate(totalPoms int) error {
	if totalPoms == models.StopwatchPoms {
		return nil
	}
	if totalPoms < 1 || totalPoms > MaxPomEstimate {
		return fmt.Errorf("total_poms must be between 1 and %d, or %d for stopwatch tasks", MaxPomEstimate, models.StopwatchPoms)
	}
	return nil
}

// ListTasks lists tasks for the authenticated user
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	var projectID *uuid.UUID
	if p := r.URL.Query().Get("project_id"); p != "" {
		parsed, err := uuid.Parse(p)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid project_id")
			return
		}
		projectID = &parsed
	}

	var completed *bool
	switch r.URL.Query().Get("completed") {
	case "":
	case "true":
		v := true
		completed = &v
	case "false":
		v := false
		completed = &v
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "completed must be true or false")
		return
	}

	tasks, err := h.taskRepo.ListByUserID(ctx, user.ID, projectID, completed)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		// Check if error is due to request size limit
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	// Validate request
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

	// Sanitize text input
	req.Text = validation.SanitizeText(req.Text)
	if req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}
	if len(req.Text) > MaxTaskTextLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Text exceeds maximum length of %d characters", MaxTaskTextLength))
		return
	}

	totalPoms := 1
	if req.TotalPoms != nil {
		if err := validatePomEstimate(*req.TotalPoms); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		totalPoms = *req.TotalPoms
	}

	priority := models.DefaultPriority
	if req.Priority != nil {
		if err := validation.ValidatePriority(*req.Priority); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		priority = *req.Priority
	}

	ctx := r.Context()
	task := &models.Task{
		ID:        uuid.New(),
		UserID:    user.ID,
		Text:      req.Text,
		TotalPoms: totalPoms,
		DueDate:   req.DueDate,
		ProjectID: req.ProjectID,
		Tags:      models.NormalizeTags(req.Tags),
		Priority:  priority,
	}

	if err := h.taskRepo.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// loadOwnedTask resolves the {id} path var and enforces ownership
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, r *http.Request, user *models.User) *models.Task {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return nil
	}

	return task
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task := h.loadOwnedTask(w, r, user)
	if task == nil {
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task := h.loadOwnedTask(w, r, user)
	if task == nil {
		return
	}

	var req UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Text != nil {
		sanitized := validation.SanitizeText(*req.Text)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTaskTextLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Text exceeds maximum length of %d characters", MaxTaskTextLength))
			return
		}
		task.Text = sanitized
	}
	if req.TotalPoms != nil {
		if err := validatePomEstimate(*req.TotalPoms); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.TotalPoms = *req.TotalPoms
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.ProjectID != nil {
		task.ProjectID = req.ProjectID
	}
	if req.Tags != nil {
		if len(*req.Tags) > MaxTagsPerTask {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("At most %d tags per task", MaxTagsPerTask))
			return
		}
		task.Tags = models.NormalizeTags(*req.Tags)
	}
	if req.Priority != nil {
		if err := validation.ValidatePriority(*req.Priority); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Priority = *req.Priority
	}

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task := h.loadOwnedTask(w, r, user)
	if task == nil {
		return
	}

	if err := h.taskRepo.Delete(r.Context(), task.ID, user.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	respondNoContent(w)
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task := h.loadOwnedTask(w, r, user)
	if task == nil {
		return
	}

	completed, err := h.taskRepo.Complete(r.Context(), task.ID, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete task")
		return
	}

	respondJSON(w, http.StatusOK, completed)
}

// LogPomodoroRequest customizes the session recorded for a finished
// pomodoro. An empty body logs a standard pomodoro ending now.
type LogPomodoroRequest struct {
	DurationMinutes *float64   `json:"duration_minutes,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Difficulty      *string    `json:"difficulty,omitempty"`
}

// LogPomodoro increments the task's completed pomodoro count and records
// the finished focus session against it
func (h *TaskHandler) LogPomodoro(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task := h.loadOwnedTask(w, r, user)
	if task == nil {
		return
	}

	var req LogPomodoroRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
	}

	minutes := models.DefaultPomodoroMinutes
	if req.DurationMinutes != nil {
		minutes = models.CoerceMinutes(*req.DurationMinutes)
		if minutes > MaxSessionMinutes {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("duration_minutes exceeds %d", MaxSessionMinutes))
			return
		}
	}

	var difficulty *models.SessionDifficulty
	if req.Difficulty != nil {
		if err := validation.ValidateSessionDifficulty(*req.Difficulty); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		d := models.SessionDifficulty(*req.Difficulty)
		difficulty = &d
	}

	endedAt := time.Now()
	if req.EndedAt != nil {
		endedAt = *req.EndedAt
	}

	ctx := r.Context()
	if err := h.taskRepo.IncrementPoms(ctx, task.ID, user.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to log pomodoro")
		return
	}

	session := &models.PomodoroSession{
		ID:              uuid.New(),
		UserID:          user.ID,
		TaskID:          &task.ID,
		EndedAt:         endedAt,
		DurationMinutes: minutes,
		Difficulty:      difficulty,
	}
	if err := h.sessionRepo.Create(ctx, session); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record session")
		return
	}

	updated, err := h.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to reload task")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}
