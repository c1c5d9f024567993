package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/database"
	"github.com/vaais251/studytimer-api/internal/middleware"
	"github.com/vaais251/studytimer-api/internal/models"
	"github.com/vaais251/studytimer-api/internal/validation"
)

// MaxSessionMinutes bounds a single logged session
const MaxSessionMinutes = 24 * 60

// SessionHandler handles pomodoro session requests
type SessionHandler struct {
	sessionRepo *database.SessionRepository
	taskRepo    *database.TaskRepository
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionRepo *database.SessionRepository, taskRepo *database.TaskRepository) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, taskRepo: taskRepo}
}

// RegisterRoutes registers session routes on the given router
// The router should already have the /sessions prefix
func (h *SessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSessions).Methods("GET")
	r.HandleFunc("", h.LogSession).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteSession).Methods("DELETE")
}

// LogSessionRequest represents a logged focus session
type LogSessionRequest struct {
	TaskID          *uuid.UUID `json:"task_id,omitempty"`
	DurationMinutes float64    `json:"duration_minutes" validate:"required"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Difficulty      *string    `json:"difficulty,omitempty"`
}

// ListSessions lists sessions for the authenticated user, optionally
// bounded by from/to day keys (inclusive)
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	fromKey := r.URL.Query().Get("from")
	toKey := r.URL.Query().Get("to")
	if fromKey == "" && toKey == "" {
		sessions, err := h.sessionRepo.ListAllByUserID(ctx, user.ID)
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve sessions")
			return
		}
		respondJSON(w, http.StatusOK, sessions)
		return
	}

	if fromKey == "" || toKey == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "from and to must be provided together")
		return
	}
	if err := validation.ValidateDayKey(fromKey); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.ValidateDayKey(toKey); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	// Day boundaries follow the user's calendar, not the storage zone
	loc := user.Location()
	from, _ := analytics.ParseDayIn(fromKey, loc)
	to, _ := analytics.ParseDayIn(toKey, loc)

	// Inverted ranges are empty, not an error
	if to.Before(from) {
		respondJSON(w, http.StatusOK, []*models.PomodoroSession{})
		return
	}

	sessions, err := h.sessionRepo.ListByUserID(ctx, user.ID, from, to.AddDate(0, 0, 1))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve sessions")
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}

// LogSession records a completed focus session
func (h *SessionHandler) LogSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req LogSessionRequest
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

	if req.DurationMinutes > MaxSessionMinutes {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("duration_minutes exceeds %d", MaxSessionMinutes))
		return
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

	ctx := r.Context()

	// Sessions may only reference the caller's own tasks
	if req.TaskID != nil {
		task, err := h.taskRepo.GetByID(ctx, *req.TaskID)
		if err != nil {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
			return
		}
		if task.UserID != user.ID {
			respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
			return
		}
	}

	endedAt := time.Now()
	if req.EndedAt != nil {
		endedAt = *req.EndedAt
	}

	session := &models.PomodoroSession{
		ID:              uuid.New(),
		UserID:          user.ID,
		TaskID:          req.TaskID,
		EndedAt:         endedAt,
		DurationMinutes: models.CoerceMinutes(req.DurationMinutes),
		Difficulty:      difficulty,
	}

	if err := h.sessionRepo.Create(ctx, session); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to log session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// DeleteSession deletes a session
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return
	}

	if err := h.sessionRepo.Delete(r.Context(), id, user.ID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return
	}

	respondNoContent(w)
}
