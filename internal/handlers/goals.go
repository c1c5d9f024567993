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

// GoalHandler handles goal and target requests
type GoalHandler struct {
	goalRepo *database.GoalRepository
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(goalRepo *database.GoalRepository) *GoalHandler {
	return &GoalHandler{goalRepo: goalRepo}
}

// RegisterGoalRoutes registers goal routes on the given router
// The router should already have the /goals prefix
func (h *GoalHandler) RegisterGoalRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGoals).Methods("GET")
	r.HandleFunc("", h.CreateGoal).Methods("POST")
	r.HandleFunc("/{id}/complete", h.CompleteGoal).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteGoal).Methods("DELETE")
}

// RegisterTargetRoutes registers target routes on the given router
// The router should already have the /targets prefix
func (h *GoalHandler) RegisterTargetRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTargets).Methods("GET")
	r.HandleFunc("", h.CreateTarget).Methods("POST")
	r.HandleFunc("/{id}/achieved", h.SetTargetAchieved).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteTarget).Methods("DELETE")
}

// CreateGoalRequest represents a create goal or target request
type CreateGoalRequest struct {
	Text     string     `json:"text" validate:"required,min=1,max=2000"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// SetTargetAchievedRequest toggles a target's achieved flag
type SetTargetAchievedRequest struct {
	Achieved bool `json:"achieved"`
}

func (h *GoalHandler) decodeGoalRequest(w http.ResponseWriter, r *http.Request) *CreateGoalRequest {
	var req CreateGoalRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return nil
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return nil
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return nil
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return nil
	}

	req.Text = validation.SanitizeText(req.Text)
	if req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return nil
	}

	return &req
}

func pathID(w http.ResponseWriter, r *http.Request, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// ListGoals lists goals for the authenticated user
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	goals, err := h.goalRepo.ListGoals(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve goals")
		return
	}

	respondJSON(w, http.StatusOK, goals)
}

// CreateGoal creates a new goal
func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	req := h.decodeGoalRequest(w, r)
	if req == nil {
		return
	}

	goal := &models.Goal{
		ID:       uuid.New(),
		UserID:   user.ID,
		Text:     req.Text,
		Deadline: req.Deadline,
	}

	if err := h.goalRepo.CreateGoal(r.Context(), goal); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create goal")
		return
	}

	respondJSON(w, http.StatusCreated, goal)
}

// CompleteGoal marks a goal as completed
func (h *GoalHandler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "goal")
	if !ok {
		return
	}

	if err := h.goalRepo.CompleteGoal(r.Context(), id, user.ID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}

	respondNoContent(w)
}

// DeleteGoal deletes a goal
func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "goal")
	if !ok {
		return
	}

	if err := h.goalRepo.DeleteGoal(r.Context(), id, user.ID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}

	respondNoContent(w)
}

// ListTargets lists targets for the authenticated user
func (h *GoalHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	targets, err := h.goalRepo.ListTargets(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve targets")
		return
	}

	respondJSON(w, http.StatusOK, targets)
}

// CreateTarget creates a new target
func (h *GoalHandler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	req := h.decodeGoalRequest(w, r)
	if req == nil {
		return
	}

	target := &models.Target{
		ID:       uuid.New(),
		UserID:   user.ID,
		Text:     req.Text,
		Deadline: req.Deadline,
	}

	if err := h.goalRepo.CreateTarget(r.Context(), target); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create target")
		return
	}

	respondJSON(w, http.StatusCreated, target)
}

// SetTargetAchieved toggles a target's achieved flag
func (h *GoalHandler) SetTargetAchieved(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "target")
	if !ok {
		return
	}

	var req SetTargetAchievedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := h.goalRepo.SetTargetAchieved(r.Context(), id, user.ID, req.Achieved); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Target not found")
		return
	}

	respondNoContent(w)
}

// DeleteTarget deletes a target
func (h *GoalHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "target")
	if !ok {
		return
	}

	if err := h.goalRepo.DeleteTarget(r.Context(), id, user.ID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Target not found")
		return
	}

	respondNoContent(w)
}
