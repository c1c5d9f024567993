package models

import (
	"time"

	"github.com/google/uuid"
)

// AIContext represents a user's coaching context and preferences. The
// ContextSummary is maintained by the summary worker from recent chat
// sessions and analytics, and is injected into every coach prompt.
type AIContext struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	ContextSummary string         `json:"context_summary,omitempty"`
	Preferences    map[string]any `json:"preferences,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// UserActivity represents a user's activity tracking information
type UserActivity struct {
	UserID             uuid.UUID `json:"user_id"`
	LastAPIInteraction time.Time `json:"last_api_interaction"`
	RollupPaused       bool      `json:"rollup_paused"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
