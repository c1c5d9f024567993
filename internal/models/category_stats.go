package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryStats holds the aggregate for a single tag
type CategoryStats struct {
	TotalMinutes float64 `json:"total_minutes"` // Focus minutes attributed to this tag
	Sessions     int     `json:"sessions"`      // Count of sessions attributed to this tag
}

// CategoryStatistics is the stored per-user rollup of focus time by tag,
// recomputed by the rollup worker whenever sessions or task tags change.
// Tainted marks the stored rollup as stale until the worker refreshes it.
type CategoryStatistics struct {
	UserID         uuid.UUID                `json:"user_id"`
	Categories     map[string]CategoryStats `json:"categories"` // Keyed by normalized tag
	Tainted        bool                     `json:"tainted"`
	LastComputedAt *time.Time               `json:"last_computed_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}
