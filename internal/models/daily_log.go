package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyLog is the per-calendar-day rollup of a user's focus activity.
// Date is a YYYY-MM-DD key interpreted at local midnight.
//
// CompletedSessions always means the count of completed focus sessions for
// the day. Completion percentage is a derived analytics value and is never
// stored here.
type DailyLog struct {
	UserID            uuid.UUID `json:"user_id"`
	Date              string    `json:"date"`
	TotalFocusMinutes float64   `json:"total_focus_minutes"`
	CompletedSessions int       `json:"completed_sessions"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
