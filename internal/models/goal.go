package models

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a long-term objective. Goals are display/context records for the
// coach and are never aggregated numerically.
type Goal struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Text        string     `json:"text"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Target is a shorter-horizon objective, typically weekly or monthly.
type Target struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Text      string     `json:"text"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Achieved  bool       `json:"achieved"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
