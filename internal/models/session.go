package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// SessionDifficulty describes how well a focus session went
type SessionDifficulty string

const (
	SessionDifficultyComplete SessionDifficulty = "complete"
	SessionDifficultyHalf     SessionDifficulty = "half"
	SessionDifficultyNone     SessionDifficulty = "none"
)

// DefaultPomodoroMinutes is the session length assumed when a pomodoro
// is logged without an explicit duration.
const DefaultPomodoroMinutes = 25.0

// PomodoroSession represents one logged focus session
type PomodoroSession struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	TaskID          *uuid.UUID         `json:"task_id,omitempty"`
	EndedAt         time.Time          `json:"ended_at"`
	DurationMinutes float64            `json:"duration_minutes"`
	Difficulty      *SessionDifficulty `json:"difficulty,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Minutes returns the session duration coerced to a usable non-negative
// number. NaN, infinite and negative durations count as zero so a single
// malformed record cannot poison an aggregate.
func (s *PomodoroSession) Minutes() float64 {
	return CoerceMinutes(s.DurationMinutes)
}

// CoerceMinutes normalizes a raw minutes value for summation.
func CoerceMinutes(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
