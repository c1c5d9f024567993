package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	// StopwatchPoms is the sentinel estimate marking an open-ended task
	// that is timed by count-up rather than a fixed pomodoro countdown.
	StopwatchPoms = -1

	// DefaultPriority is assigned when a task is created without one.
	DefaultPriority = 3
	// MinPriority is the highest urgency.
	MinPriority = 1
	// MaxPriority is the lowest urgency.
	MaxPriority = 4
)

// Task represents a unit of planned work
type Task struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Text          string     `json:"text"`
	TotalPoms     int        `json:"total_poms"`
	CompletedPoms int        `json:"completed_poms"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ProjectID     *uuid.UUID `json:"project_id,omitempty"`
	Tags          []string   `json:"tags"`
	Priority      int        `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsStopwatch reports whether the task has no fixed pomodoro estimate.
func (t *Task) IsStopwatch() bool {
	return t.TotalPoms < 0
}

// IsCompleted reports whether the task has been marked done.
func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}

// NormalizeTag canonicalizes a tag for use as an aggregation key.
// Tags are compared case-insensitively and ignoring surrounding whitespace.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags canonicalizes a tag list, dropping empties and duplicates
// while preserving first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// DisplayTag returns the capitalized form of a normalized tag for display.
func DisplayTag(tag string) string {
	tag = NormalizeTag(tag)
	if tag == "" {
		return ""
	}
	runes := []rune(tag)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ClampPriority coerces an arbitrary priority value into the valid 1-4 range,
// falling back to the default for out-of-range input.
func ClampPriority(p int) int {
	if p < MinPriority || p > MaxPriority {
		return DefaultPriority
	}
	return p
}
