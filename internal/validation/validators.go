package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/vaais251/studytimer-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("session_difficulty", validateSessionDifficulty); err != nil {
		panic(fmt.Sprintf("failed to register session_difficulty validator: %v", err))
	}
	if err := Validate.RegisterValidation("project_status", validateProjectStatus); err != nil {
		panic(fmt.Sprintf("failed to register project_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("day_key", validateDayKey); err != nil {
		panic(fmt.Sprintf("failed to register day_key validator: %v", err))
	}
}

// validateSessionDifficulty validates that a string is a valid SessionDifficulty enum value
func validateSessionDifficulty(fl validator.FieldLevel) bool {
	return ValidateSessionDifficulty(fl.Field().String()) == nil
}

// validateProjectStatus validates that a string is a valid ProjectStatus enum value
func validateProjectStatus(fl validator.FieldLevel) bool {
	return ValidateProjectStatus(fl.Field().String()) == nil
}

// validateDayKey validates a YYYY-MM-DD date key
func validateDayKey(fl validator.FieldLevel) bool {
	return ValidateDayKey(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateSessionDifficulty validates a SessionDifficulty string value
func ValidateSessionDifficulty(value string) error {
	switch models.SessionDifficulty(value) {
	case models.SessionDifficultyComplete, models.SessionDifficultyHalf, models.SessionDifficultyNone:
		return nil
	default:
		return fmt.Errorf("invalid difficulty: %s (must be 'complete', 'half', or 'none')", value)
	}
}

// ValidateProjectStatus validates a ProjectStatus string value
func ValidateProjectStatus(value string) error {
	switch models.ProjectStatus(value) {
	case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusDue:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'active', 'completed', or 'due')", value)
	}
}

// ValidatePriority validates a task priority value
func ValidatePriority(value int) error {
	if value < models.MinPriority || value > models.MaxPriority {
		return fmt.Errorf("invalid priority: %d (must be between %d and %d)", value, models.MinPriority, models.MaxPriority)
	}
	return nil
}

// ValidateDayKey validates a YYYY-MM-DD date key
func ValidateDayKey(value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}
