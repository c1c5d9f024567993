package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/models"
)

func TestSessionsIn(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	// 2am Jan 15 UTC is 9pm Jan 14 in New York.
	stored := time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)
	sessions := []*models.PomodoroSession{
		{ID: uuid.New(), EndedAt: stored, DurationMinutes: 25},
	}

	local := SessionsIn(sessions, newYork)
	if got := DayKey(local[0].EndedAt); got != "2024-01-14" {
		t.Errorf("Localized day = %s, want 2024-01-14", got)
	}
	if !local[0].EndedAt.Equal(stored) {
		t.Error("Localization must not shift the instant")
	}
	if got := DayKey(sessions[0].EndedAt); got != "2024-01-15" {
		t.Errorf("Input session mutated, day = %s", got)
	}
}

func TestTasksIn(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	due := time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)
	done := time.Date(2024, 1, 16, 1, 30, 0, 0, time.UTC)
	tasks := []*models.Task{
		{ID: uuid.New(), Text: "Review notes", DueDate: &due, CompletedAt: &done},
		{ID: uuid.New(), Text: "No dates"},
	}

	local := TasksIn(tasks, newYork)
	if got := DayKey(*local[0].DueDate); got != "2024-01-14" {
		t.Errorf("Localized due day = %s, want 2024-01-14", got)
	}
	if got := DayKey(*local[0].CompletedAt); got != "2024-01-15" {
		t.Errorf("Localized completion day = %s, want 2024-01-15", got)
	}
	if local[0].DueDate == tasks[0].DueDate {
		t.Error("Localized task must not alias the input's DueDate")
	}
	if local[1].DueDate != nil || local[1].CompletedAt != nil {
		t.Error("Nil dates should stay nil")
	}
	if got := DayKey(*tasks[0].DueDate); got != "2024-01-15" {
		t.Errorf("Input task mutated, due day = %s", got)
	}
}

func TestProjectsIn(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	done := time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)
	projects := []*models.Project{
		{ID: uuid.New(), Name: "Thesis", CompletedAt: &done},
		{ID: uuid.New(), Name: "Open"},
	}

	local := ProjectsIn(projects, newYork)
	if got := DayKey(*local[0].CompletedAt); got != "2024-01-14" {
		t.Errorf("Localized completion day = %s, want 2024-01-14", got)
	}
	if local[1].CompletedAt != nil {
		t.Error("Nil completion should stay nil")
	}

	if got := ProjectsIn(projects, nil); DayKey(*got[0].CompletedAt) != "2024-01-15" {
		t.Error("Nil location should fall back to UTC")
	}
}
