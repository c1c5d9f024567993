package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/models"
)

func sessionAt(t *testing.T, taskID *uuid.UUID, dayKey string, minutes float64) *models.PomodoroSession {
	t.Helper()
	ended := day(t, dayKey).Add(10 * time.Hour)
	return &models.PomodoroSession{
		ID:              uuid.New(),
		TaskID:          taskID,
		EndedAt:         ended,
		DurationMinutes: minutes,
	}
}

func taggedTask(tags ...string) *models.Task {
	return &models.Task{ID: uuid.New(), Text: "t", TotalPoms: 2, Tags: tags}
}

func TestRollUpTags_SingleTag(t *testing.T) {
	t.Parallel()

	task := taggedTask("Math")
	r := NewRange(day(t, "2024-01-01"), day(t, "2024-01-07"))
	sessions := []*models.PomodoroSession{
		sessionAt(t, &task.ID, "2024-01-02", 25),
	}

	rollup := RollUpTags([]*models.Task{task}, sessions, r)

	if len(rollup.Categories) != 1 {
		t.Fatalf("Expected 1 category, got %d", len(rollup.Categories))
	}
	got := rollup.Categories[0]
	if got.Tag != "math" {
		t.Errorf("Tag = %q, want normalized %q", got.Tag, "math")
	}
	if got.DisplayName != "Math" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Math")
	}
	if got.TotalMinutes != 25 {
		t.Errorf("TotalMinutes = %v, want 25", got.TotalMinutes)
	}
	if rollup.UntaggedMinutes != 0 {
		t.Errorf("UntaggedMinutes = %v, want 0", rollup.UntaggedMinutes)
	}
	if got.Percent != 100 {
		t.Errorf("Percent = %v, want 100", got.Percent)
	}
	if want := 25.0 / 7; math.Abs(got.AvgPerDay-want) > 1e-9 {
		t.Errorf("AvgPerDay = %v, want %v", got.AvgPerDay, want)
	}
}

func TestRollUpTags_MultiTagDoubleCounts(t *testing.T) {
	t.Parallel()

	task := taggedTask("math", "exam")
	r := NewRange(day(t, "2024-01-01"), day(t, "2024-01-07"))
	sessions := []*models.PomodoroSession{
		sessionAt(t, &task.ID, "2024-01-02", 30),
		sessionAt(t, &task.ID, "2024-01-03", 20),
	}

	rollup := RollUpTags([]*models.Task{task}, sessions, r)

	if len(rollup.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(rollup.Categories))
	}
	var sum float64
	for _, c := range rollup.Categories {
		if c.TotalMinutes != 50 {
			t.Errorf("%s TotalMinutes = %v, want full 50 per tag", c.Tag, c.TotalMinutes)
		}
		sum += c.TotalMinutes
	}
	// Multi-tag time counts fully toward every tag, so the category sum
	// exceeds the window's logged minutes.
	if sum < rollup.WindowMinutes {
		t.Errorf("sum(categories) = %v must be >= window total %v", sum, rollup.WindowMinutes)
	}
	if rollup.WindowMinutes != 50 {
		t.Errorf("WindowMinutes = %v, want 50", rollup.WindowMinutes)
	}
}

func TestRollUpTags_UntaggedBuckets(t *testing.T) {
	t.Parallel()

	bare := taggedTask() // task with no tags
	r := NewRange(day(t, "2024-01-01"), day(t, "2024-01-07"))
	sessions := []*models.PomodoroSession{
		sessionAt(t, &bare.ID, "2024-01-02", 25), // task without tags
		sessionAt(t, nil, "2024-01-03", 15),      // no task at all
	}

	rollup := RollUpTags([]*models.Task{bare}, sessions, r)

	if len(rollup.Categories) != 0 {
		t.Fatalf("Expected no tagged categories, got %d", len(rollup.Categories))
	}
	if rollup.UntaggedMinutes != 40 {
		t.Errorf("UntaggedMinutes = %v, want 40", rollup.UntaggedMinutes)
	}
}

func TestRollUpTags_WindowFilterAndSort(t *testing.T) {
	t.Parallel()

	mathTask := taggedTask("math")
	proseTask := taggedTask("writing")
	r := NewRange(day(t, "2024-01-01"), day(t, "2024-01-07"))
	sessions := []*models.PomodoroSession{
		sessionAt(t, &mathTask.ID, "2024-01-02", 20),
		sessionAt(t, &proseTask.ID, "2024-01-03", 45),
		sessionAt(t, &mathTask.ID, "2023-12-25", 500), // outside the window
	}

	rollup := RollUpTags([]*models.Task{mathTask, proseTask}, sessions, r)

	if len(rollup.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(rollup.Categories))
	}
	if rollup.Categories[0].Tag != "writing" || rollup.Categories[1].Tag != "math" {
		t.Errorf("Categories not sorted by descending minutes: %v", rollup.Categories)
	}
	if rollup.Categories[1].TotalMinutes != 20 {
		t.Errorf("Out-of-window session leaked into total: %v", rollup.Categories[1].TotalMinutes)
	}
}

func TestRollUpTags_MalformedDurationCoerced(t *testing.T) {
	t.Parallel()

	task := taggedTask("math")
	r := NewRange(day(t, "2024-01-01"), day(t, "2024-01-07"))
	sessions := []*models.PomodoroSession{
		sessionAt(t, &task.ID, "2024-01-02", math.NaN()),
		sessionAt(t, &task.ID, "2024-01-02", -30),
		sessionAt(t, &task.ID, "2024-01-03", 25),
	}

	rollup := RollUpTags([]*models.Task{task}, sessions, r)

	if rollup.Categories[0].TotalMinutes != 25 {
		t.Errorf("TotalMinutes = %v, want 25 (malformed durations coerce to zero)", rollup.Categories[0].TotalMinutes)
	}
}

func TestRollUpTags_EmptyRange(t *testing.T) {
	t.Parallel()

	task := taggedTask("math")
	r := NewRange(day(t, "2024-01-07"), day(t, "2024-01-01"))
	sessions := []*models.PomodoroSession{sessionAt(t, &task.ID, "2024-01-02", 25)}

	rollup := RollUpTags([]*models.Task{task}, sessions, r)
	if len(rollup.Categories) != 0 || rollup.WindowMinutes != 0 {
		t.Errorf("Inverted range must degrade to an empty rollup, got %+v", rollup)
	}
}
