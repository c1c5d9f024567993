package ai

import (
	"strings"
	"testing"

	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/models"
)

func TestBuildCoachPrompt_BarePersona(t *testing.T) {
	t.Parallel()

	prompt := BuildCoachPrompt(nil, nil)

	if !strings.Contains(prompt, "productivity coach") {
		t.Errorf("expected persona in prompt, got: %s", prompt)
	}
	if strings.Contains(prompt, "Recent activity") {
		t.Error("prompt should not mention activity when no insights are given")
	}
}

func TestBuildCoachPrompt_IncludesUserContext(t *testing.T) {
	t.Parallel()

	userContext := &models.AIContext{
		ContextSummary: "Studies for the bar exam in the evenings",
	}

	prompt := BuildCoachPrompt(userContext, nil)

	if !strings.Contains(prompt, "Studies for the bar exam in the evenings") {
		t.Errorf("expected context summary in prompt, got: %s", prompt)
	}
}

func TestBuildCoachPrompt_IncludesInsights(t *testing.T) {
	t.Parallel()

	insights := &CoachInsights{
		Summary: analytics.Summary{
			Streaks:        analytics.StreakSummary{Current: 4, Longest: 12},
			TodayMinutes:   75,
			TodaySessions:  3,
			WindowMinutes:  900,
			CompletionRate: 80,
		},
		TopCategories: []analytics.CategoryTotal{
			{Tag: "math", DisplayName: "Math", TotalMinutes: 420},
			{Tag: "writing", DisplayName: "Writing", TotalMinutes: 300},
		},
		Goals: []*models.Goal{
			{Text: "Finish thesis draft"},
		},
	}

	prompt := BuildCoachPrompt(nil, insights)

	for _, want := range []string{
		"Current streak: 4 days (longest 12)",
		"Today: 75 focus minutes over 3 sessions",
		"Math (420 min)",
		"Goal: Finish thesis draft",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected %q in prompt, got: %s", want, prompt)
		}
	}
}

func TestBuildCoachPrompt_CapsCategories(t *testing.T) {
	t.Parallel()

	insights := &CoachInsights{
		TopCategories: []analytics.CategoryTotal{
			{DisplayName: "A", TotalMinutes: 60},
			{DisplayName: "B", TotalMinutes: 50},
			{DisplayName: "C", TotalMinutes: 40},
			{DisplayName: "D", TotalMinutes: 30},
			{DisplayName: "E", TotalMinutes: 20},
			{DisplayName: "F", TotalMinutes: 10},
		},
	}

	prompt := BuildCoachPrompt(nil, insights)

	if strings.Contains(prompt, "F (10 min)") {
		t.Error("prompt should only include the top five categories")
	}
	if !strings.Contains(prompt, "E (20 min)") {
		t.Error("prompt should include the fifth category")
	}
}

func TestBuildCoachPrompt_SkipsEmptyGoals(t *testing.T) {
	t.Parallel()

	insights := &CoachInsights{
		Goals: []*models.Goal{nil, {Text: ""}, {Text: "Ship the project"}},
	}

	prompt := BuildCoachPrompt(nil, insights)

	if strings.Count(prompt, "Goal:") != 1 {
		t.Errorf("expected exactly one goal line, got: %s", prompt)
	}
}
