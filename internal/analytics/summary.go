package analytics

import (
	"time"

	"github.com/vaais251/studytimer-api/internal/models"
)

// Summary is the top-level dashboard aggregate: streaks plus window totals.
type Summary struct {
	Streaks        StreakSummary `json:"streaks"`
	TodayMinutes   float64       `json:"today_minutes"`
	TodaySessions  int           `json:"today_sessions"`
	WindowMinutes  float64       `json:"window_minutes"`
	WindowSessions int           `json:"window_sessions"`
	CompletionRate float64       `json:"completion_rate"`
}

// DailyMinutes buckets session focus minutes by day key across all history.
func DailyMinutes(sessions []*models.PomodoroSession) map[string]float64 {
	byDay := make(map[string]float64, len(sessions))
	for _, session := range sessions {
		byDay[DayKey(session.EndedAt)] += session.Minutes()
	}
	return byDay
}

// DailyMinutesFromLogs rebuilds the day-minutes map from stored daily logs.
func DailyMinutesFromLogs(logs []*models.DailyLog) map[string]float64 {
	byDay := make(map[string]float64, len(logs))
	for _, log := range logs {
		byDay[log.Date] += models.CoerceMinutes(log.TotalFocusMinutes)
	}
	return byDay
}

// ComputeSummary derives the dashboard summary for a window. The completion
// rate covers tasks due inside the window; it is a derived value, distinct
// from the stored per-day session counts.
func ComputeSummary(tasks []*models.Task, sessions []*models.PomodoroSession, r Range, today time.Time) Summary {
	daily := DailyMinutes(sessions)
	summary := Summary{Streaks: CalcStreaks(daily, today)}

	todayKey := DayKey(Midnight(today))
	for _, session := range sessions {
		key := DayKey(session.EndedAt)
		if key == todayKey {
			summary.TodayMinutes += session.Minutes()
			summary.TodaySessions++
		}
		if r.Contains(session.EndedAt) {
			summary.WindowMinutes += session.Minutes()
			summary.WindowSessions++
		}
	}

	var due, done int
	for _, task := range tasks {
		if task.DueDate == nil || !r.Contains(*task.DueDate) {
			continue
		}
		due++
		if task.IsCompleted() {
			done++
		}
	}
	if due > 0 {
		summary.CompletionRate = float64(done) / float64(due) * 100
	}

	return summary
}

// ProjectMarkers returns the set of day keys on which a project was
// completed, for heatmap secondary markers.
func ProjectMarkers(projects []*models.Project) map[string]bool {
	markers := make(map[string]bool, len(projects))
	for _, project := range projects {
		if project.CompletedAt != nil {
			markers[DayKey(*project.CompletedAt)] = true
		}
	}
	return markers
}
