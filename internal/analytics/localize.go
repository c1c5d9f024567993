package analytics

import (
	"time"

	"github.com/vaais251/studytimer-api/internal/models"
)

// Timestamps come out of the store in the database zone, but day bucketing
// reads the calendar day in each timestamp's own location. These helpers
// convert snapshots into the user's location at the boundary, so an evening
// session west of UTC lands on the user's day instead of the UTC day after.

// SessionsIn returns copies of sessions with EndedAt converted into loc.
func SessionsIn(sessions []*models.PomodoroSession, loc *time.Location) []*models.PomodoroSession {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]*models.PomodoroSession, len(sessions))
	for i, session := range sessions {
		s := *session
		s.EndedAt = s.EndedAt.In(loc)
		out[i] = &s
	}
	return out
}

// TasksIn returns copies of tasks with DueDate and CompletedAt converted
// into loc.
func TasksIn(tasks []*models.Task, loc *time.Location) []*models.Task {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]*models.Task, len(tasks))
	for i, task := range tasks {
		t := *task
		if t.DueDate != nil {
			due := t.DueDate.In(loc)
			t.DueDate = &due
		}
		if t.CompletedAt != nil {
			done := t.CompletedAt.In(loc)
			t.CompletedAt = &done
		}
		out[i] = &t
	}
	return out
}

// ProjectsIn returns copies of projects with CompletedAt converted into loc.
func ProjectsIn(projects []*models.Project, loc *time.Location) []*models.Project {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]*models.Project, len(projects))
	for i, project := range projects {
		p := *project
		if p.CompletedAt != nil {
			done := p.CompletedAt.In(loc)
			p.CompletedAt = &done
		}
		out[i] = &p
	}
	return out
}
