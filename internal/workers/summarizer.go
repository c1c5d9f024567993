package workers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/models"
	"github.com/vaais251/studytimer-api/internal/queue"
	"github.com/vaais251/studytimer-api/internal/services/ai"
)

// ProcessContextSummaryJob refreshes a user's coaching context from their
// recent activity. The activity digest is condensed by the AI provider so
// the stored summary stays short across refreshes.
func (p *Processor) ProcessContextSummaryJob(ctx context.Context, job *queue.Job) error {
	// Check if user has rollups paused
	activity, err := p.activityRepo.GetByUserID(ctx, job.UserID)
	if err == nil && activity != nil && activity.RollupPaused {
		log.Printf("Skipping context summary for user %s (rollup paused)", job.UserID)
		return nil
	}

	sessions, err := p.sessionRepo.ListAllByUserID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	tasks, err := p.taskRepo.ListByUserID(ctx, job.UserID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(sessions) == 0 && len(tasks) == 0 {
		log.Printf("User %s has no activity yet, skipping context summary", job.UserID)
		return nil
	}

	loc := p.userLocation(ctx, job.UserID)
	digest := buildActivityDigest(
		analytics.TasksIn(tasks, loc),
		analytics.SessionsIn(sessions, loc),
		time.Now().In(loc),
	)

	summaryText, err := p.aiProvider.SummarizeContext(ctx, []ai.ChatMessage{
		{Role: "user", Content: digest},
	})
	if err != nil {
		return fmt.Errorf("failed to summarize activity: %w", err)
	}

	aiContext, err := p.contextRepo.GetByUserID(ctx, job.UserID)
	if err != nil {
		aiContext = &models.AIContext{
			UserID:      job.UserID,
			Preferences: make(map[string]any),
		}
	}
	aiContext.ContextSummary = summaryText

	if err := p.contextRepo.Upsert(ctx, aiContext); err != nil {
		return fmt.Errorf("failed to store context summary: %w", err)
	}

	log.Printf("Refreshed coaching context for user %s (%d chars)", job.UserID, len(summaryText))
	return nil
}

// buildActivityDigest renders the user's recent activity as plain text for
// the summarization prompt.
func buildActivityDigest(tasks []*models.Task, sessions []*models.PomodoroSession, now time.Time) string {
	window := analytics.TrailingRange(now, DefaultRollupDays)
	summary := analytics.ComputeSummary(tasks, sessions, window, now)
	rollup := analytics.RollUpTags(tasks, sessions, window)

	var b strings.Builder
	fmt.Fprintf(&b, "Focus activity for the last %d days:\n", DefaultRollupDays)
	fmt.Fprintf(&b, "- %.0f minutes over %d sessions\n", summary.WindowMinutes, summary.WindowSessions)
	fmt.Fprintf(&b, "- Current streak %d days, longest %d, %d active days overall\n",
		summary.Streaks.Current, summary.Streaks.Longest, summary.Streaks.TotalActiveDays)
	fmt.Fprintf(&b, "- %.0f%% of tasks due in the window were completed\n", summary.CompletionRate)

	if len(rollup.Categories) > 0 {
		b.WriteString("Time by category:\n")
		for i, cat := range rollup.Categories {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "- %s: %.0f minutes across %d sessions\n",
				cat.DisplayName, cat.TotalMinutes, cat.Sessions)
		}
	}
	if rollup.UntaggedMinutes > 0 {
		fmt.Fprintf(&b, "- Untagged: %.0f minutes\n", rollup.UntaggedMinutes)
	}

	var open, done int
	for _, task := range tasks {
		if task.IsCompleted() {
			done++
		} else {
			open++
		}
	}
	fmt.Fprintf(&b, "Tasks: %d open, %d completed.\n", open, done)

	return b.String()
}
