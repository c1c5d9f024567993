package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/cache"
	"github.com/vaais251/studytimer-api/internal/database"
	"github.com/vaais251/studytimer-api/internal/models"
	"github.com/vaais251/studytimer-api/internal/queue"
	"github.com/vaais251/studytimer-api/internal/services/ai"
)

// DefaultRollupDays is the span recomputed when a rollup job carries no
// explicit date range.
const DefaultRollupDays = 30

// Processor consumes queue jobs and recomputes derived analytics: daily log
// rows, stored category rollups, and coaching context summaries.
type Processor struct {
	aiProvider        ai.AIProvider
	userRepo          database.UserRepositoryInterface
	taskRepo          database.TaskRepositoryInterface
	sessionRepo       database.SessionRepositoryInterface
	dailyLogRepo      database.DailyLogRepositoryInterface
	contextRepo       database.AIContextRepositoryInterface
	categoryStatsRepo database.CategoryStatsRepositoryInterface
	activityRepo      database.UserActivityRepositoryInterface
	analyticsCache    *cache.AnalyticsCache
	jobQueue          queue.JobQueue // For re-enqueueing jobs with delays
}

// NewProcessor creates a new job processor
func NewProcessor(
	aiProvider ai.AIProvider,
	userRepo database.UserRepositoryInterface,
	taskRepo database.TaskRepositoryInterface,
	sessionRepo database.SessionRepositoryInterface,
	dailyLogRepo database.DailyLogRepositoryInterface,
	contextRepo database.AIContextRepositoryInterface,
	categoryStatsRepo database.CategoryStatsRepositoryInterface,
	activityRepo database.UserActivityRepositoryInterface,
	analyticsCache *cache.AnalyticsCache,
	jobQueue queue.JobQueue,
) *Processor {
	return &Processor{
		aiProvider:        aiProvider,
		userRepo:          userRepo,
		taskRepo:          taskRepo,
		sessionRepo:       sessionRepo,
		dailyLogRepo:      dailyLogRepo,
		contextRepo:       contextRepo,
		categoryStatsRepo: categoryStatsRepo,
		activityRepo:      activityRepo,
		analyticsCache:    analyticsCache,
		jobQueue:          jobQueue,
	}
}

// userLocation resolves the user's calendar location for day bucketing.
// A missing user or lookup failure falls back to UTC rather than failing
// the job.
func (p *Processor) userLocation(ctx context.Context, userID uuid.UUID) *time.Location {
	user, err := p.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		log.Printf("Falling back to UTC for user %s: %v", userID, err)
		return time.UTC
	}
	return user.Location()
}

// rollupRange resolves the date span for a rollup job, anchored in loc so
// span midnights match the user's calendar. An empty span falls back to the
// trailing default window ending today.
func rollupRange(job *queue.Job, now time.Time, loc *time.Location) (analytics.Range, error) {
	fromKey, toKey := job.DateSpan()
	if fromKey == "" && toKey == "" {
		return analytics.TrailingRange(now, DefaultRollupDays), nil
	}

	from, err := analytics.ParseDayIn(fromKey, loc)
	if err != nil {
		return analytics.Range{}, fmt.Errorf("invalid from_date %q: %w", fromKey, err)
	}
	to, err := analytics.ParseDayIn(toKey, loc)
	if err != nil {
		return analytics.Range{}, fmt.Errorf("invalid to_date %q: %w", toKey, err)
	}
	return analytics.NewRange(from, to), nil
}

// ProcessDailyRollupJob recomputes the daily log rows and the stored
// category rollup for one user over the job's date span.
func (p *Processor) ProcessDailyRollupJob(ctx context.Context, job *queue.Job) error {
	// Check if user has rollups paused
	activity, err := p.activityRepo.GetByUserID(ctx, job.UserID)
	if err == nil && activity != nil && activity.RollupPaused {
		log.Printf("Skipping rollup for user %s (rollup paused)", job.UserID)
		return nil
	}

	loc := p.userLocation(ctx, job.UserID)
	r, err := rollupRange(job, time.Now().In(loc), loc)
	if err != nil {
		return err
	}
	if r.IsEmpty() {
		log.Printf("Rollup job %s has an empty date span, nothing to do", job.ID)
		return nil
	}

	// Sessions on the last day end after its midnight boundary
	raw, err := p.sessionRepo.ListByUserID(ctx, job.UserID, r.Start, r.End.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions := analytics.SessionsIn(raw, loc)

	logs := buildDailyLogs(job.UserID, sessions, r)
	if err := p.dailyLogRepo.ReplaceRange(ctx, job.UserID, analytics.DayKey(r.Start), analytics.DayKey(r.End), logs); err != nil {
		return fmt.Errorf("failed to replace daily logs: %w", err)
	}

	tasks, err := p.taskRepo.ListByUserID(ctx, job.UserID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	rollup := analytics.RollUpTags(tasks, sessions, r)
	categories := make(map[string]models.CategoryStats, len(rollup.Categories)+1)
	for _, cat := range rollup.Categories {
		categories[cat.Tag] = models.CategoryStats{
			TotalMinutes: cat.TotalMinutes,
			Sessions:     cat.Sessions,
		}
	}
	if err := p.categoryStatsRepo.SetComputed(ctx, job.UserID, categories); err != nil {
		return fmt.Errorf("failed to store category stats: %w", err)
	}

	// Cached aggregates for this user are stale now
	if p.analyticsCache != nil {
		if err := p.analyticsCache.BumpVersion(ctx, job.UserID); err != nil {
			log.Printf("Failed to bump analytics cache version for user %s: %v", job.UserID, err)
		}
	}

	log.Printf("Rolled up %d days for user %s: %d active days, %d categories",
		r.Days(), job.UserID, len(logs), len(categories))
	return nil
}

// buildDailyLogs buckets sessions into per-day rollup rows. Days with no
// activity produce no row; zero-fill happens at query time.
func buildDailyLogs(userID uuid.UUID, sessions []*models.PomodoroSession, r analytics.Range) []*models.DailyLog {
	type dayTotals struct {
		minutes  float64
		sessions int
	}
	byDay := make(map[string]*dayTotals)
	for _, session := range sessions {
		key := analytics.DayKey(session.EndedAt)
		if !r.ContainsKey(key) {
			continue
		}
		totals := byDay[key]
		if totals == nil {
			totals = &dayTotals{}
			byDay[key] = totals
		}
		totals.minutes += session.Minutes()
		totals.sessions++
	}

	logs := make([]*models.DailyLog, 0, len(byDay))
	for _, key := range r.Keys() {
		totals := byDay[key]
		if totals == nil {
			continue
		}
		logs = append(logs, &models.DailyLog{
			UserID:            userID,
			Date:              key,
			TotalFocusMinutes: totals.minutes,
			CompletedSessions: totals.sessions,
		})
	}
	return logs
}

// ProcessJob processes a job based on its type
func (p *Processor) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		// Re-ack to return to queue and wait
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeDailyRollup:
		if err := p.ProcessDailyRollupJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err, "daily rollup")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeContextSummary:
		if err := p.ProcessContextSummaryJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err, "context summary")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack context summary job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with intelligent retry logic
func (p *Processor) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error, jobType string) error {
	// Check if it's a quota error (should not retry immediately)
	if ai.IsQuotaError(err) {
		log.Printf("Quota exceeded for %s job %s: %v", jobType, job.ID, err)

		// For quota errors, re-enqueue with long delay (1 hour minimum)
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		log.Printf("Re-enqueueing %s job %s with NotBefore=%v (quota exhausted, retry in %v)",
			jobType, job.ID, notBefore, retryDelay)

		delayedJob := retryJob(job, notBefore)

		// Ack the current message
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		// Re-enqueue with delay using NotBefore (RabbitMQ delayed exchange will handle this)
		if p.jobQueue != nil {
			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Successfully re-enqueued %s job %s for retry at %v", jobType, job.ID, notBefore)
			return nil
		}

		// If no queue access, nack without requeue to prevent spam
		log.Printf("Warning: No queue access, cannot re-enqueue job with delay. Sending to DLQ.")
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack quota error job: %v", nackErr)
		}

		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Check if it's a rate limit error (should retry with backoff)
	if ai.IsRateLimitError(err) {
		log.Printf("Rate limited for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		// For rate limits, re-enqueue with delay using NotBefore
		if job.CanRetry() && p.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := retryJob(job, notBefore)

			// Ack the current message
			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack rate limited job: %v", ackErr)
			}

			// Re-enqueue with delay
			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				// Fall back to nack with requeue
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Printf("Failed to nack rate limited job: %v", nackErr)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Rate limited: re-enqueued %s job %s for retry at %v (delay: %v)",
				jobType, job.ID, notBefore, retryDelay)
			return nil
		}

		// Fallback: nack with requeue (immediate retry)
		if job.CanRetry() {
			job.IncrementRetry()
			log.Printf("Rate limit: will retry job %s immediately (attempt %d/%d)",
				job.ID, job.RetryCount, job.MaxRetries)
			if nackErr := msg.Nack(true); nackErr != nil {
				log.Printf("Failed to nack rate limited job: %v", nackErr)
			}
			// Return error to signal worker to wait before processing next job
			return fmt.Errorf("rate limited (will retry): %w", err)
		}
	}

	// For other errors, use standard retry logic
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("%s job %s failed (attempt %d/%d): %v, will retry", jobType, job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// retryJob clones a job for delayed redelivery
func retryJob(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}
