package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeDailyRollup recomputes daily log rows and category statistics
	// for a user over a date span.
	JobTypeDailyRollup JobType = "daily_rollup"
	// JobTypeContextSummary refreshes a user's coaching context summary.
	JobTypeContextSummary JobType = "context_summary"
)

// Metadata keys used by rollup jobs. Values are YYYY-MM-DD day keys; an
// absent key means the worker picks the default span.
const (
	MetadataFromDate = "from_date"
	MetadataToDate   = "to_date"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`   // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewRollupJob creates a daily rollup job spanning the given day keys,
// inclusive on both ends.
func NewRollupJob(userID uuid.UUID, fromDate, toDate string) *Job {
	job := NewJob(JobTypeDailyRollup, userID)
	if fromDate != "" {
		job.Metadata[MetadataFromDate] = fromDate
	}
	if toDate != "" {
		job.Metadata[MetadataToDate] = toDate
	}
	return job
}

// DateSpan returns the from/to day keys carried by a rollup job. Missing or
// non-string values come back empty.
func (j *Job) DateSpan() (string, string) {
	from, _ := j.Metadata[MetadataFromDate].(string)
	to, _ := j.Metadata[MetadataToDate].(string)
	return from, to
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	// Check NotBefore
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	// Check NotAfter
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
