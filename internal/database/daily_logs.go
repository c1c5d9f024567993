package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaais251/studytimer-api/internal/models"
)

// DailyLogRepository handles daily rollup rows. Rows are written by the
// rollup worker; the API layer only reads them.
type DailyLogRepository struct {
	db *DB
}

// NewDailyLogRepository creates a new daily log repository
func NewDailyLogRepository(db *DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// ListByUserID retrieves daily logs whose date key falls inside [from, to].
// Keys are YYYY-MM-DD strings, so lexical comparison is date comparison.
func (r *DailyLogRepository) ListByUserID(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.DailyLog, error) {
	query := `
		SELECT user_id, date, total_focus_minutes, completed_sessions, created_at, updated_at
		FROM daily_logs
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	defer closeRows(rows)

	var logs []*models.DailyLog
	for rows.Next() {
		log := &models.DailyLog{}
		err := rows.Scan(
			&log.UserID,
			&log.Date,
			&log.TotalFocusMinutes,
			&log.CompletedSessions,
			&log.CreatedAt,
			&log.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily logs: %w", err)
	}

	return logs, nil
}

// ListAllByUserID retrieves a user's full daily log history, oldest first.
func (r *DailyLogRepository) ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.DailyLog, error) {
	return r.ListByUserID(ctx, userID, "0000-01-01", "9999-12-31")
}

// UpsertDay writes one day's rollup row.
func (r *DailyLogRepository) UpsertDay(ctx context.Context, log *models.DailyLog) error {
	query := `
		INSERT INTO daily_logs (user_id, date, total_focus_minutes, completed_sessions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, date) DO UPDATE
		SET total_focus_minutes = EXCLUDED.total_focus_minutes,
		    completed_sessions = EXCLUDED.completed_sessions,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Date,
		models.CoerceMinutes(log.TotalFocusMinutes),
		log.CompletedSessions,
		time.Now(),
	).Scan(&log.CreatedAt, &log.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert daily log: %w", err)
	}

	return nil
}

// ReplaceRange atomically rewrites a user's rollup rows for a date span.
// The rollup worker recomputes whole spans, so stale rows for days that no
// longer have sessions must go away with the same transaction.
func (r *DailyLogRepository) ReplaceRange(ctx context.Context, userID uuid.UUID, from, to string, logs []*models.DailyLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			// Rollback after commit is a no-op error.
			_ = rollbackErr
		}
	}()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM daily_logs WHERE user_id = $1 AND date >= $2 AND date <= $3`,
		userID, from, to,
	)
	if err != nil {
		return fmt.Errorf("failed to clear daily logs: %w", err)
	}

	now := time.Now()
	for _, log := range logs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_logs (user_id, date, total_focus_minutes, completed_sessions, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, userID, log.Date, models.CoerceMinutes(log.TotalFocusMinutes), log.CompletedSessions, now)
		if err != nil {
			return fmt.Errorf("failed to insert daily log for %s: %w", log.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily logs: %w", err)
	}
	return nil
}
