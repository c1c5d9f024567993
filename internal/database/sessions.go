package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaais251/studytimer-api/internal/models"
)

// SessionRepository handles pomodoro session database operations
type SessionRepository struct {
	db            *DB
	changeHandler func(ctx context.Context, userID uuid.UUID) error
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SetChangeHandler registers a callback invoked after session mutations.
func (r *SessionRepository) SetChangeHandler(handler func(ctx context.Context, userID uuid.UUID) error) {
	r.changeHandler = handler
}

// Create records a finished focus session. Malformed durations are coerced
// to zero at this boundary rather than defensively at every aggregation.
func (r *SessionRepository) Create(ctx context.Context, session *models.PomodoroSession) error {
	query := `
		INSERT INTO pomodoro_sessions (id, user_id, task_id, ended_at, duration_minutes, difficulty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	session.DurationMinutes = models.CoerceMinutes(session.DurationMinutes)

	var difficulty *string
	if session.Difficulty != nil {
		d := string(*session.Difficulty)
		difficulty = &d
	}

	err := r.db.QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		session.TaskID,
		session.EndedAt,
		session.DurationMinutes,
		difficulty,
		time.Now(),
	).Scan(&session.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if r.changeHandler != nil {
		if err := r.changeHandler(ctx, session.UserID); err != nil {
			// Analytics invalidation failures never fail the write.
			_ = err
		}
	}
	return nil
}

// ListByUserID retrieves a user's sessions ended inside [from, to].
func (r *SessionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error) {
	query := `
		SELECT id, user_id, task_id, ended_at, duration_minutes, difficulty, created_at
		FROM pomodoro_sessions
		WHERE user_id = $1 AND ended_at >= $2 AND ended_at <= $3
		ORDER BY ended_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer closeRows(rows)

	return scanSessions(rows)
}

// ListAllByUserID retrieves a user's entire session history, oldest first.
// Streak calculation needs the full history, not a window.
func (r *SessionRepository) ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.PomodoroSession, error) {
	query := `
		SELECT id, user_id, task_id, ended_at, duration_minutes, difficulty, created_at
		FROM pomodoro_sessions
		WHERE user_id = $1
		ORDER BY ended_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer closeRows(rows)

	return scanSessions(rows)
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pomodoro_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("session not found: %w", sql.ErrNoRows)
	}

	if r.changeHandler != nil {
		if err := r.changeHandler(ctx, userID); err != nil {
			_ = err
		}
	}
	return nil
}

func scanSessions(rows *sql.Rows) ([]*models.PomodoroSession, error) {
	var sessions []*models.PomodoroSession
	for rows.Next() {
		session := &models.PomodoroSession{}
		var taskID uuid.NullUUID
		var difficulty sql.NullString

		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&taskID,
			&session.EndedAt,
			&session.DurationMinutes,
			&difficulty,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if taskID.Valid {
			id := taskID.UUID
			session.TaskID = &id
		}
		if difficulty.Valid {
			d := models.SessionDifficulty(difficulty.String)
			session.Difficulty = &d
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
