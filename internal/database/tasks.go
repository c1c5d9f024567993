package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vaais251/studytimer-api/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db            *DB
	logger        *zap.Logger
	changeHandler func(ctx context.Context, userID uuid.UUID) error
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// SetLogger attaches a logger for non-fatal diagnostics
func (r *TaskRepository) SetLogger(logger *zap.Logger) {
	r.logger = logger
}

// SetChangeHandler registers a callback invoked after any mutation that can
// affect derived analytics (create, update, complete, delete, pom logging).
// The handler typically bumps the user's snapshot version and enqueues a
// rollup job; its errors are logged, never surfaced to the caller.
func (r *TaskRepository) SetChangeHandler(handler func(ctx context.Context, userID uuid.UUID) error) {
	r.changeHandler = handler
}

func (r *TaskRepository) notifyChange(ctx context.Context, userID uuid.UUID) {
	if r.changeHandler == nil {
		return
	}
	if err := r.changeHandler(ctx, userID); err != nil && r.logger != nil {
		r.logger.Warn("task_change_handler_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// Create creates a new task. Tags are normalized at this boundary so every
// downstream aggregation sees canonical keys.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, text, total_poms, completed_poms, due_date, project_id, tags, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	task.Tags = models.NormalizeTags(task.Tags)
	task.Priority = models.ClampPriority(task.Priority)

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Text,
		task.TotalPoms,
		task.CompletedPoms,
		task.DueDate,
		task.ProjectID,
		pq.Array(task.Tags),
		task.Priority,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.notifyChange(ctx, task.UserID)
	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `
		SELECT id, user_id, text, total_poms, completed_poms, due_date, completed_at, project_id, tags, priority, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListByUserID retrieves all tasks for a user, optionally filtered by
// project and completion state.
func (r *TaskRepository) ListByUserID(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, text, total_poms, completed_poms, due_date, completed_at, project_id, tags, priority, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
	`
	args := []any{userID}
	argIndex := 2

	if projectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argIndex)
		args = append(args, *projectID)
		argIndex++
	}
	if completed != nil {
		if *completed {
			query += " AND completed_at IS NOT NULL"
		} else {
			query += " AND completed_at IS NULL"
		}
	}

	query += " ORDER BY priority ASC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer closeRows(rows)

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update persists task field changes
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET text = $1, total_poms = $2, completed_poms = $3, due_date = $4, completed_at = $5, project_id = $6, tags = $7, priority = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11
	`

	task.Tags = models.NormalizeTags(task.Tags)
	task.Priority = models.ClampPriority(task.Priority)
	task.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		task.Text,
		task.TotalPoms,
		task.CompletedPoms,
		task.DueDate,
		task.CompletedAt,
		task.ProjectID,
		pq.Array(task.Tags),
		task.Priority,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("task not found: %w", sql.ErrNoRows)
	}

	r.notifyChange(ctx, task.UserID)
	return nil
}

// Complete marks a task as completed now
func (r *TaskRepository) Complete(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET completed_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND completed_at IS NULL
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, now, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("task not found or already completed: %w", sql.ErrNoRows)
	}

	r.notifyChange(ctx, userID)
	return r.GetByID(ctx, id)
}

// IncrementPoms adds one completed pomodoro to a task. Stopwatch tasks have
// no estimate to bound against, so the count grows freely.
func (r *TaskRepository) IncrementPoms(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE tasks
		SET completed_poms = completed_poms + 1, updated_at = $1
		WHERE id = $2 AND user_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to increment poms: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("task not found: %w", sql.ErrNoRows)
	}

	r.notifyChange(ctx, userID)
	return nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("task not found: %w", sql.ErrNoRows)
	}

	r.notifyChange(ctx, userID)
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var dueDate, completedAt sql.NullTime
	var projectID uuid.NullUUID
	var tags pq.StringArray

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Text,
		&task.TotalPoms,
		&task.CompletedPoms,
		&dueDate,
		&completedAt,
		&projectID,
		&tags,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if projectID.Valid {
		id := projectID.UUID
		task.ProjectID = &id
	}
	task.Tags = []string(tags)

	return task, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		// Rows may already be closed.
		_ = err
	}
}
