package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaais251/studytimer-api/internal/models"
)

// GoalRepository handles goal and target database operations. Both are
// display/context records; they never feed numeric aggregation.
type GoalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// CreateGoal creates a new long-term goal
func (r *GoalRepository) CreateGoal(ctx context.Context, goal *models.Goal) error {
	query := `
		INSERT INTO goals (id, user_id, text, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		goal.ID, goal.UserID, goal.Text, goal.Deadline, time.Now(),
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// ListGoals retrieves all goals for a user
func (r *GoalRepository) ListGoals(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error) {
	query := `
		SELECT id, user_id, text, deadline, completed_at, created_at, updated_at
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer closeRows(rows)

	var goals []*models.Goal
	for rows.Next() {
		goal := &models.Goal{}
		var deadline, completedAt sql.NullTime
		if err := rows.Scan(&goal.ID, &goal.UserID, &goal.Text, &deadline, &completedAt, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		if deadline.Valid {
			goal.Deadline = &deadline.Time
		}
		if completedAt.Valid {
			goal.CompletedAt = &completedAt.Time
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}

// CompleteGoal marks a goal achieved now
func (r *GoalRepository) CompleteGoal(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE goals SET completed_at = $1, updated_at = $1 WHERE id = $2 AND user_id = $3`,
		time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete goal: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("goal not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteGoal removes a goal
func (r *GoalRepository) DeleteGoal(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("goal not found: %w", sql.ErrNoRows)
	}
	return nil
}

// CreateTarget creates a new short-horizon target
func (r *GoalRepository) CreateTarget(ctx context.Context, target *models.Target) error {
	query := `
		INSERT INTO targets (id, user_id, text, deadline, achieved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		target.ID, target.UserID, target.Text, target.Deadline, target.Achieved, time.Now(),
	).Scan(&target.CreatedAt, &target.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}
	return nil
}

// ListTargets retrieves all targets for a user
func (r *GoalRepository) ListTargets(ctx context.Context, userID uuid.UUID) ([]*models.Target, error) {
	query := `
		SELECT id, user_id, text, deadline, achieved, created_at, updated_at
		FROM targets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer closeRows(rows)

	var targets []*models.Target
	for rows.Next() {
		target := &models.Target{}
		var deadline sql.NullTime
		if err := rows.Scan(&target.ID, &target.UserID, &target.Text, &deadline, &target.Achieved, &target.CreatedAt, &target.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		if deadline.Valid {
			target.Deadline = &deadline.Time
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating targets: %w", err)
	}
	return targets, nil
}

// SetTargetAchieved toggles a target's achieved flag
func (r *GoalRepository) SetTargetAchieved(ctx context.Context, id, userID uuid.UUID, achieved bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE targets SET achieved = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		achieved, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update target: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("target not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteTarget removes a target
func (r *GoalRepository) DeleteTarget(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM targets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("target not found: %w", sql.ErrNoRows)
	}
	return nil
}
