package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaais251/studytimer-api/internal/models"
)

// ProjectRepository handles project database operations
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, user_id, name, status, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at
	`

	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}

	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Status,
		project.Deadline,
		time.Now(),
	).Scan(&project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `
		SELECT id, user_id, name, status, deadline, created_at, completed_at, updated_at
		FROM projects
		WHERE id = $1
	`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// ListByUserID retrieves all projects for a user, newest first
func (r *ProjectRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	query := `
		SELECT id, user_id, name, status, deadline, created_at, completed_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer closeRows(rows)

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update persists project field changes
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $1, status = $2, deadline = $3, completed_at = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`

	project.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		project.Name,
		project.Status,
		project.Deadline,
		project.CompletedAt,
		project.UpdatedAt,
		project.ID,
		project.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("project not found: %w", sql.ErrNoRows)
	}
	return nil
}

// Complete marks a project completed now. The completion day becomes a
// heatmap marker.
func (r *ProjectRepository) Complete(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	query := `
		UPDATE projects
		SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND completed_at IS NULL
	`
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, models.ProjectStatusCompleted, now, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete project: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("project not found or already completed: %w", sql.ErrNoRows)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a project; its tasks keep a dangling reference cleared by
// the schema's ON DELETE SET NULL.
func (r *ProjectRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("project not found: %w", sql.ErrNoRows)
	}
	return nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	var deadline, completedAt sql.NullTime

	err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.Status,
		&deadline,
		&project.CreatedAt,
		&completedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		project.Deadline = &deadline.Time
	}
	if completedAt.Valid {
		project.CompletedAt = &completedAt.Time
	}
	return project, nil
}
