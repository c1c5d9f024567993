package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/models"
)

// UserRepositoryInterface defines the subset of user lookups workers need
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	IncrementPoms(ctx context.Context, id, userID uuid.UUID) error
}

// SessionRepositoryInterface defines the interface for session repository operations
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.PomodoroSession) error
	ListByUserID(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error)
	ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.PomodoroSession, error)
}

// DailyLogRepositoryInterface defines the interface for daily log repository operations
type DailyLogRepositoryInterface interface {
	ListByUserID(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.DailyLog, error)
	ReplaceRange(ctx context.Context, userID uuid.UUID, from, to string, logs []*models.DailyLog) error
}

// ProjectRepositoryInterface defines the interface for project repository operations
type ProjectRepositoryInterface interface {
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
}

// GoalRepositoryInterface defines the interface for goal repository operations
type GoalRepositoryInterface interface {
	ListGoals(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error)
	ListTargets(ctx context.Context, userID uuid.UUID) ([]*models.Target, error)
}

// AIContextRepositoryInterface defines the interface for AI context repository operations
type AIContextRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AIContext, error)
	Upsert(ctx context.Context, aiContext *models.AIContext) error
}

// CategoryStatsRepositoryInterface defines the interface for stored category rollups
type CategoryStatsRepositoryInterface interface {
	GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID) (*models.CategoryStatistics, error)
	MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error)
	SetComputed(ctx context.Context, userID uuid.UUID, categories map[string]models.CategoryStats) error
}

// UserActivityRepositoryInterface defines the interface for user activity repository operations
type UserActivityRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface          = (*UserRepository)(nil)
	_ TaskRepositoryInterface          = (*TaskRepository)(nil)
	_ SessionRepositoryInterface       = (*SessionRepository)(nil)
	_ DailyLogRepositoryInterface      = (*DailyLogRepository)(nil)
	_ ProjectRepositoryInterface       = (*ProjectRepository)(nil)
	_ GoalRepositoryInterface          = (*GoalRepository)(nil)
	_ AIContextRepositoryInterface     = (*AIContextRepository)(nil)
	_ CategoryStatsRepositoryInterface = (*CategoryStatsRepository)(nil)
	_ UserActivityRepositoryInterface  = (*UserActivityRepository)(nil)
)
