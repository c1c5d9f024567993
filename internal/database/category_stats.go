package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaais251/studytimer-api/internal/models"
)

// CategoryStatsRepository handles the stored per-user category rollups
type CategoryStatsRepository struct {
	db *DB
}

// NewCategoryStatsRepository creates a new category stats repository
func NewCategoryStatsRepository(db *DB) *CategoryStatsRepository {
	return &CategoryStatsRepository{db: db}
}

// GetByUserID retrieves stored category statistics by user ID
func (r *CategoryStatsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CategoryStatistics, error) {
	stats := &models.CategoryStatistics{}
	var categoriesJSON []byte
	var lastComputedAt sql.NullTime

	query := `
		SELECT user_id, categories, tainted, last_computed_at, created_at, updated_at
		FROM category_statistics
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&categoriesJSON,
		&stats.Tainted,
		&lastComputedAt,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("category statistics not found for user %s: %w", userID, err)
		}
		return nil, fmt.Errorf("failed to get category statistics: %w", err)
	}

	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &stats.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	} else {
		stats.Categories = make(map[string]models.CategoryStats)
	}

	if lastComputedAt.Valid {
		stats.LastComputedAt = &lastComputedAt.Time
	}

	return stats, nil
}

// GetByUserIDOrCreate retrieves stored statistics or seeds an empty tainted
// record so the rollup worker will compute it.
func (r *CategoryStatsRepository) GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID) (*models.CategoryStatistics, error) {
	stats, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return stats, nil
	}

	stats = &models.CategoryStatistics{
		UserID:     userID,
		Categories: make(map[string]models.CategoryStats),
		Tainted:    true,
	}

	// Upsert handles the race where another request seeds the row first.
	if err := r.Upsert(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to create category statistics: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}

// Upsert writes a computed rollup
func (r *CategoryStatsRepository) Upsert(ctx context.Context, stats *models.CategoryStatistics) error {
	query := `
		INSERT INTO category_statistics (user_id, categories, tainted, last_computed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET categories = EXCLUDED.categories,
		    tainted = EXCLUDED.tainted,
		    last_computed_at = EXCLUDED.last_computed_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	categoriesJSON, err := json.Marshal(stats.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	var lastComputedAt sql.NullTime
	if stats.LastComputedAt != nil {
		lastComputedAt = sql.NullTime{Time: *stats.LastComputedAt, Valid: true}
	}

	err = r.db.QueryRowContext(ctx, query,
		stats.UserID,
		categoriesJSON,
		stats.Tainted,
		lastComputedAt,
		time.Now(),
	).Scan(&stats.CreatedAt, &stats.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert category statistics: %w", err)
	}

	return nil
}

// MarkTainted flags a user's stored rollup as stale. Returns whether a row
// was actually updated.
func (r *CategoryStatsRepository) MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO category_statistics (user_id, categories, tainted, created_at, updated_at)
		VALUES ($1, '{}', true, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET tainted = true, updated_at = EXCLUDED.updated_at
	`

	result, err := r.db.ExecContext(ctx, query, userID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark category statistics tainted: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// SetComputed stores freshly computed categories and clears the taint
func (r *CategoryStatsRepository) SetComputed(ctx context.Context, userID uuid.UUID, categories map[string]models.CategoryStats) error {
	now := time.Now()
	stats := &models.CategoryStatistics{
		UserID:         userID,
		Categories:     categories,
		Tainted:        false,
		LastComputedAt: &now,
	}
	return r.Upsert(ctx, stats)
}
