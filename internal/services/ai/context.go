package ai

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/database"
	"github.com/vaais251/studytimer-api/internal/models"
)

// ContextService manages AI coaching context for users
type ContextService struct {
	provider    AIProvider
	contextRepo database.AIContextRepositoryInterface
}

// NewContextService creates a new context service
func NewContextService(provider AIProvider, contextRepo database.AIContextRepositoryInterface) *ContextService {
	return &ContextService{
		provider:    provider,
		contextRepo: contextRepo,
	}
}

// GetOrCreateContext gets or creates coaching context for a user
func (s *ContextService) GetOrCreateContext(ctx context.Context, userID uuid.UUID) (*models.AIContext, error) {
	aiContext, err := s.contextRepo.GetByUserID(ctx, userID)
	if err == nil {
		return aiContext, nil
	}

	// Create new context if not found
	aiContext = &models.AIContext{
		UserID:      userID,
		Preferences: make(map[string]any),
	}

	if err := s.contextRepo.Upsert(ctx, aiContext); err != nil {
		return nil, fmt.Errorf("failed to create AI context: %w", err)
	}

	return aiContext, nil
}

// UpdateContextSummary updates the context summary from a conversation
func (s *ContextService) UpdateContextSummary(ctx context.Context, userID uuid.UUID, conversationHistory []ChatMessage) error {
	summary, err := s.provider.SummarizeContext(ctx, conversationHistory)
	if err != nil {
		return fmt.Errorf("failed to summarize context: %w", err)
	}

	aiContext, err := s.GetOrCreateContext(ctx, userID)
	if err != nil {
		return err
	}

	aiContext.ContextSummary = summary

	if err := s.contextRepo.Upsert(ctx, aiContext); err != nil {
		return fmt.Errorf("failed to update context: %w", err)
	}

	return nil
}

// MergeContextSummary merges a new summary with existing context
func (s *ContextService) MergeContextSummary(ctx context.Context, userID uuid.UUID, newSummary string) error {
	aiContext, err := s.GetOrCreateContext(ctx, userID)
	if err != nil {
		return err
	}

	// Simple merge: append new summary to existing
	if aiContext.ContextSummary != "" {
		aiContext.ContextSummary = aiContext.ContextSummary + "\n\n" + newSummary
	} else {
		aiContext.ContextSummary = newSummary
	}

	if err := s.contextRepo.Upsert(ctx, aiContext); err != nil {
		return fmt.Errorf("failed to update context: %w", err)
	}

	return nil
}

// LoadContext loads user context for coaching
func (s *ContextService) LoadContext(ctx context.Context, userID uuid.UUID) (*models.AIContext, error) {
	return s.GetOrCreateContext(ctx, userID)
}
