package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/models"
)

const coachPersona = "You are a supportive productivity coach for a Pomodoro study timer. " +
	"Ground your advice in the user's actual focus data when it is provided. " +
	"Be concise, encouraging, and concrete."

// CoachInsights is the analytics digest injected into coach prompts so the
// model can ground its advice in the user's real activity.
type CoachInsights struct {
	Summary       analytics.Summary
	TopCategories []analytics.CategoryTotal
	Goals         []*models.Goal
}

// ChatService manages coaching chat sessions
type ChatService struct {
	provider AIProvider
	sessions map[uuid.UUID]*ChatSession
	mu       sync.RWMutex // Protects concurrent access to sessions map
}

// ChatSession represents an active chat session
type ChatSession struct {
	UserID             uuid.UUID
	Messages           []ChatMessage
	CreatedAt          time.Time
	LastActivity       time.Time
	ContextSummary     string
	NeedsSummaryUpdate bool
}

// NewChatService creates a new chat service
func NewChatService(provider AIProvider) *ChatService {
	return &ChatService{
		provider: provider,
		sessions: make(map[uuid.UUID]*ChatSession),
	}
}

// GetOrCreateSession gets or creates a chat session for a user
func (s *ChatService) GetOrCreateSession(userID uuid.UUID) *ChatSession {
	// Try read lock first for fast path
	s.mu.RLock()
	if session, exists := s.sessions[userID]; exists {
		s.mu.RUnlock()
		session.LastActivity = time.Now()
		return session
	}
	s.mu.RUnlock()

	// Need to create new session, acquire write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine might have created it)
	if session, exists := s.sessions[userID]; exists {
		session.LastActivity = time.Now()
		return session
	}

	session := &ChatSession{
		UserID:       userID,
		Messages:     make([]ChatMessage, 0),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}

	s.sessions[userID] = session
	return session
}

// AddMessage adds a message to the session
func (s *ChatService) AddMessage(session *ChatSession, role string, content string) {
	session.Messages = append(session.Messages, ChatMessage{
		Role:    role,
		Content: content,
	})
	session.LastActivity = time.Now()
	session.NeedsSummaryUpdate = true
}

// GetResponse gets a coach response for the session. The stored user context
// and the analytics digest are folded into the system prompt.
func (s *ChatService) GetResponse(ctx context.Context, session *ChatSession, userContext *models.AIContext, insights *CoachInsights) (*ChatResponse, error) {
	systemPrompt := BuildCoachPrompt(userContext, insights)

	response, err := s.provider.Chat(ctx, systemPrompt, session.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat response: %w", err)
	}

	// Add AI response to session
	s.AddMessage(session, "assistant", response.Message)

	return response, nil
}

// SummarizeSession summarizes a chat session
func (s *ChatService) SummarizeSession(ctx context.Context, session *ChatSession) (string, error) {
	if len(session.Messages) == 0 {
		return "", nil
	}

	summary, err := s.provider.SummarizeContext(ctx, session.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to summarize session: %w", err)
	}

	session.ContextSummary = summary
	session.NeedsSummaryUpdate = false

	return summary, nil
}

// CloseSession closes a chat session
func (s *ChatService) CloseSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// BuildCoachPrompt assembles the system prompt from the persona, the stored
// user context, and the analytics digest. A nil digest yields the bare
// persona so the coach still works before any sessions are logged.
func BuildCoachPrompt(userContext *models.AIContext, insights *CoachInsights) string {
	var b strings.Builder
	b.WriteString(coachPersona)

	if userContext != nil && userContext.ContextSummary != "" {
		b.WriteString("\n\nWhat you know about this user: ")
		b.WriteString(userContext.ContextSummary)
	}

	if insights != nil {
		b.WriteString("\n\nRecent activity:")
		fmt.Fprintf(&b, "\n- Current streak: %d days (longest %d)",
			insights.Summary.Streaks.Current, insights.Summary.Streaks.Longest)
		fmt.Fprintf(&b, "\n- Today: %.0f focus minutes over %d sessions",
			insights.Summary.TodayMinutes, insights.Summary.TodaySessions)
		fmt.Fprintf(&b, "\n- Last 30 days: %.0f focus minutes, %.0f%% of due tasks completed",
			insights.Summary.WindowMinutes, insights.Summary.CompletionRate)

		if len(insights.TopCategories) > 0 {
			b.WriteString("\n- Top categories:")
			for i, cat := range insights.TopCategories {
				if i >= 5 {
					break
				}
				fmt.Fprintf(&b, " %s (%.0f min)", cat.DisplayName, cat.TotalMinutes)
			}
		}

		for _, goal := range insights.Goals {
			if goal == nil || goal.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "\n- Goal: %s", goal.Text)
		}
	}

	return b.String()
}
