package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/database"
	"github.com/vaais251/studytimer-api/internal/models"
	"github.com/vaais251/studytimer-api/internal/queue"
	"github.com/vaais251/studytimer-api/internal/services/ai"
)

// mockAIProvider is a mock implementation of AIProvider
type mockAIProvider struct {
	chatFunc             func(ctx context.Context, systemPrompt string, messages []ai.ChatMessage) (*ai.ChatResponse, error)
	summarizeContextFunc func(ctx context.Context, conversationHistory []ai.ChatMessage) (string, error)
}

func (m *mockAIProvider) Chat(ctx context.Context, systemPrompt string, messages []ai.ChatMessage) (*ai.ChatResponse, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, systemPrompt, messages)
	}
	return &ai.ChatResponse{Message: "ok"}, nil
}

func (m *mockAIProvider) SummarizeContext(ctx context.Context, conversationHistory []ai.ChatMessage) (string, error) {
	if m.summarizeContextFunc != nil {
		return m.summarizeContextFunc(ctx, conversationHistory)
	}
	return "summary", nil
}

var _ ai.AIProvider = (*mockAIProvider)(nil)

// mockUserRepo is a mock implementation of UserRepositoryInterface
type mockUserRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &models.User{ID: id}, nil
}

var _ database.UserRepositoryInterface = (*mockUserRepo)(nil)

// mockTaskRepo is a mock implementation of TaskRepositoryInterface
type mockTaskRepo struct {
	listByUserIDFunc func(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return nil, errors.New("not found")
}

func (m *mockTaskRepo) ListByUserID(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID, projectID, completed)
	}
	return []*models.Task{}, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	return nil
}

func (m *mockTaskRepo) IncrementPoms(ctx context.Context, id, userID uuid.UUID) error {
	return nil
}

var _ database.TaskRepositoryInterface = (*mockTaskRepo)(nil)

// mockSessionRepo is a mock implementation of SessionRepositoryInterface
type mockSessionRepo struct {
	listByUserIDFunc    func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error)
	listAllByUserIDFunc func(ctx context.Context, userID uuid.UUID) ([]*models.PomodoroSession, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.PomodoroSession) error {
	return nil
}

func (m *mockSessionRepo) ListByUserID(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID, from, to)
	}
	return []*models.PomodoroSession{}, nil
}

func (m *mockSessionRepo) ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.PomodoroSession, error) {
	if m.listAllByUserIDFunc != nil {
		return m.listAllByUserIDFunc(ctx, userID)
	}
	return []*models.PomodoroSession{}, nil
}

var _ database.SessionRepositoryInterface = (*mockSessionRepo)(nil)

// mockDailyLogRepo is a mock implementation of DailyLogRepositoryInterface
type mockDailyLogRepo struct {
	replaceRangeFunc func(ctx context.Context, userID uuid.UUID, from, to string, logs []*models.DailyLog) error
}

func (m *mockDailyLogRepo) ListByUserID(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.DailyLog, error) {
	return []*models.DailyLog{}, nil
}

func (m *mockDailyLogRepo) ReplaceRange(ctx context.Context, userID uuid.UUID, from, to string, logs []*models.DailyLog) error {
	if m.replaceRangeFunc != nil {
		return m.replaceRangeFunc(ctx, userID, from, to, logs)
	}
	return nil
}

var _ database.DailyLogRepositoryInterface = (*mockDailyLogRepo)(nil)

// mockAIContextRepo is a mock implementation of AIContextRepositoryInterface
type mockAIContextRepo struct {
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID) (*models.AIContext, error)
	upsertFunc      func(ctx context.Context, aiContext *models.AIContext) error
}

func (m *mockAIContextRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AIContext, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return nil, errors.New("not found")
}

func (m *mockAIContextRepo) Upsert(ctx context.Context, aiContext *models.AIContext) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, aiContext)
	}
	return nil
}

var _ database.AIContextRepositoryInterface = (*mockAIContextRepo)(nil)

// mockCategoryStatsRepo is a mock implementation of CategoryStatsRepositoryInterface
type mockCategoryStatsRepo struct {
	setComputedFunc func(ctx context.Context, userID uuid.UUID, categories map[string]models.CategoryStats) error
}

func (m *mockCategoryStatsRepo) GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID) (*models.CategoryStatistics, error) {
	return &models.CategoryStatistics{UserID: userID, Categories: map[string]models.CategoryStats{}}, nil
}

func (m *mockCategoryStatsRepo) MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error) {
	return true, nil
}

func (m *mockCategoryStatsRepo) SetComputed(ctx context.Context, userID uuid.UUID, categories map[string]models.CategoryStats) error {
	if m.setComputedFunc != nil {
		return m.setComputedFunc(ctx, userID, categories)
	}
	return nil
}

var _ database.CategoryStatsRepositoryInterface = (*mockCategoryStatsRepo)(nil)

// mockActivityRepo is a mock implementation of UserActivityRepositoryInterface
type mockActivityRepo struct {
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
}

func (m *mockActivityRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return nil, errors.New("not found")
}

func (m *mockActivityRepo) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	return nil
}

var _ database.UserActivityRepositoryInterface = (*mockActivityRepo)(nil)

func newTestProcessor(
	provider ai.AIProvider,
	taskRepo database.TaskRepositoryInterface,
	sessionRepo database.SessionRepositoryInterface,
	dailyLogRepo database.DailyLogRepositoryInterface,
	contextRepo database.AIContextRepositoryInterface,
	categoryStatsRepo database.CategoryStatsRepositoryInterface,
	activityRepo database.UserActivityRepositoryInterface,
) *Processor {
	return NewProcessor(provider, &mockUserRepo{}, taskRepo, sessionRepo, dailyLogRepo, contextRepo, categoryStatsRepo, activityRepo, nil, nil)
}

func endedAt(t *testing.T, key string, hour int) time.Time {
	t.Helper()
	day, err := analytics.ParseDay(key)
	if err != nil {
		t.Fatalf("bad day key %q: %v", key, err)
	}
	return day.Add(time.Duration(hour) * time.Hour)
}

func TestProcessDailyRollupJob_ReplacesLogsAndCategories(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskID := uuid.New()

	sessions := []*models.PomodoroSession{
		{ID: uuid.New(), UserID: userID, TaskID: &taskID, EndedAt: endedAt(t, "2024-03-01", 9), DurationMinutes: 25},
		{ID: uuid.New(), UserID: userID, TaskID: &taskID, EndedAt: endedAt(t, "2024-03-01", 14), DurationMinutes: 25},
		{ID: uuid.New(), UserID: userID, EndedAt: endedAt(t, "2024-03-03", 10), DurationMinutes: 50},
	}
	tasks := []*models.Task{
		{ID: taskID, UserID: userID, Text: "Study algebra", Tags: []string{"math"}},
	}

	var gotLogs []*models.DailyLog
	var gotFrom, gotTo string
	var gotCategories map[string]models.CategoryStats

	processor := newTestProcessor(
		&mockAIProvider{},
		&mockTaskRepo{
			listByUserIDFunc: func(ctx context.Context, id uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error) {
				return tasks, nil
			},
		},
		&mockSessionRepo{
			listByUserIDFunc: func(ctx context.Context, id uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error) {
				return sessions, nil
			},
		},
		&mockDailyLogRepo{
			replaceRangeFunc: func(ctx context.Context, id uuid.UUID, from, to string, logs []*models.DailyLog) error {
				gotFrom, gotTo, gotLogs = from, to, logs
				return nil
			},
		},
		&mockAIContextRepo{},
		&mockCategoryStatsRepo{
			setComputedFunc: func(ctx context.Context, id uuid.UUID, categories map[string]models.CategoryStats) error {
				gotCategories = categories
				return nil
			},
		},
		&mockActivityRepo{},
	)

	job := queue.NewRollupJob(userID, "2024-03-01", "2024-03-05")
	if err := processor.ProcessDailyRollupJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessDailyRollupJob() error = %v", err)
	}

	if gotFrom != "2024-03-01" || gotTo != "2024-03-05" {
		t.Errorf("ReplaceRange span = %s..%s, want 2024-03-01..2024-03-05", gotFrom, gotTo)
	}
	if len(gotLogs) != 2 {
		t.Fatalf("Expected 2 daily log rows, got %d", len(gotLogs))
	}
	if gotLogs[0].Date != "2024-03-01" || gotLogs[0].TotalFocusMinutes != 50 || gotLogs[0].CompletedSessions != 2 {
		t.Errorf("Unexpected first log row: %+v", gotLogs[0])
	}
	if gotLogs[1].Date != "2024-03-03" || gotLogs[1].TotalFocusMinutes != 50 || gotLogs[1].CompletedSessions != 1 {
		t.Errorf("Unexpected second log row: %+v", gotLogs[1])
	}

	math, ok := gotCategories["math"]
	if !ok {
		t.Fatalf("Expected math category in stored stats, got %v", gotCategories)
	}
	if math.TotalMinutes != 50 || math.Sessions != 2 {
		t.Errorf("math stats = %+v, want 50 minutes over 2 sessions", math)
	}
}

func TestProcessDailyRollupJob_BucketsInUserTimezone(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	userID := uuid.New()
	taskID := uuid.New()

	// 9pm Jan 14 in New York is 2am Jan 15 UTC. Stored timestamps come back
	// in UTC, so bucketing must follow the user's zone to land on Jan 14.
	evening := time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)
	sessions := []*models.PomodoroSession{
		{ID: uuid.New(), UserID: userID, TaskID: &taskID, EndedAt: evening, DurationMinutes: 25},
	}

	var gotLogs []*models.DailyLog
	var gotFrom, gotTo time.Time

	processor := NewProcessor(
		&mockAIProvider{},
		&mockUserRepo{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
				return &models.User{ID: id, Timezone: "America/New_York"}, nil
			},
		},
		&mockTaskRepo{},
		&mockSessionRepo{
			listByUserIDFunc: func(ctx context.Context, id uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error) {
				gotFrom, gotTo = from, to
				return sessions, nil
			},
		},
		&mockDailyLogRepo{
			replaceRangeFunc: func(ctx context.Context, id uuid.UUID, from, to string, logs []*models.DailyLog) error {
				gotLogs = logs
				return nil
			},
		},
		&mockAIContextRepo{},
		&mockCategoryStatsRepo{},
		&mockActivityRepo{},
		nil,
		nil,
	)

	job := queue.NewRollupJob(userID, "2024-01-14", "2024-01-15")
	if err := processor.ProcessDailyRollupJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessDailyRollupJob() error = %v", err)
	}

	wantFrom := time.Date(2024, 1, 14, 0, 0, 0, 0, newYork)
	if !gotFrom.Equal(wantFrom) {
		t.Errorf("Session query start = %v, want New York midnight %v", gotFrom, wantFrom)
	}
	if wantTo := wantFrom.AddDate(0, 0, 2); !gotTo.Equal(wantTo) {
		t.Errorf("Session query end = %v, want %v", gotTo, wantTo)
	}

	if len(gotLogs) != 1 {
		t.Fatalf("Expected 1 daily log row, got %d", len(gotLogs))
	}
	if gotLogs[0].Date != "2024-01-14" {
		t.Errorf("Evening session bucketed to %s, want the user's local day 2024-01-14", gotLogs[0].Date)
	}
}

func TestProcessDailyRollupJob_SkipsWhenPaused(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	replaced := false

	processor := newTestProcessor(
		&mockAIProvider{},
		&mockTaskRepo{},
		&mockSessionRepo{},
		&mockDailyLogRepo{
			replaceRangeFunc: func(ctx context.Context, id uuid.UUID, from, to string, logs []*models.DailyLog) error {
				replaced = true
				return nil
			},
		},
		&mockAIContextRepo{},
		&mockCategoryStatsRepo{},
		&mockActivityRepo{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID) (*models.UserActivity, error) {
				return &models.UserActivity{UserID: id, RollupPaused: true}, nil
			},
		},
	)

	job := queue.NewRollupJob(userID, "2024-03-01", "2024-03-05")
	if err := processor.ProcessDailyRollupJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessDailyRollupJob() error = %v", err)
	}
	if replaced {
		t.Error("Expected no rollup writes for a paused user")
	}
}

func TestProcessDailyRollupJob_InvalidSpan(t *testing.T) {
	t.Parallel()

	processor := newTestProcessor(
		&mockAIProvider{},
		&mockTaskRepo{},
		&mockSessionRepo{},
		&mockDailyLogRepo{},
		&mockAIContextRepo{},
		&mockCategoryStatsRepo{},
		&mockActivityRepo{},
	)

	job := queue.NewRollupJob(uuid.New(), "not-a-date", "2024-03-05")
	if err := processor.ProcessDailyRollupJob(context.Background(), job); err == nil {
		t.Error("Expected error for malformed from_date")
	}
}

func TestBuildDailyLogs_ExcludesOutOfRangeSessions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	r := analytics.NewRange(
		endedAt(t, "2024-03-01", 0),
		endedAt(t, "2024-03-02", 0),
	)

	sessions := []*models.PomodoroSession{
		{UserID: userID, EndedAt: endedAt(t, "2024-02-29", 23), DurationMinutes: 10},
		{UserID: userID, EndedAt: endedAt(t, "2024-03-01", 8), DurationMinutes: 25},
		{UserID: userID, EndedAt: endedAt(t, "2024-03-03", 8), DurationMinutes: 25},
	}

	logs := buildDailyLogs(userID, sessions, r)

	if len(logs) != 1 {
		t.Fatalf("Expected 1 log row, got %d", len(logs))
	}
	if logs[0].Date != "2024-03-01" || logs[0].TotalFocusMinutes != 25 {
		t.Errorf("Unexpected log row: %+v", logs[0])
	}
}

func TestProcessContextSummaryJob_StoresSummary(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskID := uuid.New()

	var stored *models.AIContext
	var digest string

	processor := newTestProcessor(
		&mockAIProvider{
			summarizeContextFunc: func(ctx context.Context, history []ai.ChatMessage) (string, error) {
				if len(history) != 1 {
					t.Errorf("Expected one digest message, got %d", len(history))
				} else {
					digest = history[0].Content
				}
				return "Evening studier focused on math", nil
			},
		},
		&mockTaskRepo{
			listByUserIDFunc: func(ctx context.Context, id uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error) {
				return []*models.Task{{ID: taskID, UserID: userID, Text: "Study", Tags: []string{"math"}}}, nil
			},
		},
		&mockSessionRepo{
			listAllByUserIDFunc: func(ctx context.Context, id uuid.UUID) ([]*models.PomodoroSession, error) {
				return []*models.PomodoroSession{
					{UserID: userID, TaskID: &taskID, EndedAt: time.Now().Add(-2 * time.Hour), DurationMinutes: 25},
				}, nil
			},
		},
		&mockDailyLogRepo{},
		&mockAIContextRepo{
			upsertFunc: func(ctx context.Context, aiContext *models.AIContext) error {
				stored = aiContext
				return nil
			},
		},
		&mockCategoryStatsRepo{},
		&mockActivityRepo{},
	)

	job := queue.NewJob(queue.JobTypeContextSummary, userID)
	if err := processor.ProcessContextSummaryJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessContextSummaryJob() error = %v", err)
	}

	if stored == nil {
		t.Fatal("Expected context upsert")
	}
	if stored.ContextSummary != "Evening studier focused on math" {
		t.Errorf("Stored summary = %q", stored.ContextSummary)
	}
	if digest == "" {
		t.Error("Expected a non-empty activity digest")
	}
}

func TestProcessContextSummaryJob_SkipsWithoutActivity(t *testing.T) {
	t.Parallel()

	called := false
	processor := newTestProcessor(
		&mockAIProvider{
			summarizeContextFunc: func(ctx context.Context, history []ai.ChatMessage) (string, error) {
				called = true
				return "", nil
			},
		},
		&mockTaskRepo{},
		&mockSessionRepo{},
		&mockDailyLogRepo{},
		&mockAIContextRepo{},
		&mockCategoryStatsRepo{},
		&mockActivityRepo{},
	)

	job := queue.NewJob(queue.JobTypeContextSummary, uuid.New())
	if err := processor.ProcessContextSummaryJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessContextSummaryJob() error = %v", err)
	}
	if called {
		t.Error("Expected no provider call when the user has no activity")
	}
}
