package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/database"
	"github.com/vaais251/studytimer-api/internal/middleware"
	"github.com/vaais251/studytimer-api/internal/models"
)

type stubTaskRepo struct {
	tasks []*models.Task
}

func (s *stubTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return nil, errors.New("not found")
}

func (s *stubTaskRepo) ListByUserID(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, completed *bool) ([]*models.Task, error) {
	return s.tasks, nil
}

func (s *stubTaskRepo) Update(ctx context.Context, task *models.Task) error { return nil }

func (s *stubTaskRepo) IncrementPoms(ctx context.Context, id, userID uuid.UUID) error { return nil }

var _ database.TaskRepositoryInterface = (*stubTaskRepo)(nil)

type stubSessionRepo struct {
	sessions []*models.PomodoroSession
}

func (s *stubSessionRepo) Create(ctx context.Context, session *models.PomodoroSession) error {
	return nil
}

func (s *stubSessionRepo) ListByUserID(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.PomodoroSession, error) {
	return s.sessions, nil
}

func (s *stubSessionRepo) ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.PomodoroSession, error) {
	return s.sessions, nil
}

var _ database.SessionRepositoryInterface = (*stubSessionRepo)(nil)

type stubProjectRepo struct {
	projects []*models.Project
}

func (s *stubProjectRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	return s.projects, nil
}

var _ database.ProjectRepositoryInterface = (*stubProjectRepo)(nil)

// envelope mirrors the respondJSON wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func authedRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	user := &models.User{ID: uuid.New(), Email: "student@example.com"}
	req := httptest.NewRequest("GET", target, nil)
	return req.WithContext(middleware.SetUserInContext(req.Context(), user))
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("Expected success envelope, got body %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func sessionEndingAt(userID uuid.UUID, taskID *uuid.UUID, endedAt time.Time, minutes float64) *models.PomodoroSession {
	return &models.PomodoroSession{
		ID:              uuid.New(),
		UserID:          userID,
		TaskID:          taskID,
		EndedAt:         endedAt,
		DurationMinutes: minutes,
	}
}

func TestGetSummary_Unauthorized(t *testing.T) {
	t.Parallel()

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{}, &stubProjectRepo{}, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/analytics/summary", nil)
	w := httptest.NewRecorder()
	handler.GetSummary(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestGetSummary_ComputesStreaksAndTotals(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Now().UTC()
	sessions := []*models.PomodoroSession{
		sessionEndingAt(userID, nil, now, 25),
		sessionEndingAt(userID, nil, now.AddDate(0, 0, -1), 50),
	}

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{sessions: sessions}, &stubProjectRepo{}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/summary")
	w := httptest.NewRecorder()
	handler.GetSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary analytics.Summary
	decodeData(t, w, &summary)

	if summary.Streaks.Current != 2 {
		t.Errorf("Current streak = %d, want 2", summary.Streaks.Current)
	}
	if summary.TodayMinutes != 25 {
		t.Errorf("TodayMinutes = %f, want 25", summary.TodayMinutes)
	}
	if summary.WindowMinutes != 75 {
		t.Errorf("WindowMinutes = %f, want 75", summary.WindowMinutes)
	}
}

func TestGetSummary_InvalidDays(t *testing.T) {
	t.Parallel()

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{}, &stubProjectRepo{}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/summary?days=zero")
	w := httptest.NewRecorder()
	handler.GetSummary(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetHeatmap_InvalidWindow(t *testing.T) {
	t.Parallel()

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{}, &stubProjectRepo{}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/heatmap?window=decade")
	w := httptest.NewRecorder()
	handler.GetHeatmap(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetHeatmap_MarksProjectCompletions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Now().UTC()
	completedAt := now.AddDate(0, 0, -2)

	sessions := []*models.PomodoroSession{
		sessionEndingAt(userID, nil, completedAt, 30),
	}
	projects := []*models.Project{
		{ID: uuid.New(), UserID: userID, Name: "Thesis", Status: models.ProjectStatusCompleted, CompletedAt: &completedAt},
	}

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{sessions: sessions}, &stubProjectRepo{projects: projects}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/heatmap?window=trailing&n=7")
	w := httptest.NewRecorder()
	handler.GetHeatmap(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response HeatmapResponse
	decodeData(t, w, &response)

	markerKey := analytics.DayKey(completedAt)
	found := false
	for _, cell := range response.Cells {
		if cell.Date == markerKey {
			found = true
			if !cell.HasMarker {
				t.Errorf("Expected marker on %s", markerKey)
			}
			if cell.Level == 0 {
				t.Errorf("Expected nonzero intensity on %s", markerKey)
			}
		}
	}
	if !found {
		t.Errorf("Day %s missing from heatmap cells", markerKey)
	}
}

func TestGetCategories_DoubleCountsSharedSessions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskID := uuid.New()
	now := time.Now().UTC()

	tasks := []*models.Task{
		{ID: taskID, UserID: userID, Text: "Review", Tags: []string{"math", "exam"}},
	}
	sessions := []*models.PomodoroSession{
		sessionEndingAt(userID, &taskID, now.Add(-2*time.Hour), 25),
	}

	handler := NewAnalyticsHandler(&stubTaskRepo{tasks: tasks}, &stubSessionRepo{sessions: sessions}, &stubProjectRepo{}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/categories?days=7")
	w := httptest.NewRecorder()
	handler.GetCategories(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var rollup analytics.TagRollup
	decodeData(t, w, &rollup)

	if len(rollup.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(rollup.Categories))
	}
	var total float64
	for _, cat := range rollup.Categories {
		total += cat.TotalMinutes
	}
	if total != 50 {
		t.Errorf("Sum of category minutes = %f, want 50 (full attribution per tag)", total)
	}
	if rollup.WindowMinutes != 25 {
		t.Errorf("WindowMinutes = %f, want 25", rollup.WindowMinutes)
	}
}

func TestGetTrends_InvalidBy(t *testing.T) {
	t.Parallel()

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{}, &stubProjectRepo{}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/trends?by=hour")
	w := httptest.NewRecorder()
	handler.GetTrends(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetTrends_ZeroFillsAndSmooths(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Now().UTC()
	sessions := []*models.PomodoroSession{
		sessionEndingAt(userID, nil, now, 25),
	}

	handler := NewAnalyticsHandler(&stubTaskRepo{}, &stubSessionRepo{sessions: sessions}, &stubProjectRepo{}, nil, nil)

	req := authedRequest(t, "/api/v1/analytics/trends?days=7&ma=3")
	w := httptest.NewRecorder()
	handler.GetTrends(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response TrendsResponse
	decodeData(t, w, &response)

	if len(response.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(response.Series))
	}
	if len(response.Series[0].Points) != 7 {
		t.Errorf("Expected 7 zero-filled points, got %d", len(response.Series[0].Points))
	}
	if response.Smoothed == nil {
		t.Fatal("Expected smoothed series when ma is requested")
	}
	if len(response.Smoothed.Points) != 7 {
		t.Errorf("Expected smoothed series to match input length, got %d", len(response.Smoothed.Points))
	}
}

func TestGetSummary_BucketsEveningSessionsInUserTimezone(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	user := &models.User{ID: uuid.New(), Email: "student@example.com", Timezone: "America/New_York"}

	// A 9pm New York session is stored as a UTC instant on the next UTC
	// day. It still belongs to the user's current day.
	midnight := analytics.Midnight(time.Now().In(newYork))
	evening := midnight.Add(21 * time.Hour).UTC()
	sessionRepo := &stubSessionRepo{sessions: []*models.PomodoroSession{
		sessionEndingAt(user.ID, nil, evening, 25),
	}}

	handler := NewAnalyticsHandler(&stubTaskRepo{}, sessionRepo, &stubProjectRepo{}, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/analytics/summary", nil)
	req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	w := httptest.NewRecorder()
	handler.GetSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var summary analytics.Summary
	decodeData(t, w, &summary)
	if summary.TodayMinutes != 25 {
		t.Errorf("TodayMinutes = %v, want 25", summary.TodayMinutes)
	}
	if summary.Streaks.Current != 1 {
		t.Errorf("Current streak = %d, want 1", summary.Streaks.Current)
	}
}

func TestAnalyticsCacheKeys_NormalizeDefaults(t *testing.T) {
	t.Parallel()

	defaulted, err := windowDays(httptest.NewRequest("GET", "/api/v1/analytics/summary", nil))
	if err != nil {
		t.Fatalf("windowDays() error = %v", err)
	}
	explicit, err := windowDays(httptest.NewRequest("GET", "/api/v1/analytics/summary?days=30", nil))
	if err != nil {
		t.Fatalf("windowDays() error = %v", err)
	}

	if summaryCacheKey(defaulted) != summaryCacheKey(explicit) {
		t.Error("Defaulted and explicit summary windows should share a cache key")
	}
	if categoriesCacheKey(defaulted) != categoriesCacheKey(explicit) {
		t.Error("Defaulted and explicit category windows should share a cache key")
	}

	today := time.Now()
	w1, err := heatmapWindow(httptest.NewRequest("GET", "/api/v1/analytics/heatmap", nil), today)
	if err != nil {
		t.Fatalf("heatmapWindow() error = %v", err)
	}
	w2, err := heatmapWindow(httptest.NewRequest("GET", "/api/v1/analytics/heatmap?window=months&n=4", nil), today)
	if err != nil {
		t.Fatalf("heatmapWindow() error = %v", err)
	}
	if heatmapCacheKey(w1) != heatmapCacheKey(w2) {
		t.Error("Defaulted and explicit heatmap windows should share a cache key")
	}

	if trendsCacheKey("minutes", 30, 0) != trendsCacheKey("minutes", 30, 0) {
		t.Error("Trend cache keys should be deterministic")
	}
	if trendsCacheKey("minutes", 30, 0) == trendsCacheKey("minutes", 30, 7) {
		t.Error("Different smoothing windows should not share a cache key")
	}
}
