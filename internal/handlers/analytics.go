package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vaais251/studytimer-api/internal/analytics"
	"github.com/vaais251/studytimer-api/internal/cache"
	"github.com/vaais251/studytimer-api/internal/database"
	logpkg "github.com/vaais251/studytimer-api/internal/logger"
	"github.com/vaais251/studytimer-api/internal/middleware"
	"github.com/vaais251/studytimer-api/internal/models"
)

const (
	// DefaultWindowDays is the trailing window when none is requested
	DefaultWindowDays = 30
	// MaxWindowDays bounds a requested trailing window
	MaxWindowDays = 366
	// MaxMovingAveragePeriod bounds the trend smoothing window
	MaxMovingAveragePeriod = 90
)

// AnalyticsHandler serves the derived-analytics endpoints: dashboard
// summary, calendar heatmap, category rollups and time-series trends.
// Responses are memoized per user in Redis and invalidated by version
// bumps on task or session writes.
type AnalyticsHandler struct {
	taskRepo    database.TaskRepositoryInterface
	sessionRepo database.SessionRepositoryInterface
	projectRepo database.ProjectRepositoryInterface
	cache       *cache.AnalyticsCache
	logger      *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler. cache may be nil,
// in which case every request recomputes.
func NewAnalyticsHandler(
	taskRepo database.TaskRepositoryInterface,
	sessionRepo database.SessionRepositoryInterface,
	projectRepo database.ProjectRepositoryInterface,
	analyticsCache *cache.AnalyticsCache,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		projectRepo: projectRepo,
		cache:       analyticsCache,
		logger:      logger,
	}
}

// RegisterRoutes registers analytics routes on the given router
// The router should already have the /analytics prefix
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/heatmap", h.GetHeatmap).Methods("GET")
	r.HandleFunc("/categories", h.GetCategories).Methods("GET")
	r.HandleFunc("/trends", h.GetTrends).Methods("GET")
}

// HeatmapResponse is the calendar heatmap payload
type HeatmapResponse struct {
	From  string                  `json:"from"`
	To    string                  `json:"to"`
	Cells []analytics.HeatmapCell `json:"cells"`
}

// TrendsResponse is the time-series payload. Smoothed carries the trailing
// moving average of the primary series when one was requested.
type TrendsResponse struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Series   []analytics.Series `json:"series"`
	Smoothed *analytics.Series  `json:"smoothed,omitempty"`
}

// windowDays parses the ?days= parameter with clamping
func windowDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return DefaultWindowDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("days must be a positive integer")
	}
	if days > MaxWindowDays {
		days = MaxWindowDays
	}
	return days, nil
}

// Cache keys are built from resolved parameters rather than the raw query,
// so defaulted and reordered forms of the same request share one entry.
func summaryCacheKey(days int) string {
	return fmt.Sprintf("summary?days=%d", days)
}

func heatmapCacheKey(window analytics.Window) string {
	return fmt.Sprintf("heatmap?window=%s&n=%d", window.Kind, window.N)
}

func categoriesCacheKey(days int) string {
	return fmt.Sprintf("categories?days=%d", days)
}

func trendsCacheKey(by string, days, maPeriod int) string {
	return fmt.Sprintf("trends?by=%s&days=%d&ma=%d", by, days, maPeriod)
}

// respondMemoized serves the request from the per-user cache when possible,
// computing and storing the payload otherwise. The cache key includes the
// user's aggregate version, so stale entries are simply never read again.
func (h *AnalyticsHandler) respondMemoized(w http.ResponseWriter, r *http.Request, user *models.User, requestKey string, compute func() (any, error)) {
	ctx := r.Context()

	var version int64 = -1
	if h.cache != nil {
		v, err := h.cache.Version(ctx, user.ID)
		if err == nil {
			version = v
			var cached json.RawMessage
			hit, err := h.cache.Get(ctx, user.ID, version, requestKey, &cached)
			if err == nil && hit {
				respondJSON(w, http.StatusOK, cached)
				return
			}
		} else if h.logger != nil {
			h.logger.Debug("analytics_cache_unavailable", zap.Error(err))
		}
	}

	payload, err := compute()
	if err != nil {
		if h.logger != nil {
			h.logger.Error("analytics_compute_failed",
				zap.String("request_key", requestKey),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute analytics")
		return
	}

	if h.cache != nil && version >= 0 {
		if err := h.cache.Set(ctx, user.ID, version, requestKey, payload); err != nil && h.logger != nil {
			h.logger.Debug("analytics_cache_store_failed", zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, payload)
}

// GetSummary returns streaks and window totals for the dashboard
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days, err := windowDays(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	h.respondMemoized(w, r, user, summaryCacheKey(days), func() (any, error) {
		loc := user.Location()
		tasks, err := h.taskRepo.ListByUserID(ctx, user.ID, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		sessions, err := h.sessionRepo.ListAllByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}

		today := time.Now().In(loc)
		window := analytics.TrailingRange(today, days)
		return analytics.ComputeSummary(
			analytics.TasksIn(tasks, loc),
			analytics.SessionsIn(sessions, loc),
			window, today,
		), nil
	})
}

// heatmapWindow parses the ?window= and ?n= parameters
func heatmapWindow(r *http.Request, today time.Time) (analytics.Window, error) {
	kind := analytics.WindowMonthsBack
	switch r.URL.Query().Get("window") {
	case "", "months":
	case "trailing":
		kind = analytics.WindowTrailingDays
	case "year":
		kind = analytics.WindowCalendarYear
	default:
		return analytics.Window{}, fmt.Errorf("window must be 'months', 'trailing', or 'year'")
	}

	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return analytics.Window{}, fmt.Errorf("n must be an integer")
		}
		n = parsed
	}
	if n == 0 {
		switch kind {
		case analytics.WindowMonthsBack:
			n = 4
		case analytics.WindowTrailingDays:
			n = DefaultWindowDays
		case analytics.WindowCalendarYear:
			n = today.Year()
		}
	}

	return analytics.Window{Kind: kind, N: n}, nil
}

// GetHeatmap returns the calendar heatmap grid. Project completion days
// carry a secondary marker.
func (h *AnalyticsHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	today := time.Now().In(user.Location())
	window, err := heatmapWindow(r, today)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	h.respondMemoized(w, r, user, heatmapCacheKey(window), func() (any, error) {
		loc := user.Location()
		sessions, err := h.sessionRepo.ListAllByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		projects, err := h.projectRepo.ListByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}

		daily := analytics.DailyMinutes(analytics.SessionsIn(sessions, loc))
		markers := analytics.ProjectMarkers(analytics.ProjectsIn(projects, loc))
		cells := analytics.BuildHeatmap(daily, window, today, markers)

		rng := window.Resolve(today)
		return HeatmapResponse{
			From:  analytics.DayKey(rng.Start),
			To:    analytics.DayKey(rng.End),
			Cells: cells,
		}, nil
	})
}

// GetCategories returns the tag rollup for the requested window
func (h *AnalyticsHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days, err := windowDays(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	h.respondMemoized(w, r, user, categoriesCacheKey(days), func() (any, error) {
		loc := user.Location()
		tasks, err := h.taskRepo.ListByUserID(ctx, user.ID, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		sessions, err := h.sessionRepo.ListAllByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}

		today := time.Now().In(loc)
		window := analytics.TrailingRange(today, days)
		return analytics.RollUpTags(tasks, analytics.SessionsIn(sessions, loc), window), nil
	})
}

// GetTrends returns zero-filled daily series with optional trailing
// moving-average smoothing
func (h *AnalyticsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days, err := windowDays(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	by := r.URL.Query().Get("by")
	switch by {
	case "":
		by = "minutes"
	case "minutes", "completion", "tags":
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "by must be 'minutes', 'completion', or 'tags'")
		return
	}

	maPeriod := 0
	if raw := r.URL.Query().Get("ma"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "ma must be a non-negative integer")
			return
		}
		if parsed > MaxMovingAveragePeriod {
			parsed = MaxMovingAveragePeriod
		}
		maPeriod = parsed
	}

	ctx := r.Context()
	h.respondMemoized(w, r, user, trendsCacheKey(by, days, maPeriod), func() (any, error) {
		loc := user.Location()
		tasks, err := h.taskRepo.ListByUserID(ctx, user.ID, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		sessions, err := h.sessionRepo.ListAllByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		tasks = analytics.TasksIn(tasks, loc)
		sessions = analytics.SessionsIn(sessions, loc)

		today := time.Now().In(loc)
		window := analytics.TrailingRange(today, days)

		response := TrendsResponse{
			From: analytics.DayKey(window.Start),
			To:   analytics.DayKey(window.End),
		}

		switch by {
		case "minutes":
			series := analytics.BuildDailySeries(sessions, window)
			response.Series = []analytics.Series{series}
			if maPeriod > 1 {
				smoothed := analytics.Series{
					Name:   fmt.Sprintf("%s_ma%d", series.Name, maPeriod),
					Points: analytics.MovingAverage(series.Points, maPeriod),
				}
				response.Smoothed = &smoothed
			}
		case "completion":
			series := analytics.BuildCompletionSeries(tasks, window)
			response.Series = []analytics.Series{series}
			if maPeriod > 1 {
				smoothed := analytics.Series{
					Name:   fmt.Sprintf("%s_ma%d", series.Name, maPeriod),
					Points: analytics.MovingAverage(series.Points, maPeriod),
				}
				response.Smoothed = &smoothed
			}
		case "tags":
			response.Series = analytics.BuildTagSeries(tasks, sessions, window)
		}

		return response, nil
	})
}
