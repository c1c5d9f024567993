package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/models"
)

// Point is one daily data point in a series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Series is an ordered run of daily points, one per calendar day in the
// requested range with missing days zero-filled.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// BuildDailySeries buckets session focus minutes into one point per day in
// the range. Sessions outside the range are ignored.
func BuildDailySeries(sessions []*models.PomodoroSession, r Range) Series {
	byDay := make(map[string]float64)
	for _, session := range sessions {
		if !r.Contains(session.EndedAt) {
			continue
		}
		byDay[DayKey(session.EndedAt)] += session.Minutes()
	}
	return seriesFromMap("focus_minutes", byDay, r)
}

// BuildCompletionSeries produces the per-day task completion rate: for each
// day, completed tasks due that day divided by tasks due that day, as a
// percentage. Days with nothing due are zero.
func BuildCompletionSeries(tasks []*models.Task, r Range) Series {
	due := make(map[string]int)
	done := make(map[string]int)
	for _, task := range tasks {
		if task.DueDate == nil || !r.Contains(*task.DueDate) {
			continue
		}
		key := DayKey(*task.DueDate)
		due[key]++
		if task.IsCompleted() {
			done[key]++
		}
	}

	rate := make(map[string]float64, len(due))
	for key, total := range due {
		if total > 0 {
			rate[key] = float64(done[key]) / float64(total) * 100
		}
	}
	return seriesFromMap("completion_rate", rate, r)
}

// BuildTagSeries produces one independent series per tag found on in-window
// sessions' tasks, each zero-filled across the whole range. Sessions whose
// task has no tags contribute to the untagged series. Series are ordered by
// descending total, ties by name. Display visibility is a consumer concern;
// every series is always present in the output.
func BuildTagSeries(tasks []*models.Task, sessions []*models.PomodoroSession, r Range) []Series {
	tagsByTask := make(map[uuid.UUID][]string, len(tasks))
	for _, task := range tasks {
		tagsByTask[task.ID] = models.NormalizeTags(task.Tags)
	}

	byTag := make(map[string]map[string]float64)
	accumulate := func(tag, day string, minutes float64) {
		daily, ok := byTag[tag]
		if !ok {
			daily = make(map[string]float64)
			byTag[tag] = daily
		}
		daily[day] += minutes
	}

	for _, session := range sessions {
		if !r.Contains(session.EndedAt) {
			continue
		}
		day := DayKey(session.EndedAt)
		minutes := session.Minutes()

		var tags []string
		if session.TaskID != nil {
			tags = tagsByTask[*session.TaskID]
		}
		if len(tags) == 0 {
			accumulate(UntaggedCategory, day, minutes)
			continue
		}
		for _, tag := range tags {
			accumulate(tag, day, minutes)
		}
	}

	out := make([]Series, 0, len(byTag))
	for tag, daily := range byTag {
		out = append(out, seriesFromMap(tag, daily, r))
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := seriesTotal(out[i]), seriesTotal(out[j])
		if ti != tj {
			return ti > tj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MovingAverage annotates a series with a trailing moving average of window
// n: each point becomes the mean of itself and the preceding n-1 points,
// clamped at the start of the series. n <= 1 returns the input unchanged.
// The input is never mutated.
func MovingAverage(points []Point, n int) []Point {
	if n <= 1 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	out := make([]Point, len(points))
	var window float64
	for i, p := range points {
		window += p.Value
		if i >= n {
			window -= points[i-n].Value
		}
		span := i + 1
		if span > n {
			span = n
		}
		out[i] = Point{Date: p.Date, Value: window / float64(span)}
	}
	return out
}

// seriesFromMap zero-fills a day-value map into an ordered series.
func seriesFromMap(name string, byDay map[string]float64, r Range) Series {
	points := make([]Point, 0, r.Days())
	r.EachDay(func(day time.Time) {
		key := DayKey(day)
		points = append(points, Point{Date: key, Value: byDay[key]})
	})
	return Series{Name: name, Points: points}
}

func seriesTotal(s Series) float64 {
	var total float64
	for _, p := range s.Points {
		total += p.Value
	}
	return total
}
