// Package analytics holds the derived-analytics computation layer: pure
// functions that transform task and session snapshots into streaks, heatmap
// grids, category rollups and chart-ready time series. Nothing in this
// package performs I/O or reads the clock; the reference day is always a
// parameter so results are deterministic and safely memoizable.
package analytics

import "time"

// DayKeyLayout is the calendar-date key format used across all aggregates.
// Keys are local-time dates at midnight.
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar-date key for a timestamp in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD key back into a midnight time value.
func ParseDay(key string) (time.Time, error) {
	return time.Parse(DayKeyLayout, key)
}

// ParseDayIn parses a YYYY-MM-DD key into a midnight in the given location.
func ParseDayIn(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// Midnight truncates a timestamp to midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Range is an inclusive calendar-date window.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range from two timestamps, truncated to midnight.
func NewRange(start, end time.Time) Range {
	return Range{Start: Midnight(start), End: Midnight(end)}
}

// TrailingRange returns the n-day window ending at (and including) today.
// n <= 0 yields an inverted, empty range.
func TrailingRange(today time.Time, n int) Range {
	end := Midnight(today)
	return Range{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// MonthsBackRange returns the window from the first day of the month n-1
// months before today's month through today.
func MonthsBackRange(today time.Time, n int) Range {
	end := Midnight(today)
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	return Range{Start: first.AddDate(0, -(n - 1), 0), End: end}
}

// YearRange returns the full calendar year window.
func YearRange(year int, loc *time.Location) Range {
	if loc == nil {
		loc = time.UTC
	}
	return Range{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, loc),
	}
}

// IsEmpty reports whether the range contains no days (inverted endpoints).
func (r Range) IsEmpty() bool {
	return r.End.Before(r.Start)
}

// Days returns the inclusive day count, zero for empty ranges. The
// subtraction is rounded because DST transitions make some days an hour
// short or long.
func (r Range) Days() int {
	if r.IsEmpty() {
		return 0
	}
	return int(r.End.Sub(r.Start).Round(24*time.Hour).Hours()/24) + 1
}

// Contains reports whether a timestamp's calendar day falls inside the
// range. The day is read in the timestamp's own location; convert the
// timestamp first when it is stored in a different zone than the range.
func (r Range) Contains(t time.Time) bool {
	return r.containsDay(DayKey(t))
}

// ContainsKey reports whether a YYYY-MM-DD key falls inside the range.
// Malformed keys are never contained.
func (r Range) ContainsKey(key string) bool {
	if _, err := ParseDay(key); err != nil {
		return false
	}
	return r.containsDay(key)
}

// containsDay compares calendar days as keys, so a range anchored in one
// location still contains the same calendar dates expressed in another.
// Lexicographic order matches date order for the YYYY-MM-DD layout.
func (r Range) containsDay(key string) bool {
	if r.IsEmpty() {
		return false
	}
	return key >= DayKey(r.Start) && key <= DayKey(r.End)
}

// EachDay visits every day in the range in ascending order. The visited
// values are midnight times in the range's location.
func (r Range) EachDay(fn func(day time.Time)) {
	if r.IsEmpty() {
		return
	}
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Keys returns every day key in the range in ascending order.
func (r Range) Keys() []string {
	keys := make([]string, 0, r.Days())
	r.EachDay(func(day time.Time) {
		keys = append(keys, DayKey(day))
	})
	return keys
}
