package analytics

import (
	"sort"
	"time"
)

// ActiveThresholdMinutes is the focus-minutes floor a day must exceed to
// count as active. The threshold is above zero so negligible or erroneous
// sessions do not extend a streak.
const ActiveThresholdMinutes = 1.0

// StreakSummary is the output of CalcStreaks.
type StreakSummary struct {
	Current         int `json:"current"`
	Longest         int `json:"longest"`
	TotalActiveDays int `json:"total_active_days"`
}

// IsActiveDay reports whether a day's focus minutes clear the threshold.
func IsActiveDay(minutes float64) bool {
	return minutes > ActiveThresholdMinutes
}

// CalcStreaks computes streak statistics from a map of day key to focus
// minutes. The walk for the current streak starts at today and moves
// backward; an inactive today does not break the streak (the session may
// simply not be logged yet), it is skipped and the walk continues from
// yesterday. Days after today are ignored entirely.
func CalcStreaks(daily map[string]float64, today time.Time) StreakSummary {
	var summary StreakSummary
	if len(daily) == 0 {
		return summary
	}

	todayMid := Midnight(today)
	todayKey := DayKey(todayMid)

	// Current streak: walk backward from today.
	day := todayMid
	if !IsActiveDay(daily[todayKey]) {
		day = day.AddDate(0, 0, -1)
	}
	for IsActiveDay(daily[DayKey(day)]) {
		summary.Current++
		day = day.AddDate(0, 0, -1)
	}

	// Longest streak and total active days: single forward pass over all
	// known dates in ascending order.
	keys := make([]string, 0, len(daily))
	for k := range daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	run := 0
	prev := ""
	for _, k := range keys {
		if k > todayKey {
			// Future days are never active.
			break
		}
		if !IsActiveDay(daily[k]) {
			run = 0
			prev = ""
			continue
		}
		summary.TotalActiveDays++
		if prev != "" && isNextDay(prev, k) {
			run++
		} else {
			run = 1
		}
		prev = k
		if run > summary.Longest {
			summary.Longest = run
		}
	}

	return summary
}

// isNextDay reports whether b is the calendar day immediately after a.
func isNextDay(a, b string) bool {
	da, err := ParseDay(a)
	if err != nil {
		return false
	}
	return DayKey(da.AddDate(0, 0, 1)) == b
}
