package analytics

import (
	"math"
	"time"
)

// HeatmapLevels is the number of color-intensity tiers, including the zero
// tier for empty days.
const HeatmapLevels = 5

// WindowKind selects how a heatmap window is anchored.
type WindowKind string

const (
	// WindowMonthsBack covers from the first of the month N-1 months ago
	// through today.
	WindowMonthsBack WindowKind = "months"
	// WindowTrailingDays covers the N days ending today.
	WindowTrailingDays WindowKind = "trailing"
	// WindowCalendarYear covers one full calendar year.
	WindowCalendarYear WindowKind = "year"
)

// Window describes a heatmap window request.
type Window struct {
	Kind WindowKind
	N    int // months back, trailing days, or the year depending on Kind
}

// HeatmapCell is one day in the grid. Cells with Pad set are leading blanks
// inserted so the first real day aligns to its weekday column; they carry no
// date or value.
type HeatmapCell struct {
	Date      string  `json:"date,omitempty"`
	Value     float64 `json:"value"`
	Level     int     `json:"level"`
	IsFuture  bool    `json:"is_future"`
	IsToday   bool    `json:"is_today"`
	HasMarker bool    `json:"has_marker"`
	Pad       bool    `json:"pad,omitempty"`
}

// Resolve materializes the window into a date range relative to today.
func (w Window) Resolve(today time.Time) Range {
	switch w.Kind {
	case WindowMonthsBack:
		return MonthsBackRange(today, w.N)
	case WindowTrailingDays:
		return TrailingRange(today, w.N)
	case WindowCalendarYear:
		return YearRange(w.N, today.Location())
	default:
		return TrailingRange(today, w.N)
	}
}

// BuildHeatmap produces the day-cell grid for a window. daily maps day keys
// to focus minutes; markers holds day keys carrying a secondary event (for
// example a project completed that day). Days outside the window never
// appear, even when the source map has data for them. Intensity levels are
// bucketed against the maximum value observed inside the window.
func BuildHeatmap(daily map[string]float64, window Window, today time.Time, markers map[string]bool) []HeatmapCell {
	r := window.Resolve(today)
	if r.IsEmpty() {
		return []HeatmapCell{}
	}

	max := observedMax(daily, r)
	todayKey := DayKey(Midnight(today))

	cells := make([]HeatmapCell, 0, r.Days()+6)

	// Leading padding so the first real day lands in its weekday column.
	for i := 0; i < int(r.Start.Weekday()); i++ {
		cells = append(cells, HeatmapCell{Pad: true})
	}

	r.EachDay(func(day time.Time) {
		key := DayKey(day)
		value := clampValue(daily[key])
		cell := HeatmapCell{
			Date:      key,
			Value:     value,
			IsToday:   key == todayKey,
			IsFuture:  key > todayKey,
			HasMarker: markers[key],
		}
		if !cell.IsFuture {
			cell.Level = intensityLevel(value, max)
		}
		cells = append(cells, cell)
	})

	return cells
}

// observedMax finds the largest in-window value.
func observedMax(daily map[string]float64, r Range) float64 {
	var max float64
	for key, v := range daily {
		if !r.ContainsKey(key) {
			continue
		}
		if cv := clampValue(v); cv > max {
			max = cv
		}
	}
	return max
}

// intensityLevel discretizes value/max into the fixed tier count. Zero
// values land in tier 0; any positive value lands in at least tier 1.
func intensityLevel(value, max float64) int {
	if value <= 0 || max <= 0 {
		return 0
	}
	level := int(value / max * float64(HeatmapLevels-1))
	if level < 1 {
		level = 1
	}
	if level > HeatmapLevels-1 {
		level = HeatmapLevels - 1
	}
	return level
}

func clampValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
