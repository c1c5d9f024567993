package analytics

import (
	"testing"
	"time"
)

func realCells(cells []HeatmapCell) []HeatmapCell {
	out := make([]HeatmapCell, 0, len(cells))
	for _, c := range cells {
		if !c.Pad {
			out = append(out, c)
		}
	}
	return out
}

func TestBuildHeatmap_TrailingWindow(t *testing.T) {
	t.Parallel()

	today := day(t, "2024-06-15")
	daily := map[string]float64{
		"2024-06-10": 100,
		"2024-06-12": 50,
		"2024-06-15": 25,
		"2024-05-01": 500, // outside the window, must not appear or skew max
	}

	cells := BuildHeatmap(daily, Window{Kind: WindowTrailingDays, N: 7}, today, nil)
	real := realCells(cells)

	if len(real) != 7 {
		t.Fatalf("Expected 7 day cells, got %d", len(real))
	}
	if real[0].Date != "2024-06-09" || real[6].Date != "2024-06-15" {
		t.Errorf("Window bounds wrong: %s .. %s", real[0].Date, real[6].Date)
	}
	for _, c := range real {
		if c.Date == "2024-05-01" {
			t.Error("Out-of-window day leaked into the grid")
		}
	}

	// 2024-06-10 holds the in-window max and must land in the top tier.
	for _, c := range real {
		switch c.Date {
		case "2024-06-10":
			if c.Level != HeatmapLevels-1 {
				t.Errorf("Max-value day level = %d, want %d", c.Level, HeatmapLevels-1)
			}
		case "2024-06-11":
			if c.Level != 0 || c.Value != 0 {
				t.Errorf("Empty day should be zero-filled tier 0, got level=%d value=%v", c.Level, c.Value)
			}
		case "2024-06-15":
			if !c.IsToday {
				t.Error("Today flag missing")
			}
			if c.Level < 1 {
				t.Error("Positive value must land in at least tier 1")
			}
		}
		if c.IsFuture {
			t.Errorf("No day in a trailing window ending today can be future: %s", c.Date)
		}
	}
}

func TestBuildHeatmap_WeekdayPadding(t *testing.T) {
	t.Parallel()

	// 2024-06-01 is a Saturday: expect six leading pad cells.
	today := day(t, "2024-06-15")
	cells := BuildHeatmap(nil, Window{Kind: WindowMonthsBack, N: 1}, today, nil)

	pads := 0
	for _, c := range cells {
		if !c.Pad {
			break
		}
		pads++
	}
	if pads != int(time.Saturday) {
		t.Errorf("Leading pad cells = %d, want %d", pads, int(time.Saturday))
	}
	real := realCells(cells)
	if len(real) != 15 {
		t.Errorf("Expected 15 day cells for 1-month window ending mid-month, got %d", len(real))
	}
}

func TestBuildHeatmap_CalendarYearFutureDays(t *testing.T) {
	t.Parallel()

	today := day(t, "2024-06-15")
	daily := map[string]float64{"2024-06-14": 60}
	cells := BuildHeatmap(daily, Window{Kind: WindowCalendarYear, N: 2024}, today, nil)
	real := realCells(cells)

	if len(real) != 366 {
		t.Fatalf("Expected 366 day cells, got %d", len(real))
	}
	for _, c := range real {
		future := c.Date > "2024-06-15"
		if c.IsFuture != future {
			t.Errorf("IsFuture(%s) = %v, want %v", c.Date, c.IsFuture, future)
		}
		if c.IsFuture && c.Level != 0 {
			t.Errorf("Future day %s must not carry an intensity tier", c.Date)
		}
	}
}

func TestBuildHeatmap_Markers(t *testing.T) {
	t.Parallel()

	today := day(t, "2024-06-15")
	markers := map[string]bool{"2024-06-12": true}
	cells := BuildHeatmap(nil, Window{Kind: WindowTrailingDays, N: 7}, today, markers)

	found := false
	for _, c := range realCells(cells) {
		if c.Date == "2024-06-12" {
			found = c.HasMarker
		} else if c.HasMarker {
			t.Errorf("Unexpected marker on %s", c.Date)
		}
	}
	if !found {
		t.Error("Marker day not flagged")
	}
}

func TestBuildHeatmap_EmptyWindow(t *testing.T) {
	t.Parallel()

	cells := BuildHeatmap(map[string]float64{"2024-06-15": 30}, Window{Kind: WindowTrailingDays, N: 0}, day(t, "2024-06-15"), nil)
	if len(cells) != 0 {
		t.Errorf("Expected empty grid for zero-day window, got %d cells", len(cells))
	}
}

func TestIntensityLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value float64
		max   float64
		want  int
	}{
		{"zero value", 0, 100, 0},
		{"zero max", 50, 0, 0},
		{"tiny positive rounds up to tier one", 1, 100, 1},
		{"half", 50, 100, 2},
		{"max", 100, 100, HeatmapLevels - 1},
		{"above max clamps", 150, 100, HeatmapLevels - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := intensityLevel(tt.value, tt.max); got != tt.want {
				t.Errorf("intensityLevel(%v, %v) = %d, want %d", tt.value, tt.max, got, tt.want)
			}
		})
	}
}
