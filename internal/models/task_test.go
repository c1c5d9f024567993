package models

import (
	"math"
	"reflect"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "math", "math"},
		{"trims whitespace", "  Math ", "math"},
		{"mixed case", "DeepWork", "deepwork"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTag(tt.in); got != tt.want {
				t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTags_DropsDuplicatesAndEmpties(t *testing.T) {
	t.Parallel()

	got := NormalizeTags([]string{"Math", " math ", "", "physics", "MATH"})
	want := []string{"math", "physics"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags() = %v, want %v", got, want)
	}
}

func TestDisplayTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"math", "Math"},
		{" deep work ", "Deep work"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DisplayTag(tt.in); got != tt.want {
			t.Errorf("DisplayTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTask_IsStopwatch(t *testing.T) {
	t.Parallel()

	task := &Task{TotalPoms: StopwatchPoms}
	if !task.IsStopwatch() {
		t.Error("Expected sentinel estimate to mark a stopwatch task")
	}

	task = &Task{TotalPoms: 4}
	if task.IsStopwatch() {
		t.Error("Expected fixed estimate to not mark a stopwatch task")
	}
}

func TestClampPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{1, 1},
		{4, 4},
		{0, DefaultPriority},
		{5, DefaultPriority},
		{-7, DefaultPriority},
	}

	for _, tt := range tests {
		if got := ClampPriority(tt.in); got != tt.want {
			t.Errorf("ClampPriority(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCoerceMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"positive", 25, 25},
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"nan", math.NaN(), 0},
		{"positive inf", math.Inf(1), 0},
		{"negative inf", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CoerceMinutes(tt.in); got != tt.want {
				t.Errorf("CoerceMinutes(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
