package analytics

import (
	"reflect"
	"testing"
)

func TestCalcStreaks_Empty(t *testing.T) {
	t.Parallel()

	got := CalcStreaks(nil, day(t, "2024-06-15"))
	want := StreakSummary{}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CalcStreaks(nil) = %+v, want %+v", got, want)
	}
}

func TestCalcStreaks_CurrentWalk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		daily map[string]float64
		today string
		want  StreakSummary
	}{
		{
			name: "unbroken run ending today",
			daily: map[string]float64{
				"2024-06-13": 30,
				"2024-06-14": 25,
				"2024-06-15": 50,
			},
			today: "2024-06-15",
			want:  StreakSummary{Current: 3, Longest: 3, TotalActiveDays: 3},
		},
		{
			name: "inactive today is skipped, not a break",
			daily: map[string]float64{
				"2024-06-13": 30,
				"2024-06-14": 25,
				"2024-06-15": 0,
			},
			today: "2024-06-15",
			want:  StreakSummary{Current: 2, Longest: 2, TotalActiveDays: 2},
		},
		{
			name: "gap before yesterday breaks the walk",
			daily: map[string]float64{
				"2024-06-11": 40,
				"2024-06-12": 0,
				"2024-06-14": 25,
				"2024-06-15": 30,
			},
			today: "2024-06-15",
			want:  StreakSummary{Current: 2, Longest: 2, TotalActiveDays: 3},
		},
		{
			name: "threshold is strict: exactly one minute is inactive",
			daily: map[string]float64{
				"2024-06-14": 1,
				"2024-06-15": 1.5,
			},
			today: "2024-06-15",
			want:  StreakSummary{Current: 1, Longest: 1, TotalActiveDays: 1},
		},
		{
			name: "single inactive day after active history",
			daily: map[string]float64{
				"2024-01-01": 30,
				"2024-01-02": 0,
			},
			today: "2024-01-02",
			want:  StreakSummary{Current: 1, Longest: 1, TotalActiveDays: 1},
		},
		{
			name: "longest run exceeds current",
			daily: map[string]float64{
				"2024-06-01": 20,
				"2024-06-02": 20,
				"2024-06-03": 20,
				"2024-06-04": 20,
				"2024-06-05": 0,
				"2024-06-14": 25,
				"2024-06-15": 30,
			},
			today: "2024-06-15",
			want:  StreakSummary{Current: 2, Longest: 4, TotalActiveDays: 6},
		},
		{
			name: "future days are never active",
			daily: map[string]float64{
				"2024-06-15": 30,
				"2024-06-16": 90,
				"2024-06-17": 90,
			},
			today: "2024-06-15",
			want:  StreakSummary{Current: 1, Longest: 1, TotalActiveDays: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CalcStreaks(tt.daily, day(t, tt.today))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CalcStreaks() = %+v, want %+v", got, tt.want)
			}
			if got.Current > got.Longest {
				t.Errorf("Current (%d) must never exceed Longest (%d)", got.Current, got.Longest)
			}
		})
	}
}

func TestCalcStreaks_Idempotent(t *testing.T) {
	t.Parallel()

	daily := map[string]float64{
		"2024-06-13": 30,
		"2024-06-14": 0,
		"2024-06-15": 25,
	}
	today := day(t, "2024-06-15")

	first := CalcStreaks(daily, today)
	second := CalcStreaks(daily, today)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated computation diverged: %+v vs %+v", first, second)
	}
}
