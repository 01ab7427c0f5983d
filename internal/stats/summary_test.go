package stats

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mweers/mweers.github.io/internal/steps"
)

func date(s string) time.Time {
	t, err := time.Parse(steps.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	days := []steps.Day{
		{Date: date("2024-01-02"), Steps: 12000},
		{Date: date("2024-01-01"), Steps: 3000},
		{Date: date("2024-01-03"), Steps: 15000},
		{Date: date("2024-01-04"), Steps: 15000},
		{Date: date("2024-01-05"), Steps: 3000},
		{Date: date("2024-01-06"), Steps: 10000},
	}

	got := Summarize(days, DefaultGoal)
	want := Summary{
		Days:       6,
		Total:      58000,
		Mean:       58000.0 / 6,
		Max:        15000,
		MaxDate:    date("2024-01-03"),
		Min:        3000,
		MinDate:    date("2024-01-01"),
		First:      date("2024-01-01"),
		Last:       date("2024-01-06"),
		Goal:       10000,
		GoalDays:   4,
		GoalStreak: 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	got := Summarize(nil, DefaultGoal)
	if diff := cmp.Diff(Summary{Goal: DefaultGoal}, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_NoGoal(t *testing.T) {
	t.Parallel()

	got := Summarize([]steps.Day{{Date: date("2024-01-01"), Steps: 50000}}, 0)
	if got.GoalDays != 0 || got.GoalStreak != 0 {
		t.Fatalf("expected goal counters disabled, got %+v", got)
	}
	if got.Mean != 50000 {
		t.Fatalf("expected mean 50000, got %v", got.Mean)
	}
}
