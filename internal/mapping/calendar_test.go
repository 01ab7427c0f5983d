package mapping

import (
	"testing"
	"time"

	"github.com/mweers/mweers.github.io/internal/steps"
)

func d(s string, n int) steps.Day {
	t, _ := time.Parse(steps.DateLayout, s)
	return steps.Day{Date: t, Steps: n}
}

func TestBuildCalendar(t *testing.T) {
	t.Parallel()

	// 2024-01-07 is a Sunday.
	days := []steps.Day{
		d("2024-01-07", 3000),
		d("2024-01-09", 12000),
		d("2024-01-14", 7000),
		d("2024-01-20", 26000),
	}
	g := BuildCalendar(days, DefaultPalette(), 52)

	if g.Rows != 7 || g.Cols != 2 {
		t.Fatalf("expected 7x2 grid, got %dx%d", g.Rows, g.Cols)
	}
	if g.MaxSteps != 26000 {
		t.Fatalf("expected max 26000, got %d", g.MaxSteps)
	}
	if !g.Start.Equal(days[0].Date) {
		t.Fatalf("expected start on first Sunday, got %v", g.Start)
	}

	tests := []struct {
		row, col, day, band int
	}{
		{row: 0, col: 0, day: 0, band: 1},
		{row: 2, col: 0, day: 1, band: 3},
		{row: 0, col: 1, day: 2, band: 2},
		{row: 6, col: 1, day: 3, band: 6},
		{row: 1, col: 0, day: -1, band: 0},
	}
	for _, tt := range tests {
		c := g.Cells[tt.row][tt.col]
		if c.Day != tt.day || c.Band != tt.band {
			t.Fatalf("cell[%d][%d] = %+v, want day=%d band=%d", tt.row, tt.col, c, tt.day, tt.band)
		}
	}
}

func TestBuildCalendar_CompressesWeeks(t *testing.T) {
	t.Parallel()

	var days []steps.Day
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		days = append(days, steps.Day{Date: start.AddDate(0, 0, 7*i), Steps: (i + 1) * 1000})
	}
	g := BuildCalendar(days, DefaultPalette(), 2)
	if g.Cols != 2 {
		t.Fatalf("expected 2 columns, got %d", g.Cols)
	}
	// Weeks 0,1 -> col 0 and weeks 2,3 -> col 1; the max day wins.
	if g.Cells[0][0].Day != 1 || g.Cells[0][1].Day != 3 {
		t.Fatalf("unexpected compression: %+v", g.Cells[0])
	}
}

func TestBuildCalendar_Empty(t *testing.T) {
	t.Parallel()

	g := BuildCalendar(nil, DefaultPalette(), 10)
	if g.Rows != 7 || g.Cols != 0 || len(g.Cells) != 7 {
		t.Fatalf("unexpected empty grid: %+v", g)
	}
}
