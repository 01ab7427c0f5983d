package mapping

import (
	"time"

	"github.com/mweers/mweers.github.io/internal/steps"
)

// CalendarCell is one (weekday, week) slot. Day is the index into the source
// slice of the day shown in this slot, or -1 when the slot is empty.
type CalendarCell struct {
	Steps int
	Band  int // 1-based band index, 0 for empty slots
	Day   int
}

// CalendarGrid is a 7(row: weekday 0..6) x N(col: week) grid.
// Rows use time.Weekday numbering (0=Sunday..6=Saturday).
type CalendarGrid struct {
	Rows     int
	Cols     int
	MaxSteps int
	Start    time.Time        // Sunday of the first week
	Cells    [][]CalendarCell // [row][col]
}

func weekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// BuildCalendar lays days out like a contribution calendar: one column per
// week, one row per weekday.
//
// For terminal constraints, weeks are compressed into up to maxCols columns by
// grouping weeks and keeping the day with the MAX steps per weekday within each group.
func BuildCalendar(days []steps.Day, p Palette, maxCols int) CalendarGrid {
	if maxCols <= 0 {
		maxCols = 1
	}
	if len(days) == 0 {
		return CalendarGrid{Rows: 7, Cols: 0, Cells: make([][]CalendarCell, 7)}
	}

	first, last := days[0].Date, days[0].Date
	for _, d := range days[1:] {
		if d.Date.Before(first) {
			first = d.Date
		}
		if d.Date.After(last) {
			last = d.Date
		}
	}
	start := weekStart(first)
	weeks := int(weekStart(last).Sub(start).Hours()/24)/7 + 1

	cols := weeks
	if cols > maxCols {
		cols = maxCols
	}

	cells := make([][]CalendarCell, 7)
	for r := 0; r < 7; r++ {
		cells[r] = make([]CalendarCell, cols)
		for c := range cells[r] {
			cells[r][c].Day = -1
		}
	}

	// Evenly distribute week indices into [0..cols-1].
	maxSteps := 0
	for i, d := range days {
		wi := int(weekStart(d.Date).Sub(start).Hours()/24) / 7
		col := (wi * cols) / weeks
		r := int(d.Date.Weekday())
		cell := &cells[r][col]
		if cell.Day < 0 || d.Steps > cell.Steps {
			cell.Steps = d.Steps
			cell.Day = i
			cell.Band = p.BandFor(d.Steps).Index
		}
		if d.Steps > maxSteps {
			maxSteps = d.Steps
		}
	}

	return CalendarGrid{
		Rows:     7,
		Cols:     cols,
		MaxSteps: maxSteps,
		Start:    start,
		Cells:    cells,
	}
}
