package page

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/mweers/mweers.github.io/internal/format"
	"github.com/mweers/mweers.github.io/internal/layout"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/steps"
)

// Cell is one rendered day square.
type Cell struct {
	X, Y, Size int
	Band       int
	Date       string
	Steps      string
	Raw        int
}

// GridData is everything the SVG grid template needs.
type GridData struct {
	Mode   string
	Width  int
	Height int
	Rows   int
	Cols   int
	Cell   int
	Cells  []Cell
}

// BuildGrid positions one square per day inside the container.
func BuildGrid(days []steps.Day, p mapping.Palette, mode string, c layout.Container) GridData {
	if mode == layout.ModeCalendar {
		return buildCalendarGrid(days, p, c)
	}

	g := layout.Fit(len(days), c)
	w, h := g.Size(c.Gap)
	out := GridData{Mode: layout.ModeFit, Width: w, Height: h, Rows: g.Rows, Cols: g.Cols, Cell: g.Cell}
	out.Cells = make([]Cell, 0, len(days))
	for i, d := range days {
		r, col := g.Position(i)
		out.Cells = append(out.Cells, newCell(d, p, col*(g.Cell+c.Gap), r*(g.Cell+c.Gap), g.Cell))
	}
	return out
}

func buildCalendarGrid(days []steps.Day, p mapping.Palette, c layout.Container) GridData {
	// Each week column needs at least MinCell (or 1) plus a gap.
	minCell := max(c.MinCell, 1)
	maxCols := max((c.Width+c.Gap)/(minCell+c.Gap), 1)
	cal := mapping.BuildCalendar(days, p, maxCols)
	if cal.Cols == 0 {
		return GridData{Mode: layout.ModeCalendar, Rows: cal.Rows}
	}

	cell := (c.Width - (cal.Cols-1)*c.Gap) / cal.Cols
	if c.Height > 0 {
		cell = min(cell, (c.Height-(cal.Rows-1)*c.Gap)/cal.Rows)
	}
	if c.MaxCell > 0 {
		cell = min(cell, c.MaxCell)
	}
	cell = max(cell, minCell)

	g := layout.Grid{Rows: cal.Rows, Cols: cal.Cols, Cell: cell}
	w, h := g.Size(c.Gap)
	out := GridData{Mode: layout.ModeCalendar, Width: w, Height: h, Rows: g.Rows, Cols: g.Cols, Cell: cell}
	for r := range cal.Cells {
		for col, cc := range cal.Cells[r] {
			if cc.Day < 0 {
				continue
			}
			out.Cells = append(out.Cells, newCell(days[cc.Day], p, col*(cell+c.Gap), r*(cell+c.Gap), cell))
		}
	}
	return out
}

func newCell(d steps.Day, p mapping.Palette, x, y, size int) Cell {
	return Cell{
		X:     x,
		Y:     y,
		Size:  size,
		Band:  p.BandFor(d.Steps).Index,
		Date:  format.Date(d.Date),
		Steps: format.Steps(d.Steps),
		Raw:   d.Steps,
	}
}

// PaletteCSS declares one custom property per band on :root and a class per
// band that fills with it. Colors come from mapping.NewPalette, which only
// produces #rrggbb values.
func PaletteCSS(p mapping.Palette) template.CSS {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, band := range p.Bands {
		fmt.Fprintf(&b, "  %s: %s;\n", band.Var, band.Color)
	}
	b.WriteString("}\n")
	for _, band := range p.Bands {
		fmt.Fprintf(&b, ".b%d { fill: var(%s); background-color: var(%s); }\n", band.Index, band.Var, band.Var)
	}
	return template.CSS(b.String())
}
