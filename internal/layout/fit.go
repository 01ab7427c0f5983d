// Package layout computes the square grid that best fills a container.
package layout

// Grid arrangements understood by the renderers.
const (
	ModeFit      = "fit"      // row-major, square-fitted to the container
	ModeCalendar = "calendar" // one column per week, one row per weekday
)

// Container describes the space available for the grid. Units are whatever
// the caller renders in (pixels for the page, terminal cells for the TUI).
type Container struct {
	Width  int
	Height int // <= 0 means unbounded (the grid may grow downwards)
	Gap    int

	// Optional clamps for the cell size. Zero disables a clamp.
	MinCell int
	MaxCell int
}

// Grid is the result of Fit.
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	Cell int `json:"cell"`
}

// Slots is the number of positions in the grid.
func (g Grid) Slots() int { return g.Rows * g.Cols }

// Position returns the row-major (row, col) of the i-th item.
func (g Grid) Position(i int) (row, col int) {
	if g.Cols <= 0 {
		return 0, 0
	}
	return i / g.Cols, i % g.Cols
}

// Size returns the total extent of the grid for the given gap.
func (g Grid) Size(gap int) (w, h int) {
	if g.Rows == 0 || g.Cols == 0 {
		return 0, 0
	}
	w = g.Cols*g.Cell + (g.Cols-1)*gap
	h = g.Rows*g.Cell + (g.Rows-1)*gap
	return w, h
}

// Fit chooses the column count whose squares are the largest that still fit
// the container, for n items laid out row-major.
//
// On equal cell size the layout with fewer empty trailing slots wins, then the
// one with more columns.
func Fit(n int, c Container) Grid {
	if n <= 0 {
		return Grid{}
	}
	if c.Gap < 0 {
		c.Gap = 0
	}
	if c.Height <= 0 {
		return fitWidth(n, c)
	}

	best := Grid{}
	bestWaste := 0
	for cols := 1; cols <= n; cols++ {
		rows := ceilDiv(n, cols)
		cw := floorDiv(c.Width-(cols-1)*c.Gap, cols)
		ch := floorDiv(c.Height-(rows-1)*c.Gap, rows)
		cell := min(cw, ch)
		if c.MaxCell > 0 && cell > c.MaxCell {
			cell = c.MaxCell
		}
		waste := rows*cols - n

		switch {
		case best.Cols == 0,
			cell > best.Cell,
			cell == best.Cell && waste < bestWaste,
			cell == best.Cell && waste == bestWaste && cols > best.Cols:
			best = Grid{Rows: rows, Cols: cols, Cell: cell}
			bestWaste = waste
		}
		// Past this point the width only shrinks the cell further.
		if cw < 1 && best.Cell >= 1 {
			break
		}
	}

	best.Cell = clampCell(best.Cell, c)
	return best
}

// fitWidth handles an unbounded height: use the widest cell allowed and as many
// columns as fit at that size.
func fitWidth(n int, c Container) Grid {
	cell := c.MaxCell
	if cell <= 0 || cell > c.Width {
		cell = c.Width
	}
	cell = clampCell(cell, c)

	cols := 1
	if cell+c.Gap > 0 {
		cols = max((c.Width+c.Gap)/(cell+c.Gap), 1)
	}
	cols = min(cols, n)
	return Grid{Rows: ceilDiv(n, cols), Cols: cols, Cell: cell}
}

func clampCell(cell int, c Container) int {
	if c.MaxCell > 0 && cell > c.MaxCell {
		cell = c.MaxCell
	}
	if c.MinCell > 0 && cell < c.MinCell {
		cell = c.MinCell
	}
	if cell < 0 {
		cell = 0
	}
	return cell
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// floorDiv rounds towards negative infinity so that an over-full axis never
// reports a positive cell.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
