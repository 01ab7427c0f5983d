package tui

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mweers/mweers.github.io/internal/format"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/stats"
)

func (m *Model) View() string {
	if !m.ready {
		return "loading...\n"
	}

	m.viewBuf.Reset()
	b := &m.viewBuf

	header := renderHeader(m.source, m.summary)
	info := m.infoLine()
	statsLine := renderStats(m.summary)
	helpLine := m.help.View(keys)
	ov := m.overlay()

	contentW := m.cols * max(m.cell, 1) * cellW
	if ov != nil {
		contentW = 0
	}
	for _, s := range []string{header, info, statsLine, helpLine} {
		contentW = max(contentW, lipgloss.Width(s))
	}
	leftPad := ""
	if m.w > contentW {
		leftPad = strings.Repeat(" ", (m.w-contentW)/2)
	}

	gridLines := m.gridH
	if ov == nil {
		gridLines = min(m.rows-m.offset, m.visibleRows()) * max(m.cell, 1)
	}
	// header, info, grid, blank, legend, stats, help
	contentH := 2 + gridLines + 1 + len(m.legend) + 2
	for i := 0; i < (m.h-contentH)/2; i++ {
		b.WriteByte('\n')
	}

	writeLine := func(s string) {
		b.WriteString(leftPad)
		b.WriteString(s)
		b.WriteByte('\n')
	}

	writeLine(header)
	writeLine(info)
	if ov != nil {
		renderOverlayTo(b, ov, max(m.w, 1), m.gridH, &m.overlayCanvas)
	} else {
		m.renderGridTo(b, leftPad)
	}
	b.WriteByte('\n')
	for _, l := range m.legend {
		writeLine(l)
	}
	writeLine(statsLine)
	writeLine(helpLine)
	return b.String()
}

func (m *Model) infoLine() string {
	switch {
	case m.loading:
		return styleHudDim.Render("reloading...")
	case m.introActive:
		return styleHudDim.Render("starting...")
	}
	d, ok := m.Selected()
	if !ok {
		return ""
	}
	band := m.palette.BandFor(d.Steps)
	tip := format.Tooltip(d)
	return styleHudValue.Render(tip[0]) + hudSep +
		styleHudScore.Render(tip[1]) + hudSep +
		m.cellCache[band.Index][0] + " " + styleHudLabel.Render(format.BandLabel(m.palette, band.Index-1))
}

func (m *Model) renderGridTo(b *bytes.Buffer, leftPad string) {
	k := max(m.cell, 1)
	curRow, curCol := m.cursorPos()
	last := min(m.offset+m.visibleRows(), m.rows)

	for r := m.offset; r < last; r++ {
		for line := 0; line < k; line++ {
			b.WriteString(leftPad)
			for c := 0; c < m.cols; c++ {
				if m.introActive && c >= m.introVisibleCols {
					b.WriteString(m.blank)
					continue
				}
				i := m.dayAt(r, c)
				if i < 0 {
					b.WriteString(m.blank)
					continue
				}
				band := m.palette.BandFor(m.days[i].Steps).Index
				sel := 0
				if r == curRow && c == curCol {
					sel = 1
				}
				b.WriteString(m.cellCache[band][sel])
			}
			b.WriteByte('\n')
		}
	}
}

func (m *Model) overlay() *fieldOverlay {
	if m.err != nil {
		r := format.ErrorReport(m.err)
		lines := []string{r.Message, "", "Please check that:"}
		for _, c := range r.Checks {
			lines = append(lines, "- "+c)
		}
		return &fieldOverlay{Title: r.Title, Lines: lines, Footer: "press r to retry, q to quit"}
	}
	if len(m.days) == 0 {
		return &fieldOverlay{
			Title: "NO DATA",
			Lines: []string{
				"no days to show.",
				fmt.Sprintf("source: %s", m.source),
				"try a different file or date range.",
			},
			Footer: "press r to reload, q to quit",
		}
	}
	return nil
}

func renderHeader(source string, s stats.Summary) string {
	parts := []string{
		styleHudLabel.Render("source ") + styleHudValue.Render(source),
		styleHudValue.Render(format.Steps(s.Days)) + styleHudLabel.Render(" days"),
	}
	if s.Days > 0 {
		parts = append(parts, styleHudLabel.Render(format.Date(s.First)+" to "+format.Date(s.Last)))
	}
	return strings.Join(parts, hudSep)
}

func renderStats(s stats.Summary) string {
	if s.Days == 0 {
		return styleHudDim.Render("no stats")
	}
	stat := func(label, value string) string {
		return styleHudLabel.Render(label+" ") + styleHudValue.Render(value)
	}
	items := []string{
		stat("total", format.Steps(int(s.Total))),
		stat("avg", format.Mean(s.Mean)),
		stat("max", format.Steps(s.Max)) + styleHudDim.Render(" "+format.Date(s.MaxDate)),
		stat("min", format.Steps(s.Min)) + styleHudDim.Render(" "+format.Date(s.MinDate)),
	}
	if s.Goal > 0 {
		items = append(items, stat(">="+format.Steps(s.Goal), format.Steps(s.GoalDays)+" days")+
			styleHudDim.Render(fmt.Sprintf(" (best run %d)", s.GoalStreak)))
	}
	return strings.Join(items, hudSep)
}

// renderLegend wraps the band swatches and their ranges to width.
func renderLegend(p mapping.Palette, width int) []string {
	var lines []string
	var line strings.Builder
	lineW := 0
	for i, band := range p.Bands {
		item := lipgloss.NewStyle().Background(lipgloss.Color(band.Color)).Render("  ") +
			" " + styleHudLabel.Render(format.BandLabel(p, i))
		w := lipgloss.Width(item)
		if lineW > 0 && lineW+2+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineW = 0
		}
		if lineW > 0 {
			line.WriteString("  ")
			lineW += 2
		}
		line.WriteString(item)
		lineW += w
	}
	if lineW > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// ===== Render helpers (cached styles) =====

const cursorColor = "#ffffff"

var (
	styleHudLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	styleHudValue = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d0d7de"))
	styleHudScore = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd33d"))
	styleHudDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))

	hudSep = styleHudDim.Render("  |  ")
)

func newHelp() help.Model {
	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = styleHudLabel
	h.Styles.ShortDesc = styleHudDim
	h.Styles.ShortSeparator = styleHudDim
	h.Styles.Ellipsis = styleHudDim
	return h
}

type fieldOverlay struct {
	Title  string
	Lines  []string
	Footer string
}

type canvasBuf struct {
	w     int
	h     int
	cells []string // flat: y*w + x
}

func (c *canvasBuf) Reset() {
	c.w = 0
	c.h = 0
	c.cells = nil
}

func (c *canvasBuf) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		c.Reset()
		return
	}
	n := w * h
	if c.w == w && c.h == h && cap(c.cells) >= n {
		c.cells = c.cells[:n]
		return
	}
	c.w = w
	c.h = h
	c.cells = make([]string, n)
}

func (c *canvasBuf) Fill(cell string) {
	for i := range c.cells {
		c.cells[i] = cell
	}
}

func (c *canvasBuf) Set(x, y int, cell string) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell
}

func renderOverlayTo(out *bytes.Buffer, ov *fieldOverlay, w, h int, canvas *canvasBuf) {
	canvas.Resize(w, h)
	if canvas.w == 0 {
		return
	}
	canvas.Fill(" ")
	applyOverlay(canvas, ov)

	for y := 0; y < canvas.h; y++ {
		rowOff := y * canvas.w
		for x := 0; x < canvas.w; x++ {
			out.WriteString(canvas.cells[rowOff+x])
		}
		out.WriteByte('\n')
	}
}

func applyOverlay(canvas *canvasBuf, ov *fieldOverlay) {
	h := canvas.h
	w := canvas.w
	if h == 0 || w == 0 {
		return
	}

	innerW := max(utf8.RuneCountInString(ov.Title), utf8.RuneCountInString(ov.Footer))
	for _, l := range ov.Lines {
		innerW = max(innerW, utf8.RuneCountInString(l))
	}
	// 1 border + 1 padding on each side.
	innerW = min(innerW, max(w-4, 0))

	lines := make([][]rune, 0, 2+len(ov.Lines))
	if ov.Title != "" {
		lines = append(lines, []rune(ov.Title))
	}
	for _, l := range ov.Lines {
		if innerW == 0 || utf8.RuneCountInString(l) <= innerW {
			lines = append(lines, []rune(l))
			continue
		}
		for _, part := range strings.Split(ansi.Wrap(l, innerW, ""), "\n") {
			lines = append(lines, []rune(strings.TrimRight(part, " ")))
		}
	}
	if ov.Footer != "" {
		lines = append(lines, []rune(ov.Footer))
	}

	boxW := min(innerW+4, w)
	boxH := min(len(lines)+4, h)

	x0 := (w - boxW) / 2
	y0 := (h - boxH) / 2

	borderColor := "#30363d"
	titleColor := "#ff7b72"
	if strings.HasPrefix(ov.Title, "NO ") {
		borderColor = "#d29922"
		titleColor = "#d29922"
	}

	borderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(titleColor))
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#d0d7de"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	panelStyle := lipgloss.NewStyle().Background(lipgloss.Color("#161b22"))

	bgCell := panelStyle.Render(" ")
	for y := y0; y < y0+boxH; y++ {
		for x := x0; x < x0+boxW; x++ {
			canvas.Set(x, y, bgCell)
		}
	}

	hLine := borderStyle.Render("─")
	vLine := borderStyle.Render("│")
	for x := x0 + 1; x < x0+boxW-1; x++ {
		canvas.Set(x, y0, hLine)
		canvas.Set(x, y0+boxH-1, hLine)
	}
	for y := y0 + 1; y < y0+boxH-1; y++ {
		canvas.Set(x0, y, vLine)
		canvas.Set(x0+boxW-1, y, vLine)
	}
	canvas.Set(x0, y0, borderStyle.Render("╭"))
	canvas.Set(x0+boxW-1, y0, borderStyle.Render("╮"))
	canvas.Set(x0, y0+boxH-1, borderStyle.Render("╰"))
	canvas.Set(x0+boxW-1, y0+boxH-1, borderStyle.Render("╯"))

	tx0 := x0 + 2
	ty0 := y0 + 2
	for i, line := range lines {
		y := ty0 + i
		if y >= y0+boxH-2 {
			break
		}
		if len(line) > innerW {
			line = line[:innerW]
		}
		startX := tx0 + (innerW-len(line))/2

		var st lipgloss.Style
		switch {
		case i == 0 && ov.Title != "":
			st = titleStyle
		case i == len(lines)-1 && ov.Footer != "":
			st = helpStyle
		default:
			st = textStyle
		}
		for j, r := range line {
			canvas.Set(startX+j, y, panelStyle.Foreground(st.GetForeground()).Render(string(r)))
		}
	}
}
