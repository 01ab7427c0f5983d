package tui

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mweers/mweers.github.io/internal/layout"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/stats"
	"github.com/mweers/mweers.github.io/internal/steps"
)

// ReloadFunc loads the days again from the same source and date range.
type ReloadFunc func(ctx context.Context) ([]steps.Day, error)

type Options struct {
	Source  string
	Days    []steps.Day
	Palette mapping.Palette
	Mode    string // layout.ModeFit or layout.ModeCalendar
	Goal    int

	// Err is shown instead of the grid (the initial load failed).
	Err    error
	Reload ReloadFunc
}

const (
	// A terminal cell is about twice as tall as it is wide, so one square is
	// two columns by one line.
	cellW = 2

	maxCellSize    = 3
	resizeDebounce = 250 * time.Millisecond
)

type Model struct {
	source  string
	days    []steps.Day
	palette mapping.Palette
	mode    string
	goal    int
	summary stats.Summary
	err     error
	reload  ReloadFunc
	loading bool

	ready     bool
	w         int
	h         int
	resizeGen int

	rows   int
	cols   int
	cell   int // square size in units (cell*cellW columns by cell lines)
	cal    mapping.CalendarGrid
	gridH  int // terminal lines available to the grid
	legend []string

	cursor int
	offset int // first visible grid row

	viewBuf bytes.Buffer
	help    help.Model

	// Cached strings/buffers to reduce per-frame allocations.
	cellCache     [][2]string // [band]{plain, cursor}
	blank         string
	overlayCanvas canvasBuf

	// Startup intro animation: reveal grid columns from left to right.
	lastTick         time.Time
	introActive      bool
	introTotalCols   int
	introVisibleCols int
	introAcc         float64 // seconds accumulated toward next column
	introStep        float64 // seconds per column
	introDone        bool    // only run once per app launch
}

func NewModel(opts Options) *Model {
	if len(opts.Palette.Bands) == 0 {
		opts.Palette = mapping.DefaultPalette()
	}
	if opts.Mode == "" {
		opts.Mode = layout.ModeFit
	}
	return &Model{
		source:  opts.Source,
		days:    opts.Days,
		palette: opts.Palette,
		mode:    opts.Mode,
		goal:    opts.Goal,
		summary: stats.Summarize(opts.Days, opts.Goal),
		err:     opts.Err,
		reload:  opts.Reload,
		help:    newHelp(),
	}
}

type tickMsg time.Time

type resizeMsg struct{ gen int }

type loadedMsg struct {
	days []steps.Day
	err  error
}

func tickCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		d = time.Second / 60
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w = msg.Width
		m.h = msg.Height
		// First paint happens right away; later resizes settle first.
		if !m.ready {
			return m, m.rebuild()
		}
		m.resizeGen++
		gen := m.resizeGen
		return m, tea.Tick(resizeDebounce, func(time.Time) tea.Msg { return resizeMsg{gen: gen} })
	case resizeMsg:
		if msg.gen != m.resizeGen {
			return m, nil
		}
		return m, m.rebuild()
	case tickMsg:
		if !m.introActive {
			return m, nil
		}
		now := time.Time(msg)
		if m.lastTick.IsZero() {
			m.lastTick = now
			return m, tickCmd(time.Second / 60)
		}
		// Clamp to avoid a jump when the app lags.
		dt := min(max(now.Sub(m.lastTick).Seconds(), 0), 0.05)
		m.lastTick = now
		m.updateIntro(dt)
		if m.introActive {
			return m, tickCmd(time.Second / 60)
		}
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.days = msg.days
			m.summary = stats.Summarize(m.days, m.goal)
			m.cursor = min(m.cursor, max(len(m.days)-1, 0))
		}
		if !m.ready {
			return m, nil
		}
		return m, m.rebuild()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Reload):
		if m.reload == nil || m.loading {
			return nil
		}
		m.loading = true
		reload := m.reload
		return func() tea.Msg {
			days, err := reload(context.Background())
			return loadedMsg{days: days, err: err}
		}
	}

	if !m.ready || m.introActive || m.err != nil || len(m.days) == 0 {
		return nil
	}
	// Calendar rows are weekdays, so horizontal moves jump a week.
	stepX, stepY := 1, max(m.cols, 1)
	if m.mode == layout.ModeCalendar {
		stepX, stepY = 7, 1
	}
	switch {
	case key.Matches(msg, keys.Left):
		m.moveCursor(-stepX)
	case key.Matches(msg, keys.Right):
		m.moveCursor(stepX)
	case key.Matches(msg, keys.Up):
		m.moveCursor(-stepY)
	case key.Matches(msg, keys.Down):
		m.moveCursor(stepY)
	case key.Matches(msg, keys.First):
		m.cursor = 0
	case key.Matches(msg, keys.Last):
		m.cursor = len(m.days) - 1
	}
	m.scrollToCursor()
	return nil
}

func (m *Model) moveCursor(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), len(m.days)-1)
}

func (m *Model) rebuild() tea.Cmd {
	m.ready = true

	availW := max(m.w-2, cellW)
	units := availW / cellW
	m.legend = renderLegend(m.palette, availW)
	m.help.Width = availW

	// header + info + blank + legend + stats + help
	m.gridH = max(m.h-5-len(m.legend), 1)

	if m.mode == layout.ModeCalendar {
		m.cal = mapping.BuildCalendar(m.days, m.palette, units)
		m.rows, m.cols = m.cal.Rows, m.cal.Cols
		m.cell = 1
		if m.cols > 0 {
			m.cell = min(max(min(units/m.cols, m.gridH/m.rows), 1), maxCellSize)
		}
	} else {
		g := layout.Fit(len(m.days), layout.Container{
			Width:   units,
			Height:  m.gridH,
			MinCell: 1,
			MaxCell: maxCellSize,
		})
		m.rows, m.cols, m.cell = g.Rows, g.Cols, g.Cell
	}

	m.buildCellCache()
	m.overlayCanvas.Reset()
	m.scrollToCursor()
	return m.startIntro()
}

func (m *Model) buildCellCache() {
	k := max(m.cell, 1)
	width := k * cellW
	m.blank = strings.Repeat(" ", width)
	cursorText := "[" + strings.Repeat(" ", width-2) + "]"

	m.cellCache = make([][2]string, len(m.palette.Bands)+1)
	m.cellCache[0] = [2]string{m.blank, m.blank}
	for _, b := range m.palette.Bands {
		st := lipgloss.NewStyle().Background(lipgloss.Color(b.Color))
		m.cellCache[b.Index] = [2]string{
			st.Render(m.blank),
			st.Bold(true).Foreground(lipgloss.Color(cursorColor)).Render(cursorText),
		}
	}
}

func (m *Model) startIntro() tea.Cmd {
	if m.introActive {
		m.introTotalCols = m.cols
		m.introVisibleCols = min(m.introVisibleCols, m.cols)
		return nil
	}
	if m.introDone {
		return nil
	}
	if m.err != nil || len(m.days) == 0 || m.cols == 0 {
		m.introDone = true
		return nil
	}
	// Target ~1.1s total, clamped per-column.
	step := min(max(1.1/float64(m.cols), 0.01), 0.08)
	m.introActive = true
	m.introTotalCols = m.cols
	m.introVisibleCols = 0
	m.introAcc = 0
	m.introStep = step
	m.lastTick = time.Time{}
	return tickCmd(time.Second / 60)
}

func (m *Model) updateIntro(dt float64) {
	if !m.ready || !m.introActive {
		return
	}
	if m.introTotalCols <= 0 || m.introStep <= 0 {
		m.introActive = false
		m.introDone = true
		return
	}

	m.introAcc += dt
	for m.introAcc >= m.introStep && m.introVisibleCols < m.introTotalCols {
		m.introAcc -= m.introStep
		m.introVisibleCols++
	}
	if m.introVisibleCols >= m.introTotalCols {
		m.introVisibleCols = m.introTotalCols
		m.introActive = false
		m.introDone = true
	}
}

// dayAt returns the index of the day drawn at (row, col), or -1.
func (m *Model) dayAt(row, col int) int {
	if m.mode == layout.ModeCalendar {
		if row < 0 || row >= len(m.cal.Cells) || col < 0 || col >= len(m.cal.Cells[row]) {
			return -1
		}
		return m.cal.Cells[row][col].Day
	}
	i := row*m.cols + col
	if col < 0 || col >= m.cols || i < 0 || i >= len(m.days) {
		return -1
	}
	return i
}

// cursorPos returns the grid position of the selected day. In a compressed
// calendar the day may not be drawn at all, which yields (-1, -1).
func (m *Model) cursorPos() (row, col int) {
	if len(m.days) == 0 || m.cols == 0 {
		return -1, -1
	}
	if m.mode != layout.ModeCalendar {
		return m.cursor / m.cols, m.cursor % m.cols
	}
	for r := range m.cal.Cells {
		for c, cell := range m.cal.Cells[r] {
			if cell.Day == m.cursor {
				return r, c
			}
		}
	}
	return -1, -1
}

func (m *Model) visibleRows() int {
	return max(m.gridH/max(m.cell, 1), 1)
}

func (m *Model) scrollToCursor() {
	vis := m.visibleRows()
	if row, _ := m.cursorPos(); row >= 0 {
		if row < m.offset {
			m.offset = row
		}
		if row >= m.offset+vis {
			m.offset = row - vis + 1
		}
	}
	m.offset = max(min(m.offset, m.rows-vis), 0)
}

// Selected returns the day under the cursor.
func (m *Model) Selected() (steps.Day, bool) {
	if m.err != nil || m.cursor < 0 || m.cursor >= len(m.days) {
		return steps.Day{}, false
	}
	return m.days[m.cursor], true
}

// Err is the load error currently shown, if any.
func (m *Model) Err() error { return m.err }
