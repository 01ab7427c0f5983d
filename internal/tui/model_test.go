package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"

	"github.com/mweers/mweers.github.io/internal/layout"
	"github.com/mweers/mweers.github.io/internal/steps"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func makeDays(counts ...int) []steps.Day {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	days := make([]steps.Day, len(counts))
	for i, n := range counts {
		days[i] = steps.Day{Date: start.AddDate(0, 0, i), Steps: n}
	}
	return days
}

func newReadyModel(opts Options, w, h int) *Model {
	m := NewModel(opts)
	m.introDone = true
	m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func plainView(m *Model) string {
	return stripansi.Strip(m.View())
}

func TestView_BeforeSize(t *testing.T) {
	t.Parallel()

	m := NewModel(Options{Source: "steps.csv", Days: makeDays(1000)})
	if got := m.View(); got != "loading...\n" {
		t.Fatalf("unexpected view before first size: %q", got)
	}
}

func TestView_GridTooltipLegendStats(t *testing.T) {
	t.Parallel()

	m := newReadyModel(Options{
		Source: "steps.csv",
		Days:   makeDays(4000, 5000, 5001, 12345, 100000, 150000),
		Goal:   10000,
	}, 80, 30)

	if m.rows != 1 || m.cols != 6 || m.cell != 3 {
		t.Fatalf("unexpected grid: rows=%d cols=%d cell=%d", m.rows, m.cols, m.cell)
	}

	out := plainView(m)
	for _, want := range []string{
		"source steps.csv",
		"6 days",
		"2024-01-01 to 2024-01-06",
		"Date: 2024-01-01",
		"Steps: 4,000",
		"0-5,000",
		"95,001+",
		"total 276,346",
		"max 150,000 2024-01-06",
		"min 4,000 2024-01-01",
		"[    ]",
		"r reload",
		"q quit",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("view is missing %q:\n%s", want, out)
		}
	}
}

func TestCursorMovement_Fit(t *testing.T) {
	t.Parallel()

	counts := make([]int, 30)
	for i := range counts {
		counts[i] = i * 1000
	}
	m := newReadyModel(Options{Source: "steps.csv", Days: makeDays(counts...)}, 80, 30)
	if m.rows < 2 {
		t.Fatalf("expected several rows, got %d", m.rows)
	}

	m.Update(keyPress("right"))
	if m.cursor != 1 {
		t.Fatalf("right: cursor=%d want 1", m.cursor)
	}
	m.Update(keyPress("j"))
	if m.cursor != 1+m.cols {
		t.Fatalf("down: cursor=%d want %d", m.cursor, 1+m.cols)
	}
	m.Update(keyPress("w"))
	m.Update(keyPress("a"))
	m.Update(keyPress("h"))
	if m.cursor != 0 {
		t.Fatalf("cursor should clamp at 0, got %d", m.cursor)
	}
	m.Update(keyPress("G"))
	if m.cursor != 29 {
		t.Fatalf("G: cursor=%d want 29", m.cursor)
	}
	m.Update(keyPress("l"))
	if m.cursor != 29 {
		t.Fatalf("cursor should clamp at the last day, got %d", m.cursor)
	}
	if out := plainView(m); !strings.Contains(out, "Date: 2024-01-30") || !strings.Contains(out, "Steps: 29,000") {
		t.Fatalf("tooltip does not follow the cursor:\n%s", out)
	}
	m.Update(keyPress("g"))
	if m.cursor != 0 {
		t.Fatalf("g: cursor=%d want 0", m.cursor)
	}
}

func TestCursorMovement_Calendar(t *testing.T) {
	t.Parallel()

	m := newReadyModel(Options{
		Source: "steps.csv",
		Days:   makeDays(1, 2, 3, 4, 5, 6),
		Mode:   layout.ModeCalendar,
	}, 80, 30)

	if m.rows != 7 || m.cols != 1 {
		t.Fatalf("unexpected calendar: rows=%d cols=%d", m.rows, m.cols)
	}
	if r, c := m.cursorPos(); r != 1 || c != 0 {
		t.Fatalf("monday should be row 1, got (%d,%d)", r, c)
	}
	m.Update(keyPress("down"))
	if m.cursor != 1 {
		t.Fatalf("down: cursor=%d want 1", m.cursor)
	}
	m.Update(keyPress("right"))
	if m.cursor != 5 {
		t.Fatalf("right jumps a week and clamps: cursor=%d want 5", m.cursor)
	}
}

func TestResize_Debounced(t *testing.T) {
	t.Parallel()

	m := newReadyModel(Options{Source: "steps.csv", Days: makeDays(1, 2, 3)}, 80, 30)
	before := m.gridH

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	if cmd == nil {
		t.Fatalf("expected a debounce command")
	}
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})

	m.Update(resizeMsg{gen: 1})
	if m.gridH != before {
		t.Fatalf("stale resize should be ignored, gridH %d -> %d", before, m.gridH)
	}
	m.Update(resizeMsg{gen: 2})
	if m.gridH == before {
		t.Fatalf("latest resize should rebuild the grid")
	}
}

func TestIntro_RevealsColumns(t *testing.T) {
	t.Parallel()

	m := NewModel(Options{Source: "steps.csv", Days: makeDays(1, 2, 3, 4, 5, 6)})
	_, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	if cmd == nil || !m.introActive {
		t.Fatalf("expected the intro to start on first size")
	}
	if out := plainView(m); !strings.Contains(out, "starting...") {
		t.Fatalf("expected intro info line:\n%s", out)
	}

	m.Update(keyPress("right"))
	if m.cursor != 0 {
		t.Fatalf("keys should be ignored during the intro")
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100 && m.introActive; i++ {
		m.Update(tickMsg(now))
		now = now.Add(50 * time.Millisecond)
	}
	if m.introActive || m.introVisibleCols != m.cols {
		t.Fatalf("intro should finish: active=%v visible=%d cols=%d", m.introActive, m.introVisibleCols, m.cols)
	}

	// Only once per launch.
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m.Update(resizeMsg{gen: m.resizeGen})
	if m.introActive {
		t.Fatalf("intro should not run again")
	}
}

func TestErrorOverlay(t *testing.T) {
	t.Parallel()

	m := newReadyModel(Options{Source: "steps.csv", Err: errors.New("boom")}, 120, 40)
	out := plainView(m)
	for _, want := range []string{
		"Error Loading Data",
		"boom",
		"Please check that:",
		"- The CSV format is correct (Date,Steps)",
		"press r to retry, q to quit",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("overlay is missing %q:\n%s", want, out)
		}
	}
}

func TestErrorOverlay_WrapsLongMessage(t *testing.T) {
	t.Parallel()

	msg := "HTTP error! status: 404 while fetching https://example.com/d/steps.csv"
	m := newReadyModel(Options{Source: "steps.csv", Err: errors.New(msg)}, 40, 60)
	out := plainView(m)
	for _, want := range []string{"HTTP error! status: 404", "https://example.com/d/steps.csv"} {
		if !strings.Contains(out, want) {
			t.Fatalf("overlay lost %q:\n%s", want, out)
		}
	}
}

func TestNoDataOverlay(t *testing.T) {
	t.Parallel()

	m := newReadyModel(Options{Source: "empty.csv"}, 120, 40)
	out := plainView(m)
	if !strings.Contains(out, "NO DATA") || !strings.Contains(out, "source: empty.csv") {
		t.Fatalf("expected no-data overlay:\n%s", out)
	}
}

func TestReload(t *testing.T) {
	t.Parallel()

	calls := 0
	reload := func(ctx context.Context) ([]steps.Day, error) {
		calls++
		if calls == 1 {
			return makeDays(7000, 8000), nil
		}
		return nil, errors.New("gone")
	}
	m := newReadyModel(Options{Source: "steps.csv", Days: makeDays(1000), Reload: reload}, 80, 30)

	_, cmd := m.Update(keyPress("r"))
	if cmd == nil || !m.loading {
		t.Fatalf("expected a reload command")
	}
	if _, again := m.Update(keyPress("r")); again != nil {
		t.Fatalf("reload should not start twice")
	}
	m.Update(cmd())
	if m.loading || len(m.days) != 2 || m.summary.Total != 15000 {
		t.Fatalf("unexpected state after reload: loading=%v days=%d total=%d", m.loading, len(m.days), m.summary.Total)
	}

	_, cmd = m.Update(keyPress("r"))
	m.Update(cmd())
	if out := plainView(m); !strings.Contains(out, "gone") {
		t.Fatalf("expected error overlay after failed reload:\n%s", out)
	}
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := NewModel(Options{})
	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestQuit_CtrlC(t *testing.T) {
	t.Parallel()

	m := NewModel(Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
