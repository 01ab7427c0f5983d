package cmd

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mweers/mweers.github.io/internal/tui"
)

// defaultRunTUI runs the grid until the user quits and reports the load error
// still on screen at that point, if any.
func defaultRunTUI(opts tui.Options) error {
	p := tea.NewProgram(
		tui.NewModel(opts),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return &programError{err: err}
	}
	if m, ok := final.(*tui.Model); ok {
		return m.Err()
	}
	return nil
}

// programError is a failure of the terminal program itself, not of the data.
type programError struct {
	err error
}

func (e *programError) Error() string { return "run tui: " + e.err.Error() }

func (e *programError) Unwrap() error { return e.err }
