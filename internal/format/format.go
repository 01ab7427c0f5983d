// Package format holds the user-facing text shared by the page, the TUI and the CLI.
package format

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/steps"
)

var printer = message.NewPrinter(language.English)

// Steps formats a count with thousands separators (12,345).
func Steps(n int) string {
	return printer.Sprintf("%d", n)
}

// Mean formats an average count, rounded to a whole step.
func Mean(f float64) string {
	return printer.Sprintf("%.0f", f)
}

func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(steps.DateLayout)
}

// Tooltip returns the hover lines for a day.
func Tooltip(d steps.Day) []string {
	return []string{
		"Date: " + Date(d.Date),
		"Steps: " + Steps(d.Steps),
	}
}

// BandLabel describes the counts covered by the band at position i ("5,001-10,000", "95,001+").
func BandLabel(p mapping.Palette, i int) string {
	lo, hi, open := p.Range(i)
	if open {
		return Steps(lo) + "+"
	}
	return fmt.Sprintf("%s-%s", Steps(lo), Steps(hi))
}

// Report is the content of an error view.
type Report struct {
	Title   string
	Message string
	Checks  []string
}

var defaultChecks = []string{
	"The steps.csv file exists in the correct location",
	"The file is being served through a web server (not opened directly)",
	"The CSV format is correct (Date,Steps)",
}

// ErrorReport builds the error view for a failed load.
func ErrorReport(err error) Report {
	msg := "unknown error"
	switch {
	case errors.Is(err, steps.ErrNoData):
		msg = steps.ErrNoData.Error()
	case err != nil:
		msg = err.Error()
	}
	r := Report{
		Title:   "Error Loading Data",
		Message: msg,
		Checks:  defaultChecks,
	}
	if steps.IsAuth(err) {
		r.Checks = append([]string{"You are logged in to GitHub (`gh auth login`) or GH_TOKEN is set"}, defaultChecks...)
	}
	var pe *steps.ParseError
	if errors.As(err, &pe) || errors.Is(err, steps.ErrNoData) {
		r.Checks = []string{defaultChecks[2], defaultChecks[0]}
	}
	return r
}
