package steps

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format used by the CSV and by every rendered label.
const DateLayout = "2006-01-02"

// Day is a single row of the steps CSV.
type Day struct {
	Date  time.Time `json:"date"`
	Steps int       `json:"steps"`
}

// Parse reads a "Date,Steps" CSV. Columns are located by header name
// (case-insensitive) so extra columns and any column order are accepted.
// Rows keep their file order.
func Parse(r io.Reader) ([]Day, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	dateCol, stepsCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "date":
			dateCol = i
		case "steps":
			stepsCol = i
		}
	}
	if dateCol < 0 || stepsCol < 0 {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("header must contain Date and Steps columns, got %q", strings.Join(header, ","))}
	}

	var days []Day
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if dateCol >= len(rec) || stepsCol >= len(rec) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("expected at least %d fields, got %d", max(dateCol, stepsCol)+1, len(rec))}
		}

		rawDate := strings.TrimSpace(rec[dateCol])
		date, err := time.Parse(DateLayout, rawDate)
		if err != nil {
			return nil, &ParseError{Line: line, Column: "Date", Value: rawDate, Err: fmt.Errorf("expected YYYY-MM-DD")}
		}

		rawSteps := strings.TrimSpace(rec[stepsCol])
		steps, err := parseSteps(rawSteps)
		if err != nil {
			return nil, &ParseError{Line: line, Column: "Steps", Value: rawSteps, Err: err}
		}

		days = append(days, Day{Date: date, Steps: steps})
	}

	if len(days) == 0 {
		return nil, ErrNoData
	}
	return days, nil
}

func parseSteps(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a number")
	}
	return int(math.Round(f)), nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ValidateRange checks an optional inclusive date range.
func ValidateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("from must be <= to")
	}
	return nil
}

// Filter returns the days inside the inclusive [from, to] range.
// A nil bound leaves that side open.
func Filter(days []Day, from, to *time.Time) []Day {
	if from == nil && to == nil {
		return days
	}
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if from != nil && d.Date.Before(*from) {
			continue
		}
		if to != nil && d.Date.After(*to) {
			continue
		}
		out = append(out, d)
	}
	return out
}
