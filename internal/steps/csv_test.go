package steps

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func day(s string, n int) Day {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return Day{Date: t, Steps: n}
}

func TestParse(t *testing.T) {
	t.Parallel()

	in := "Date,Steps\n2024-01-02,12345\n2024-01-01,800\n\n2024-01-03,10000.6\n"
	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := []Day{
		day("2024-01-02", 12345),
		day("2024-01-01", 800),
		day("2024-01-03", 10001),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("days mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_HeaderOrderAndCase(t *testing.T) {
	t.Parallel()

	in := "\ufeffsteps, note ,DATE\n4200,rainy,2023-05-06\n"
	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if diff := cmp.Diff([]Day{day("2023-05-06", 4200)}, got); diff != "" {
		t.Fatalf("days mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoData(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "Date,Steps\n", "Date,Steps\n\n\n"} {
		if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrNoData) {
			t.Fatalf("input %q: expected ErrNoData, got %v", in, err)
		}
	}
}

func TestParse_BadRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		line   int
		column string
	}{
		{name: "bad date", in: "Date,Steps\n2024-01-01,1\n01/02/2024,2\n", line: 3, column: "Date"},
		{name: "bad steps", in: "Date,Steps\n2024-01-01,lots\n", line: 2, column: "Steps"},
		{name: "nan steps", in: "Date,Steps\n2024-01-01,NaN\n", line: 2, column: "Steps"},
		{name: "short row", in: "Date,Steps\n2024-01-01\n", line: 2},
		{name: "missing header", in: "Day,Count\n2024-01-01,1\n", line: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.in))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tt.line || pe.Column != tt.column {
				t.Fatalf("got line=%d column=%q, want line=%d column=%q", pe.Line, pe.Column, tt.line, tt.column)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	days := []Day{day("2024-01-01", 1), day("2024-01-02", 2), day("2024-01-03", 3)}
	from := days[1].Date
	to := days[1].Date

	if diff := cmp.Diff(days[1:2], Filter(days, &from, &to)); diff != "" {
		t.Fatalf("inclusive filter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(days[1:], Filter(days, &from, nil)); diff != "" {
		t.Fatalf("open-ended filter mismatch (-want +got):\n%s", diff)
	}
	if got := Filter(days, nil, nil); len(got) != 3 {
		t.Fatalf("expected all days without bounds, got %d", len(got))
	}
}

func TestValidateRange(t *testing.T) {
	t.Parallel()

	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 0, 1)
	if err := ValidateRange(&a, &b); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := ValidateRange(&b, &a); err == nil {
		t.Fatalf("expected error for from after to")
	}
	if err := ValidateRange(nil, &a); err != nil {
		t.Fatalf("expected nil error for open range, got %v", err)
	}
}
