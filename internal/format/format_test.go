package format

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/steps"
)

func TestSteps(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		0:       "0",
		999:     "999",
		12345:   "12,345",
		1000000: "1,000,000",
		-4200:   "-4,200",
	}
	for in, want := range tests {
		if got := Steps(in); got != want {
			t.Fatalf("Steps(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTooltip(t *testing.T) {
	t.Parallel()

	d := steps.Day{Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Steps: 23456}
	want := []string{"Date: 2024-02-29", "Steps: 23,456"}
	if diff := cmp.Diff(want, Tooltip(d)); diff != "" {
		t.Fatalf("tooltip mismatch (-want +got):\n%s", diff)
	}
}

func TestBandLabel(t *testing.T) {
	t.Parallel()

	p := mapping.DefaultPalette()
	if got := BandLabel(p, 0); got != "0-5,000" {
		t.Fatalf("BandLabel(0) = %q", got)
	}
	if got := BandLabel(p, 1); got != "5,001-10,000" {
		t.Fatalf("BandLabel(1) = %q", got)
	}
	if got := BandLabel(p, 19); got != "95,001+" {
		t.Fatalf("BandLabel(19) = %q", got)
	}
}

func TestErrorReport(t *testing.T) {
	t.Parallel()

	r := ErrorReport(&steps.StatusError{Code: 404})
	if r.Title != "Error Loading Data" || r.Message != "HTTP error! status: 404" {
		t.Fatalf("unexpected report: %+v", r)
	}
	if len(r.Checks) != 3 {
		t.Fatalf("expected the three default checks, got %v", r.Checks)
	}

	r = ErrorReport(fmt.Errorf("parse steps.csv: %w", steps.ErrNoData))
	if r.Checks[0] != "The CSV format is correct (Date,Steps)" {
		t.Fatalf("expected CSV format check first, got %v", r.Checks)
	}
	if r.Message != "No data found in CSV file" {
		t.Fatalf("no-data message should not carry the wrap prefix, got %q", r.Message)
	}

	r = ErrorReport(&steps.AuthError{Message: "nope"})
	if len(r.Checks) != 4 {
		t.Fatalf("expected auth check to be added, got %v", r.Checks)
	}
}

func TestDate_Zero(t *testing.T) {
	t.Parallel()

	if got := Date(time.Time{}); got != "-" {
		t.Fatalf("Date(zero) = %q", got)
	}
}

func TestErrorReport_FromHTTPLoad(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken.csv":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		path string
		want string
	}{
		{path: "/steps.csv", want: "HTTP error! status: 404"},
		{path: "/broken.csv", want: "HTTP error! status: 500"},
	}
	for _, tt := range tests {
		_, err := steps.Load(context.Background(), srv.URL+tt.path)
		if err == nil {
			t.Fatalf("%s: expected error", tt.path)
		}
		if got := ErrorReport(err).Message; got != tt.want {
			t.Fatalf("%s: message = %q, want %q", tt.path, got, tt.want)
		}
	}
}
