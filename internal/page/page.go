// Package page renders the steps calendar as a self-contained HTML page.
package page

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/mweers/mweers.github.io/internal/format"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/stats"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"steps":     format.Steps,
	"steps64":   func(n int64) string { return format.Steps(int(n)) },
	"mean":      format.Mean,
	"date":      format.Date,
	"bandLabel": format.BandLabel,
}).ParseFS(templateFS, "templates/*.tmpl"))

// LegendItem is one swatch of the legend.
type LegendItem struct {
	Band  int    `json:"band"`
	Color string `json:"color"`
	Label string `json:"label"`
}

// Data is the full page model.
type Data struct {
	Title     string
	Source    string
	Palette   mapping.Palette
	Summary   stats.Summary
	Grid      GridData
	FadeInMs  int
	FadeOutMs int

	// Live enables re-fitting the grid through /grid.svg on resize (serve mode).
	Live      bool
	Generated time.Time
}

type pageView struct {
	Data
	CSS    template.CSS
	Legend []LegendItem
}

// Legend lists the bands in order with their count ranges.
func Legend(p mapping.Palette) []LegendItem {
	out := make([]LegendItem, len(p.Bands))
	for i, b := range p.Bands {
		out[i] = LegendItem{Band: b.Index, Color: b.Color, Label: format.BandLabel(p, i)}
	}
	return out
}

// Render writes the complete page.
func Render(w io.Writer, d Data) error {
	if d.Title == "" {
		d.Title = "Steps"
	}
	if d.Generated.IsZero() {
		d.Generated = time.Now()
	}
	return templates.ExecuteTemplate(w, "page.html.tmpl", pageView{
		Data:   d,
		CSS:    PaletteCSS(d.Palette),
		Legend: Legend(d.Palette),
	})
}

// RenderGrid writes only the SVG grid (used to re-fit after a resize).
func RenderGrid(w io.Writer, g GridData) error {
	return templates.ExecuteTemplate(w, "grid", g)
}

// RenderError writes the error page shown when the data could not be loaded.
func RenderError(w io.Writer, r format.Report) error {
	return templates.ExecuteTemplate(w, "error.html.tmpl", r)
}
