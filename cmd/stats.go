package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mweers/mweers.github.io/internal/format"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/stats"
)

func newStatsCmd(deps Deps, g *globalOptions) *cobra.Command {
	var noLegend bool

	c := &cobra.Command{
		Use:   "stats",
		Short: "Print summary statistics and the color legend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.resolve(cmd, deps, false)
			if err != nil {
				return err
			}
			days, err := loadDays(cmd.Context(), deps.Load, e.cfg.Source, e.from, e.to)
			if err != nil {
				printHint(deps.Stderr, err)
				return fmt.Errorf("failed to load steps: %w", err)
			}

			styled := deps.IsTerminal != nil && deps.IsTerminal(deps.Stdout)
			var p *mapping.Palette
			if !noLegend {
				p = &e.palette
			}
			writeStats(deps.Stdout, stats.Summarize(days, e.cfg.Goal), p, styled)
			return nil
		},
	}
	c.Flags().BoolVar(&noLegend, "no-legend", false, "omit the color legend")
	return c
}

var (
	styleStatLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	styleStatValue = lipgloss.NewStyle().Bold(true)
	styleStatDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// writeStats prints one "label value" row per statistic, then the legend when
// p is non-nil. styled adds colors and real swatches for terminals.
func writeStats(w io.Writer, s stats.Summary, p *mapping.Palette, styled bool) {
	label := func(v string) string { return fmt.Sprintf("%-8s", v) }
	value := func(v string) string { return v }
	dim := func(v string) string { return v }
	if styled {
		label = func(v string) string { return styleStatLabel.Render(fmt.Sprintf("%-8s", v)) }
		value = func(v string) string { return styleStatValue.Render(v) }
		dim = func(v string) string { return styleStatDim.Render(v) }
	}
	row := func(l, v, extra string) {
		line := label(l) + " " + value(v)
		if extra != "" {
			line += " " + dim(extra)
		}
		fmt.Fprintln(w, line)
	}

	span := ""
	if s.Days > 0 {
		span = "(" + format.Date(s.First) + " to " + format.Date(s.Last) + ")"
	}
	row("days", format.Steps(s.Days), span)
	row("total", format.Steps(int(s.Total)), "")
	row("average", format.Mean(s.Mean), "")
	row("max", format.Steps(s.Max), "("+format.Date(s.MaxDate)+")")
	row("min", format.Steps(s.Min), "("+format.Date(s.MinDate)+")")
	if s.Goal > 0 {
		row("goal", format.Steps(s.GoalDays)+" days >= "+format.Steps(s.Goal), fmt.Sprintf("(longest run %d)", s.GoalStreak))
	}

	if p == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, label("legend"))
	for i, b := range p.Bands {
		swatch := b.Color
		if styled {
			swatch = lipgloss.NewStyle().Background(lipgloss.Color(b.Color)).Render("  ")
		}
		fmt.Fprintf(w, "  %2d %s %s\n", b.Index, swatch, format.BandLabel(*p, i))
	}
}
