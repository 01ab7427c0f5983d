package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mweers/mweers.github.io/internal/format"
	"github.com/mweers/mweers.github.io/internal/page"
	"github.com/mweers/mweers.github.io/internal/stats"
)

func newRenderCmd(deps Deps, g *globalOptions) *cobra.Command {
	var out string
	var title string

	c := &cobra.Command{
		Use:   "render",
		Short: "Write the steps page as a self-contained HTML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.resolve(cmd, deps, false)
			if err != nil {
				return err
			}

			days, loadErr := loadDays(cmd.Context(), deps.Load, e.cfg.Source, e.from, e.to)

			var buf bytes.Buffer
			if loadErr != nil {
				err = page.RenderError(&buf, format.ErrorReport(loadErr))
			} else {
				err = page.Render(&buf, page.Data{
					Title:     title,
					Source:    e.cfg.Source,
					Palette:   e.palette,
					Summary:   stats.Summarize(days, e.cfg.Goal),
					Grid:      page.BuildGrid(days, e.palette, e.cfg.Layout.Mode, e.cfg.Container()),
					FadeInMs:  e.cfg.Tooltip.FadeInMs,
					FadeOutMs: e.cfg.Tooltip.FadeOutMs,
					Generated: deps.Now(),
				})
			}
			if err != nil {
				return fmt.Errorf("failed to render page: %w", err)
			}

			if out == "" || out == "-" {
				if _, err := buf.WriteTo(deps.Stdout); err != nil {
					return err
				}
			} else {
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				e.log.Info("wrote page", zap.String("path", out), zap.Int("days", len(days)))
			}

			if loadErr != nil {
				printHint(deps.Stderr, loadErr)
				return fmt.Errorf("failed to load steps: %w", loadErr)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	c.Flags().StringVar(&title, "title", "Steps", "page title")
	return c
}
