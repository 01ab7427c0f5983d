package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/steps"
	"github.com/mweers/mweers.github.io/internal/tui"
)

type runOptions struct {
	Source  string
	From    *time.Time
	To      *time.Time
	Palette mapping.Palette
	Mode    string
	Goal    int
}

// run loads the days and hands them to the TUI. A failed load still opens the
// TUI (it shows the error and can retry); if the error is still there when the
// user quits, it is returned.
func run(ctx context.Context, deps Deps, opts runOptions, log *zap.Logger) error {
	if deps.Load == nil {
		return fmt.Errorf("deps.Load is nil")
	}
	if deps.RunTUI == nil {
		return fmt.Errorf("deps.RunTUI is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	load := func(ctx context.Context) ([]steps.Day, error) {
		return loadDays(ctx, deps.Load, opts.Source, opts.From, opts.To)
	}

	days, err := load(ctx)
	if err != nil {
		log.Warn("load failed", zap.String("source", opts.Source), zap.Error(err))
	} else {
		log.Debug("loaded", zap.String("source", opts.Source), zap.Int("days", len(days)))
	}

	err = deps.RunTUI(tui.Options{
		Source:  opts.Source,
		Days:    days,
		Palette: opts.Palette,
		Mode:    opts.Mode,
		Goal:    opts.Goal,
		Err:     err,
		Reload:  load,
	})
	if err != nil {
		var pe *programError
		if errors.As(err, &pe) {
			return err
		}
		return fmt.Errorf("failed to load steps: %w", err)
	}
	return nil
}

func loadDays(ctx context.Context, load func(context.Context, string) ([]steps.Day, error), source string, from, to *time.Time) ([]steps.Day, error) {
	days, err := load(ctx, source)
	if err != nil {
		return nil, err
	}
	return steps.Filter(days, from, to), nil
}
