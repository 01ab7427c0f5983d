package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mweers/mweers.github.io/internal/config"
	"github.com/mweers/mweers.github.io/internal/logging"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/server"
	"github.com/mweers/mweers.github.io/internal/steps"
	"github.com/mweers/mweers.github.io/internal/tui"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

type Deps struct {
	Load       func(ctx context.Context, source string) ([]steps.Day, error)
	Fetch      func(ctx context.Context, source string) ([]byte, error)
	RunTUI     func(opts tui.Options) error
	RunServer  func(ctx context.Context, srv *server.Server) error
	IsTerminal func(w io.Writer) bool
	Getenv     func(key string) string
	Now        func() time.Time
	Stdout     io.Writer
	Stderr     io.Writer
}

func DefaultDeps() Deps {
	return Deps{
		Load:       steps.Load,
		Fetch:      steps.Fetch,
		RunTUI:     defaultRunTUI,
		RunServer:  runServer,
		IsTerminal: isTerminal,
		Getenv:     os.Getenv,
		Now:        time.Now,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

type globalOptions struct {
	source     string
	configPath string
	fromStr    string
	toStr      string
	verbose    bool
}

// env is everything a subcommand needs after flags, config and env vars are merged.
type env struct {
	cfg     config.Config
	palette mapping.Palette
	from    *time.Time
	to      *time.Time
	log     *zap.Logger
}

func NewRootCmd(deps Deps) *cobra.Command {
	var g globalOptions

	c := &cobra.Command{
		Use:          "stepgrid",
		Short:        "Show a step-count history as a color-coded calendar grid",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.resolve(cmd, deps, !g.verbose)
			if err != nil {
				return err
			}
			err = run(cmd.Context(), deps, runOptions{
				Source:  e.cfg.Source,
				From:    e.from,
				To:      e.to,
				Palette: e.palette,
				Mode:    e.cfg.Layout.Mode,
				Goal:    e.cfg.Goal,
			}, e.log)
			if err != nil {
				printHint(deps.Stderr, err)
				return err
			}
			return nil
		},
	}

	pf := c.PersistentFlags()
	pf.StringVarP(&g.source, "source", "s", "", "steps CSV: a file path, an http(s) URL or gh:OWNER/REPO/PATH[@REF] (default \"steps.csv\")")
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (.toml, .yaml) (default \""+config.DefaultPath+"\" if present)")
	pf.StringVarP(&g.fromStr, "from", "f", "", "first date to include (YYYY-MM-DD)")
	pf.StringVarP(&g.toStr, "to", "t", "", "last date to include (YYYY-MM-DD)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging to stderr")

	c.AddCommand(newRenderCmd(deps, &g))
	c.AddCommand(newStatsCmd(deps, &g))
	c.AddCommand(newServeCmd(deps, &g))

	c.SetOut(deps.Stdout)
	c.SetErr(deps.Stderr)
	return c
}

// resolve merges defaults, the config file, STEPGRID_* env vars and flags, in
// that order. quiet swaps in a no-op logger (the TUI owns the terminal).
func (g *globalOptions) resolve(cmd *cobra.Command, deps Deps, quiet bool) (env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return env{}, err
	}
	cfg.ApplyEnv(deps.Getenv)
	if cmd.Flags().Changed("source") {
		cfg.Source = g.source
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return env{}, err
	}
	p, err := cfg.BuildPalette()
	if err != nil {
		return env{}, err
	}

	var from, to *time.Time
	if g.fromStr != "" {
		t, err := parseDateStartUTC(g.fromStr)
		if err != nil {
			return env{}, err
		}
		from = &t
	}
	if g.toStr != "" {
		t, err := parseDateEndUTC(g.toStr)
		if err != nil {
			return env{}, err
		}
		to = &t
	}
	if err := steps.ValidateRange(from, to); err != nil {
		return env{}, err
	}

	log := logging.Nop()
	if !quiet {
		log, err = logging.New(cfg.Log.Level, cfg.Log.JSON, deps.Stderr)
		if err != nil {
			return env{}, err
		}
	}
	log.Debug("config resolved",
		zap.String("source", cfg.Source),
		zap.String("layout", cfg.Layout.Mode),
		zap.Int("bands", len(p.Bands)),
	)
	return env{cfg: cfg, palette: p, from: from, to: to, log: log}, nil
}

func runServer(ctx context.Context, srv *server.Server) error {
	return srv.Run(ctx)
}

func printHint(w io.Writer, err error) {
	switch {
	case steps.IsAuth(err):
		fmt.Fprintln(w, "hint: ensure you're logged in: `gh auth login` (or set GH_TOKEN)")
	case steps.IsNotFound(err):
		fmt.Fprintln(w, "hint: check --source; it takes a file path, an http(s) URL or gh:OWNER/REPO/PATH[@REF]")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const dateLayout = steps.DateLayout

func parseDateStartUTC(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --from date %q (expected YYYY-MM-DD)", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseDateEndUTC(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --to date %q (expected YYYY-MM-DD)", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC), nil
}
