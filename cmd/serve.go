package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mweers/mweers.github.io/internal/server"
)

func newServeCmd(deps Deps, g *globalOptions) *cobra.Command {
	var addr string
	var noWatch bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the steps page locally and reload it when the CSV changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.resolve(cmd, deps, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			if cmd.Flags().Changed("addr") {
				e.cfg.Server.Addr = addr
			}
			if noWatch {
				e.cfg.Server.Watch = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := server.NewStore(server.StoreOptions{
				Source: e.cfg.Source,
				From:   e.from,
				To:     e.to,
				Goal:   e.cfg.Goal,
				Fetch:  deps.Fetch,
				Now:    deps.Now,
			})
			// The page reports load errors itself, so keep serving.
			if err := store.Reload(ctx); err != nil {
				e.log.Warn("initial load failed", zap.String("source", e.cfg.Source), zap.Error(err))
				printHint(deps.Stderr, err)
			}

			srv := server.New(e.cfg, store, e.log)
			if deps.RunServer == nil {
				return srv.Run(ctx)
			}
			return deps.RunServer(ctx, srv)
		},
	}
	c.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, \"127.0.0.1:8080\")")
	c.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the CSV file changes")
	return c
}
