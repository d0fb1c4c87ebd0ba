package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/overrides"
	"github.com/leapstack-labs/canvasql/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the canvasql HTTP API.

The server browses tables of the configured database, stores dataset
definitions in the local state store, previews datasets and runs
cancellable ad-hoc queries. The column override file is reloaded whenever
it changes.`,
		Example: `  canvasql serve
  canvasql serve --addr :9000 --columns ./columns.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			adp, err := cc.ConnectDatabase(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = adp.Close() }()

			src := overrides.New(cc.Cfg.ColumnsFile, cc.Logger)
			eng := cc.NewEngine(adp, store, src)

			srv := server.New(server.Config{
				Engine:          eng,
				Store:           store,
				Overrides:       src,
				Addr:            cc.Cfg.Server.Addr,
				ShutdownTimeout: cc.Cfg.Server.ShutdownTimeout,
				Logger:          cc.Logger,
			})
			return srv.Serve(ctx)
		},
	}
}
