package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leishu/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search HTTP API",
		Long: `Start the HTTP API over the configured corpus store.

The server stops on SIGINT or SIGTERM and waits for in-flight requests up to
server.shutdown_timeout.`,
		Example: `  leishu serve --addr :8080
  leishu serve --target-type mysql --config /etc/leishu/leishu.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cc.Logger.Info("corpus store opened", "type", cc.Cfg.Target.Type, "dialect", cc.Store.Dialect().Name)
	return api.NewServer(cc.Search, cc.Logger, cc.Cfg.Server).Serve(ctx)
}
