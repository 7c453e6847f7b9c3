package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local view API and event stream",
	Long: `Serve exposes the active conversation over a local HTTP API
(/api/v1/...) and pushes every state change to websocket subscribers on
/api/v1/events.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		drafter.Resume(ctx)
		return drafter.Serve(ctx)
	},
}
