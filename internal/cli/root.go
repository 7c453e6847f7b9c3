// Package cli provides the command-line interface for drafter.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"drafter/client/internal/app"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	backendURL string
	logLevel   string

	drafter *app.App
	cleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "drafter",
	Short: "Client for the AI document-drafting service",
	Long: `Drafter talks to an AI drafting backend: start a session, describe the
document you need, and the reply streams in as an evolving Markdown document.

Run "drafter serve" for the local view API, or use the commands below
directly from the terminal.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip wiring for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		drafter, cleanup, err = app.Bootstrap()
		if err != nil {
			return fmt.Errorf("start drafter: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if cleanup != nil {
			cleanup()
		}
		fmt.Fprintln(os.Stderr, theme.errorStyle().Render("Error: "+err.Error()))
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "drafting service base URL (env BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (env LOG_LEVEL)")
	_ = viper.BindPFlag("BACKEND_URL", rootCmd.PersistentFlags().Lookup("backend-url"))
	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
}

// resume restores the last active session for commands that act on it.
func resume(ctx context.Context) (string, error) {
	drafter.Resume(ctx)
	id := drafter.Sessions.ActiveID()
	if id == "" {
		return "", fmt.Errorf("no active session, run \"drafter new\" or \"drafter use <id>\" first")
	}
	return id, nil
}
