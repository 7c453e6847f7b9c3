package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ls"},
	Short:   "List sessions known to the backend",
	Args:    cobra.NoArgs,
	RunE:    runSessions,
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session and make it active",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

var useCmd = &cobra.Command{
	Use:   "use <session-id>",
	Short: "Make a session active",
	Args:  cobra.ExactArgs(1),
	RunE:  runUse,
}

var renameCmd = &cobra.Command{
	Use:   "rename <session-id> <title>",
	Short: "Rename a session",
	Example: `  drafter rename 3f2a "Acme terms of service"
  drafter rename 3f2a Acme privacy policy`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRename,
}

var clearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Clear the stored history of a session (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClear,
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := drafter.Sessions.Refresh(ctx); err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	activeID, err := drafter.Settings.LastSession(ctx)
	if err != nil {
		slog.Debug("No remembered session", "error", err)
	}

	printSessions(cmd.OutOrStdout(), drafter.Sessions.Sessions(), activeID, time.Now())
	return nil
}

func runNew(cmd *cobra.Command, args []string) error {
	id, err := drafter.Sessions.NewSession(cmd.Context())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.successStyle().Render("Started session"), id)
	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	if err := drafter.Sessions.Select(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("select session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d messages)\n",
		theme.successStyle().Render("Switched to"), args[0], len(drafter.Conversation.Messages()))
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	title := strings.Join(args[1:], " ")
	if err := drafter.Sessions.Rename(cmd.Context(), args[0], title); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.successStyle().Render("Renamed"), args[0])
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		var err error
		if id, err = resume(ctx); err != nil {
			return err
		}
	}
	if err := drafter.Sessions.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.successStyle().Render("Cleared"), id)
	return nil
}
