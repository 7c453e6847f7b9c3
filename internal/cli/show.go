package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"drafter/client/internal/export"
)

var (
	showRaw   bool
	showWidth int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current document of the active session",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print Markdown instead of rendering it")
	showCmd.Flags().IntVarP(&showWidth, "width", "w", 100, "wrap width for rendered output")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := resume(cmd.Context())
	if err != nil {
		return err
	}
	document, ok := drafter.Conversation.CurrentDocument()
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), theme.hintStyle().Render("Session "+id+" has no document yet."))
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), theme.titleStyle().Render(export.DocumentTitle(document)))
	return printDocument(cmd.OutOrStdout(), document, showRaw, showWidth)
}
