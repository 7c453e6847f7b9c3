package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"drafter/client/internal/model"
)

var (
	exportFormat string
	exportCopy   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save the current document to a file or the clipboard",
	Example: `  drafter export
  drafter export --format html
  drafter export --copy`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", model.FormatMarkdown, "md or html")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "copy the Markdown source to the clipboard instead")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if exportFormat != model.FormatMarkdown && exportFormat != model.FormatHTML {
		return fmt.Errorf("unknown format %q, want md or html", exportFormat)
	}

	id, err := resume(ctx)
	if err != nil {
		return err
	}
	document, ok := drafter.Conversation.CurrentDocument()
	if !ok {
		return fmt.Errorf("session %s has no document to export", id)
	}

	if exportCopy {
		drafter.Exporter.Copy(ctx, document)
		fmt.Fprintln(cmd.OutOrStdout(), theme.successStyle().Render("Copied to clipboard."))
		return nil
	}

	var download *model.Download
	if exportFormat == model.FormatHTML {
		download, err = drafter.Exporter.DownloadRendered(ctx, id, document)
	} else {
		download, err = drafter.Exporter.DownloadSource(ctx, id, document)
	}
	if err != nil {
		return fmt.Errorf("export document: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.successStyle().Render("Saved"), download.Path)
	return nil
}
