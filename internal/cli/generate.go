package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"drafter/client/internal/backend"
	"drafter/client/internal/model"
)

type generateOptions struct {
	company      string
	jurisdiction string
	tone         string
	raw          bool
	width        int
}

var generateOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Draft a document in one shot, outside any session",
	Long: `Draft a document from a single prompt. No session is created and the
active session is left untouched. Without arguments the prompt is read from
stdin. Press Ctrl-C to stop.`,
	Example: `  drafter generate "Terms of service for a cloud security SaaS" --jurisdiction "New York, USA"
  drafter generate --company "Acme Cloud" --tone formal < brief.txt`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateOpts.company, "company", "", "company name to draft for")
	generateCmd.Flags().StringVar(&generateOpts.jurisdiction, "jurisdiction", "", "governing jurisdiction")
	generateCmd.Flags().StringVar(&generateOpts.tone, "tone", "", "tone of the document")
	generateCmd.Flags().BoolVar(&generateOpts.raw, "raw", false, "print Markdown instead of rendering it")
	generateCmd.Flags().IntVarP(&generateOpts.width, "width", "w", 100, "wrap width for rendered output")
}

func generateRequest(prompt string, opts generateOptions) backend.GenerateRequest {
	return backend.GenerateRequest{
		Prompt:       prompt,
		CompanyName:  opts.company,
		Jurisdiction: opts.jurisdiction,
		Tone:         opts.tone,
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt, err := readMessage(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	turn, err := drafter.Chat.Generate(cmd.Context(), generateRequest(prompt, generateOpts))
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if turn == nil {
		return fmt.Errorf("prompt is empty")
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, theme.hintStyle().Render("Drafting... (Ctrl-C to stop)"))
	waitOrAbort(turn)

	if err := printDocument(cmd.OutOrStdout(), turn.Document(), generateOpts.raw, generateOpts.width); err != nil {
		return err
	}

	switch turn.State() {
	case model.TurnAborted:
		fmt.Fprintln(errOut, theme.hintStyle().Render("Drafting stopped."))
		return nil
	case model.TurnFailed:
		return fmt.Errorf("generation failed: %w", turn.Err())
	}
	fmt.Fprintln(errOut, theme.successStyle().Render("Done."))
	return nil
}
