package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/export"
	"drafter/client/internal/model"
	"drafter/client/internal/service"
)

var (
	sendNew   bool
	sendRaw   bool
	sendWidth int
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a message and print the generated document",
	Long: `Send a message to the active session and wait for the reply. Without
arguments the message is read from stdin. Press Ctrl-C to stop the
generation; the text received so far is kept.`,
	Example: `  drafter send "Draft terms of service for a photo sharing app"
  drafter send --new < brief.txt`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendNew, "new", false, "start a new session first")
	sendCmd.Flags().BoolVar(&sendRaw, "raw", false, "print Markdown instead of rendering it")
	sendCmd.Flags().IntVarP(&sendWidth, "width", "w", 100, "wrap width for rendered output")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	message, err := readMessage(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	if sendNew {
		if _, err := drafter.Sessions.NewSession(ctx); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
	} else {
		// A missing session is created by the turn itself.
		drafter.Resume(ctx)
	}

	turn, err := drafter.Chat.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if turn == nil {
		return fmt.Errorf("message is empty")
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, theme.hintStyle().Render("Generating... (Ctrl-C to stop)"))

	waitOrAbort(turn)

	if err := printDocument(cmd.OutOrStdout(), turn.Document(), sendRaw, sendWidth); err != nil {
		return err
	}

	switch turn.State() {
	case model.TurnAborted:
		fmt.Fprintln(errOut, theme.hintStyle().Render("Generation stopped."))
		return nil
	case model.TurnFailed:
		if errors.Is(turn.Err(), app_errors.ErrSessionUnavailable) {
			return fmt.Errorf("could not start a session: %w", turn.Err())
		}
		return fmt.Errorf("generation failed: %w", turn.Err())
	}
	fmt.Fprintf(errOut, "%s session %s\n", theme.successStyle().Render("Done."), turn.SessionID())
	return nil
}

// waitOrAbort blocks until the turn ends. Ctrl-C aborts it.
func waitOrAbort(turn *service.Turn) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-turn.Done():
	case <-interrupt:
		turn.Abort()
		<-turn.Done()
	}
}

func readMessage(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	return string(raw), nil
}

func printDocument(w io.Writer, document string, raw bool, width int) error {
	if document == "" {
		return nil
	}
	if raw {
		_, err := fmt.Fprintln(w, document)
		return err
	}
	rendered, err := export.RenderTerminal(document, width)
	if err != nil {
		// Fall back to the Markdown source.
		_, err = fmt.Fprintln(w, document)
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}
