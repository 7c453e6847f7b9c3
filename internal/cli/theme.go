package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"drafter/client/internal/model"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Accent  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var theme = Theme{
	Accent:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// printSessions writes one line per session, newest first, marking the
// active one.
func printSessions(w io.Writer, sessions []model.Session, activeID string, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, theme.hintStyle().Render("No sessions yet. Start one with \"drafter new\"."))
		return
	}

	fmt.Fprintf(w, "Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		marker := "  "
		title := s.DisplayTitle()
		if s.ID == activeID {
			marker = theme.successStyle().Render("* ")
			title = theme.titleStyle().Render(title)
		}

		var details []string
		if !s.CreatedAt.IsZero() {
			details = append(details, humanize.RelTime(s.CreatedAt, now, "ago", "from now"))
		}
		if s.LastDocument != "" {
			details = append(details, humanize.Bytes(uint64(len(s.LastDocument))))
		}

		line := marker + title + "  " + theme.hintStyle().Render(s.ID)
		if len(details) > 0 {
			line += "  " + theme.hintStyle().Render("("+strings.Join(details, ", ")+")")
		}
		fmt.Fprintln(w, line)
	}
}
