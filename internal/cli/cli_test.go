package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drafter/client/internal/model"
)

func TestRootCommands(t *testing.T) {
	for _, name := range []string{"serve", "sessions", "new", "use", "rename", "clear", "send", "generate", "show", "export"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"backend-url", "log-level"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Empty(t, flag.DefValue)
	}
}

func TestExportFormatDefault(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "md", flag.DefValue)
	assert.Equal(t, "f", flag.Shorthand)
}

func TestGenerateFlags(t *testing.T) {
	for _, name := range []string{"company", "jurisdiction", "tone"} {
		flag := generateCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Empty(t, flag.DefValue)
	}
	flag := generateCmd.Flags().Lookup("width")
	require.NotNil(t, flag)
	assert.Equal(t, "100", flag.DefValue)
}

func TestGenerateRequest(t *testing.T) {
	req := generateRequest("Terms for a bakery", generateOptions{
		company:      "Crumbs Ltd",
		jurisdiction: "England and Wales",
	})
	assert.Equal(t, "Terms for a bakery", req.Prompt)
	assert.Equal(t, "Crumbs Ltd", req.CompanyName)
	assert.Equal(t, "England and Wales", req.Jurisdiction)
	assert.Empty(t, req.Tone)
}

func TestReadMessage(t *testing.T) {
	t.Run("From args", func(t *testing.T) {
		msg, err := readMessage(strings.NewReader("ignored"), []string{"Draft", "a", "privacy", "policy"})
		require.NoError(t, err)
		assert.Equal(t, "Draft a privacy policy", msg)
	})

	t.Run("From stdin", func(t *testing.T) {
		msg, err := readMessage(strings.NewReader("Terms for a bakery\n"), nil)
		require.NoError(t, err)
		assert.Equal(t, "Terms for a bakery\n", msg)
	})

	t.Run("Failure - stdin error", func(t *testing.T) {
		_, err := readMessage(&errorReader{}, nil)
		assert.ErrorContains(t, err, "read message")
	})
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (int, error) {
	return 0, errors.New("read error")
}

func TestPrintSessions(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)

	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		printSessions(&buf, nil, "", now)
		assert.Contains(t, buf.String(), "No sessions yet")
	})

	t.Run("Marks the active session", func(t *testing.T) {
		var buf bytes.Buffer
		printSessions(&buf, []model.Session{
			{ID: "s2", Title: "Acme ToS", CreatedAt: now.Add(-2 * time.Hour), LastDocument: "# Acme"},
			{ID: "s1", CreatedAt: now.Add(-72 * time.Hour)},
		}, "s2", now)

		out := buf.String()
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[0], "Sessions (2)")
		assert.Contains(t, lines[2], "* ")
		assert.Contains(t, lines[2], "Acme ToS")
		assert.Contains(t, lines[2], "2 hours ago")
		assert.Contains(t, lines[2], "6 B")
		assert.Contains(t, lines[3], "Untitled")
		assert.Contains(t, lines[3], "3 days ago")
		assert.NotContains(t, lines[3], "* ")
	})
}

func TestPrintDocument(t *testing.T) {
	t.Run("Raw", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printDocument(&buf, "# Title", true, 80))
		assert.Equal(t, "# Title\n", buf.String())
	})

	t.Run("Rendered", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printDocument(&buf, "# Title\n\nSome **terms**.", false, 80))
		assert.Contains(t, buf.String(), "Title")
		assert.Contains(t, buf.String(), "terms")
	})

	t.Run("Nothing to print", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printDocument(&buf, "", false, 80))
		assert.Empty(t, buf.String())
	})
}
