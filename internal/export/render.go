package export

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultTitle is used when a document has no level-one heading.
const DefaultTitle = "AI Contract Generator"

var (
	headingRe = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()

	pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #1f2328; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
h1, h2, h3 { line-height: 1.25; margin-top: 1.5em; }
h1 { border-bottom: 1px solid #d0d7de; padding-bottom: .3em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 6px 13px; }
code { background: #f6f8fa; padding: .2em .4em; border-radius: 6px; }
blockquote { color: #57606a; border-left: .25em solid #d0d7de; margin: 0; padding: 0 1em; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))
)

// Heading is the text of the first level-one markdown heading.
func Heading(text string) (string, bool) {
	m := headingRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	return title, title != ""
}

// DocumentTitle is the first level-one heading, or DefaultTitle.
func DocumentTitle(text string) string {
	if title, ok := Heading(text); ok {
		return title
	}
	return DefaultTitle
}

// RenderHTML converts markdown to sanitized HTML.
func RenderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("could not convert markdown: %w", err)
	}
	return string(policy.SanitizeBytes(buf.Bytes())), nil
}

// RenderPage wraps the rendered document in a standalone HTML page. A failed
// conversion yields a page with an empty body.
func RenderPage(text string) []byte {
	body, err := RenderHTML(text)
	if err != nil {
		body = ""
	}
	var buf bytes.Buffer
	// The template is static and its data is plain strings.
	_ = pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: DocumentTitle(text),
		Body:  template.HTML(body), // #nosec G203 -- sanitized by bluemonday
	})
	return buf.Bytes()
}

// RenderTerminal renders markdown for a terminal of the given width.
func RenderTerminal(text string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("could not create renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("could not render markdown: %w", err)
	}
	return out, nil
}
