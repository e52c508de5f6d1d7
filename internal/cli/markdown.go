package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderMarkdown renders md for the terminal. A fixed style is used rather
// than auto-detection, which can block on terminal queries. Rendering
// failures fall back to the raw text.
func renderMarkdown(md string, width int, color bool) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	style := "notty"
	if color {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
