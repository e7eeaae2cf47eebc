// Package docrender renders the markdown stored in the docs table (spec.md
// §1 storage model) for terminal display. The teacher's go.mod carries
// charmbracelet/glamour but never exercises it in the retrieved file
// subset; this package gives it a concrete home against the docs table.
package docrender

import (
	"github.com/charmbracelet/glamour"
)

// Render converts markdown body to ANSI-styled terminal output, using the
// auto style (glamour picks dark/light based on the terminal background)
// and wrapping to width columns. width<=0 disables wrapping.
func Render(body string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}

// RenderPlain renders without any ANSI styling, for non-TTY output
// (piped or redirected stdout).
func RenderPlain(body string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("notty")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}
