package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders synthesized context for the terminal.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer wraps at width columns (DefaultWidth when <= 0).
// Output goes straight to stdout rather than through a Bubble Tea program,
// so the style follows the terminal background.
func NewMarkdownRenderer(width int) (*MarkdownRenderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glamour renderer: %w", err)
	}
	return &MarkdownRenderer{renderer: r}, nil
}

// Render styles md. Empty input renders to nothing and a nil renderer
// passes md through.
func (m *MarkdownRenderer) Render(md string) (string, error) {
	switch {
	case md == "":
		return "", nil
	case m == nil || m.renderer == nil:
		return md, nil
	}
	return m.renderer.Render(md)
}
