package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter outputs the synthesized context as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders the Report as Markdown. Failures render an error section
// with the analyzer's diagnostics.
func (f *MarkdownFormatter) Format(r *Report) ([]byte, error) {
	var b strings.Builder

	if r.Error != nil {
		b.WriteString("## Error\n\n")
		b.WriteString(r.Error.Message)
		b.WriteString("\n")
		if d := strings.TrimSpace(r.Error.Detail); d != "" {
			b.WriteString("\n```\n")
			b.WriteString(d)
			b.WriteString("\n```\n")
		}
		return []byte(b.String()), nil
	}

	b.WriteString(strings.TrimRight(r.Context, "\n"))
	b.WriteString("\n")

	d := time.Duration(r.DurationMs) * time.Millisecond
	b.WriteString(fmt.Sprintf("\n---\n*Run %s finished in %s*\n", r.RunID, d.Round(100*time.Millisecond)))

	return []byte(b.String()), nil
}
