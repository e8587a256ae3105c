// Package synth renders analyzer artifacts into one markdown document meant
// for a human reader or a downstream language model.
package synth

import (
	"fmt"
	"strings"

	"github.com/julianshen/unityctx/internal/artifact"
)

// ExcerptLimit is the number of characters of source kept in a rendering.
const ExcerptLimit = 2000

// TruncationMarker follows an excerpt that was cut.
const TruncationMarker = "..."

// Target identifies what was analyzed.
type Target struct {
	// Name is the display filename, or the directory path for projects.
	Name string
	// Source is the analyzed code for single-target renderings.
	Source string
	// APIUsage is the stdout scan for project renderings.
	APIUsage string
}

// Excerpt returns the first ExcerptLimit characters of src followed by the
// truncation marker, or src unchanged when it is short enough.
func Excerpt(src string) string {
	n := 0
	for i := range src {
		if n == ExcerptLimit {
			return src[:i] + TruncationMarker
		}
		n++
	}
	return src
}

// SingleTarget renders the report for one file or snippet.
func SingleTarget(t Target, b *artifact.Bundle) string {
	summary := text(b, artifact.Summary)

	var sb strings.Builder
	sb.WriteString("# Unity script analysis\n\n")
	sb.WriteString("## File\n")
	fmt.Fprintf(&sb, "- **Name:** %s\n", t.Name)
	fmt.Fprintf(&sb, "- **Analysis duration:** %s\n\n", Duration(summary))

	section(&sb, "Summary", b, artifact.Summary, "_No summary available._")
	section(&sb, "Detailed analysis", b, artifact.DetailedReport, "_No detailed analysis available._")

	if outline, ok := Outline(t.Name, t.Source); ok {
		sb.WriteString("## Declared types\n")
		sb.WriteString(outline)
		sb.WriteString("\n")
	}

	sb.WriteString("## Source\n")
	sb.WriteString("```csharp\n")
	excerpt := Excerpt(t.Source)
	sb.WriteString(excerpt)
	if !strings.HasSuffix(excerpt, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\n")

	sb.WriteString("## Suggested questions\n")
	sb.WriteString("This is C# code for the Unity engine. Based on the analysis you could ask:\n\n")
	for i, q := range fileQuestions {
		fmt.Fprintf(&sb, "%d. **%s:** %q\n", i+1, q.topic, q.question)
	}
	return sb.String()
}

// Project renders the report for a whole project directory.
func Project(t Target, b *artifact.Bundle) string {
	var sb strings.Builder
	sb.WriteString("# Unity project analysis\n\n")
	sb.WriteString("## Project\n")
	fmt.Fprintf(&sb, "- **Path:** %s\n", t.Name)
	sb.WriteString("- **Scope:** Unity C# scripts\n\n")

	section(&sb, "Summary", b, artifact.Summary, "_No summary available._")
	section(&sb, "Architecture analysis", b, artifact.DetailedReport, "_No detailed analysis available._")

	usage := strings.TrimSpace(t.APIUsage)
	if usage == "" {
		usage = NoAPIUsage
	}
	sb.WriteString("## Unity API usage\n")
	sb.WriteString(usage)
	sb.WriteString("\n\n")

	section(&sb, "LLM-optimized context", b, artifact.LLMPrompt, "_No LLM prompt available._")

	sb.WriteString("## Follow-up topics\n")
	sb.WriteString("The project analysis is complete. Useful next questions:\n")
	for _, topic := range projectTopics {
		fmt.Fprintf(&sb, "\n### %s\n", topic.title)
		for _, item := range topic.items {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
	}
	return sb.String()
}

func text(b *artifact.Bundle, key artifact.Key) string {
	if b == nil {
		return ""
	}
	return strings.TrimSpace(b.Text(key))
}

// section writes a level-two heading and the artifact's text, its read
// error, or the placeholder.
func section(sb *strings.Builder, title string, b *artifact.Bundle, key artifact.Key, placeholder string) {
	fmt.Fprintf(sb, "## %s\n", title)
	body := placeholder
	if b != nil {
		if e, ok := b.Get(key); ok && e.Failed() {
			body = "_" + e.Err + "_"
		} else if s := strings.TrimSpace(b.Text(key)); s != "" {
			body = s
		}
	}
	sb.WriteString(body)
	sb.WriteString("\n\n")
}

var fileQuestions = []struct {
	topic, question string
}{
	{"Performance", "How can the performance of this code be improved?"},
	{"Best practices", "Rewrite this script to follow Unity best practices."},
	{"Bugs", "Find potential bugs or problems in this script."},
	{"Extensions", "What would it take to add [a feature] to this script?"},
}

var projectTopics = []struct {
	title string
	items []string
}{
	{"Architecture", []string{
		"Component architecture improvements",
		"Use of the Unity lifecycle",
		"Applying design patterns",
	}},
	{"Performance", []string{
		"Hot paths in Update and FixedUpdate",
		"Caching component lookups",
		"Memory and allocation pressure",
	}},
	{"Code quality", []string{
		"Refactoring suggestions",
		"Bug-prevention patterns",
		"Best practices",
	}},
	{"Project management", []string{
		"Dependency management",
		"Modularization",
		"Testing strategy",
		"CI/CD integration",
	}},
}
