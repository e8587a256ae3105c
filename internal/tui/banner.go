package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianshen/unityctx/internal/doctor"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#EEEEEE"}).
			Bold(true)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"})
)

// Banner is the one-line title shown above interactive prompts.
const Banner = "unityctx · Unity C# context for LLMs"

// RenderBanner returns the banner with its style applied.
func RenderBanner() string {
	return bannerStyle.Render(Banner)
}

func statusMark(s doctor.Status) string {
	switch s {
	case doctor.StatusOK:
		return okStyle.Render("✓")
	case doctor.StatusWarn:
		return warnStyle.Render("!")
	default:
		return failStyle.Render("✗")
	}
}

// RenderReport formats a doctor report, one check per line.
func RenderReport(rep doctor.Report) string {
	var b strings.Builder
	b.WriteString(bannerStyle.Render("Analyzer: " + rep.Analyzer))
	b.WriteString("\n")
	width := 0
	for _, c := range rep.Checks {
		width = max(width, len(c.Name))
	}
	for _, c := range rep.Checks {
		fmt.Fprintf(&b, "  %s %-*s  %s\n", statusMark(c.Status), width, c.Name, dimStyle.Render(c.Detail))
	}
	return b.String()
}
