package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"clipdrop/internal/platform"
	"clipdrop/internal/status"
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#C2185B")).
			Padding(0, 2).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F472B6")).
				Bold(true)

	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4B5563")).
			Padding(0, 1)

	activeChipStyle = chipStyle.
			Foreground(lipgloss.Color("#FFFFFF")).
			BorderForeground(lipgloss.Color("#F472B6")).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4B5563")).
			Padding(0, 2)

	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color("#C2185B")).
				Bold(true)

	disabledButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("#6B7280")).
				Background(lipgloss.Color("#1F2937"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F472B6")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#93C5FD"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F44336")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4CAF50")).
			Bold(true)

	platformLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#38BDF8")).
			Underline(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)
)

func severityStyle(sev status.Severity) lipgloss.Style {
	switch sev {
	case status.Error:
		return errorStyle
	case status.OK:
		return successStyle
	default:
		return infoStyle
	}
}

// renderStatus draws a status message for the terminal. Links print their
// target next to the label since there is nothing to click.
func renderStatus(msg status.Message) string {
	base := severityStyle(msg.Severity)
	var b strings.Builder
	for _, s := range msg.Segments {
		switch s.Kind {
		case status.PlatformSegment:
			b.WriteString(base.Inherit(platformLabelStyle).Render(s.Text))
		case status.LinkSegment:
			b.WriteString(linkStyle.Render(s.Text + " " + s.Href))
		default:
			b.WriteString(base.Render(s.Text))
		}
	}
	return b.String()
}

func renderChips(active platform.Platform) string {
	chips := make([]string, 0, len(platform.Chips))
	for _, p := range platform.Chips {
		style := chipStyle
		if p == active {
			style = activeChipStyle
		}
		chips = append(chips, style.Render(p.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}
