package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	timestamp lipgloss.Style
	dim       lipgloss.Style
	err       lipgloss.Style
	sidebar   lipgloss.Style
	active    lipgloss.Style
	compose   lipgloss.Style
	attached  lipgloss.Style
}

func newTheme(dark bool) theme {
	fg, muted, accent, border, bg := lipgloss.Color("235"), lipgloss.Color("244"), lipgloss.Color("25"), lipgloss.Color("250"), lipgloss.Color("255")
	if dark {
		fg, muted, accent, border, bg = lipgloss.Color("252"), lipgloss.Color("243"), lipgloss.Color("39"), lipgloss.Color("240"), lipgloss.Color("236")
	}

	return theme{
		header:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(accent),
		timestamp: lipgloss.NewStyle().Foreground(muted),
		dim:       lipgloss.NewStyle().Foreground(muted),
		err:       lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		sidebar:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Foreground(fg).Padding(0, 1),
		active:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		compose:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Background(bg),
		attached:  lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
	}
}
