package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // purple
	Secondary = lipgloss.Color("#06B6D4") // cyan
	Success   = lipgloss.Color("#10B981") // green
	Warning   = lipgloss.Color("#F59E0B") // amber
	Danger    = lipgloss.Color("#EF4444") // red
	Muted     = lipgloss.Color("#6B7280") // gray
	Text      = lipgloss.Color("#E5E7EB") // light gray
	Surface   = lipgloss.Color("#1F2937")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			PaddingLeft(1).
			PaddingRight(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted)

	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Text)

	FocusedLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Secondary)

	StatusBar = lipgloss.NewStyle().
			Foreground(Text).
			Background(Surface).
			PaddingLeft(1).
			PaddingRight(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			PaddingLeft(1)

	PhaseActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Secondary)

	PhaseLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	OKStyle = lipgloss.NewStyle().
		Foreground(Success)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger)

	PreviewStyle = lipgloss.NewStyle().
			Foreground(Text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			PaddingLeft(1)
)
