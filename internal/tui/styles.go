package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorBackground = lipgloss.Color("#101223")
	ColorAccent     = lipgloss.Color("#7B8CFF")
	ColorPink       = lipgloss.Color("#FF7EB6")
	ColorRed        = lipgloss.Color("#FF5F5F")
	ColorYellow     = lipgloss.Color("#FFD866")
	ColorGray       = lipgloss.Color("#6C7086")
	ColorWhite      = lipgloss.Color("#F5F5F5")
)

var (
	AppStyle = lipgloss.NewStyle().
			Background(ColorBackground).
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	RecordingStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	AvatarStyle = lipgloss.NewStyle().
			Foreground(ColorPink).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	AlertStyle = lipgloss.NewStyle().
			Foreground(ColorBackground).
			Background(ColorYellow).
			Bold(true).
			Padding(0, 1)

	DotActiveStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	DotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)
