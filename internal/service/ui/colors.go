// Package ui holds the terminal styles shared by the CLI and the setup wizard.
package ui

import "github.com/charmbracelet/lipgloss"

// Plain ANSI colors so the output follows the user's terminal theme.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// Quota states
	OKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	BlockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	KeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Width(12)
)

// Field renders an aligned "key value" line.
func Field(key, value string) string {
	return KeyStyle.Render(key) + " " + value
}
