package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	// Prompt and echoed user input
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Reply header
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	// Hints, rules, tool activity
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)
)

// FormatKeys formats alternating keys and descriptions.
// Usage: FormatKeys("exit", "Quit", "/copy", "Copy last reply")
// Result: "exit Quit  /copy Copy last reply" (descriptions in accent blue)
func FormatKeys(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}
