// Package styles holds the terminal palette shared by the CLI and TUI.
package styles

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Monokai Pro palette
const (
	Background = "#2D2A2E"
	Foreground = "#FCFCFA"

	Red     = "#FF6188"
	Orange  = "#FC9867"
	Yellow  = "#FFD866"
	Green   = "#A9DC76"
	Cyan    = "#78DCE8"
	Purple  = "#AB9DF2"
	Comment = "#727072"
	Border  = "#5B595C"
)

var (
	Success   = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	Error     = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	Warning   = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	Info      = lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan))
	Dim       = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	Title     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Red))
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Yellow))
	Link      = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color(Purple))
	Spinner   = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	Help      = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))

	Header   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Red))
	Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(Background)).Background(lipgloss.Color(Yellow))
	Value    = lipgloss.NewStyle().Foreground(lipgloss.Color(Foreground))
	Label    = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color(Comment))

	// Panel frames summaries and inventories.
	Panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(Border)).Padding(0, 1)
)

// KeyValue renders an aligned "label value" line.
func KeyValue(label string, value any) string {
	return Label.Render(label) + Value.Render(fmt.Sprint(value))
}

// Count renders a number, dimmed when zero and red when alarm is set.
func Count(n int, alarm bool) string {
	s := strconv.Itoa(n)
	switch {
	case n == 0:
		return Dim.Render(s)
	case alarm:
		return Error.Render(s)
	default:
		return Success.Render(s)
	}
}
