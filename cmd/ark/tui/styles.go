// Package tui provides the progress interface for "ark run": a scanning
// phase, a copying phase with a progress bar, and a summary. It uses
// Charmbracelet's Bubble Tea, Lip Gloss, and Bubbles.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the TUI.
var (
	// Primary colors
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")

	// Status colors
	successColor = lipgloss.Color("#28A745")
	warningColor = lipgloss.Color("#FFC107")
	dangerColor  = lipgloss.Color("#DC3545")

	// Neutral colors
	mutedColor  = lipgloss.Color("#666666")
	subtleColor = lipgloss.Color("#444444")
	borderColor = lipgloss.Color("#333333")
)

// Box styles for containers.
var (
	// outerBoxStyle is the main container style.
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// dividerStyle creates horizontal dividers.
	dividerStyle = lipgloss.NewStyle().
			Foreground(borderColor)
)

// Text styles.
var (
	// titleStyle for main titles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// mutedTextStyle for less important text.
	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// errorTextStyle for error messages.
	errorTextStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	// successTextStyle for success messages.
	successTextStyle = lipgloss.NewStyle().
				Foreground(successColor)

	// warningTextStyle for warning messages.
	warningTextStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	// fileNameStyle for the file being copied.
	fileNameStyle = lipgloss.NewStyle().
			Foreground(accentColor)
)

// Progress bar styles.
var (
	// progressFillStyle for the filled portion.
	progressFillStyle = lipgloss.NewStyle().
				Foreground(successColor)

	// progressEmptyStyle for the empty portion.
	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(subtleColor)
)

// Stats box styles.
var (
	// statsBoxStyle for the stats container.
	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(borderColor).
			Padding(0, 2)

	// statsLabelStyle for stat labels.
	statsLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// statsValueStyle for stat values.
	statsValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))
)

// Key hint styles.
var (
	// keyStyle for keyboard key hints.
	keyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	// keyDescStyle for key descriptions.
	keyDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// Log viewer styles.
var (
	logTimeStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	logComponentStyle = lipgloss.NewStyle().Foreground(accentColor)
	logDebugStyle     = lipgloss.NewStyle().Foreground(subtleColor)
	logInfoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	logWarnStyle      = lipgloss.NewStyle().Foreground(warningColor)
	logErrorStyle     = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
)

// renderDivider creates a horizontal divider line.
func renderDivider(width int) string {
	return dividerStyle.Render(repeatChar('─', width))
}

// renderKeyHint renders "[key] description".
func renderKeyHint(key, desc string) string {
	return keyStyle.Render("["+key+"]") + " " + keyDescStyle.Render(desc)
}

// repeatChar repeats a character n times.
func repeatChar(char rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = char
	}
	return string(result)
}

// truncatePath truncates a path to fit within maxLen, preserving the end.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-(maxLen-3):]
}

// center centers a string within the given width.
func center(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	leftPad := (width - w) / 2
	rightPad := width - w - leftPad
	return repeatChar(' ', leftPad) + s + repeatChar(' ', rightPad)
}
