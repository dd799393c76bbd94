package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, overload
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings, HOLD
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Shared styles
var (
	// TitleStyle is for section titles (e.g., "RECORD 3")
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// ModeStyle is for the measurement mode (e.g., "VDC")
	ModeStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// ReadingStyle is for the main reading
	ReadingStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// OverloadStyle is for OL readings
	OverloadStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// FlagStyle is for AUTO/HOLD indicators
	FlagStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// KeyStyle is for detail keys
	KeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ValueStyle is for detail values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// MutedStyle is for secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SuccessTitleStyle is for the success result title
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// ErrorTitleStyle is for the error result title
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// ErrorMessageStyle is for error message text
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// TroubleshootingItemStyle is for troubleshooting lines
	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)
)

// Markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// RenderDivider creates a horizontal line of the specified width
func RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat("─", width))
}
