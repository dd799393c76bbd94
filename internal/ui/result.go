package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is a key-value line in a result box
type Detail struct {
	Key   string
	Value string
}

// Result represents a result box (success, failure, or warning)
type Result struct {
	Type    ResultType
	Title   string   // e.g., "Recording started"
	Details []Detail // shown in order
	Error   error    // for failure results
	Hint    string   // troubleshooting text for failure results, one item per line
	Width   int      // terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Detail) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hint string) *Result {
	return &Result{
		Type:  ResultFailure,
		Title: title,
		Error: err,
		Hint:  hint,
		Width: GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Detail) *Result {
	return &Result{
		Type:    ResultWarning,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail adds a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var (
		title  string
		border lipgloss.Color
	)
	switch r.Type {
	case ResultFailure:
		title = ErrorTitleStyle.Render(fmt.Sprintf("%s  FAILED  ─  %s", FailureMarker, r.Title))
		border = ErrorColor
	case ResultWarning:
		title = lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
			Render(fmt.Sprintf("%s  WARNING  ─  %s", WarningMarker, r.Title))
		border = WarningColor
	default:
		title = SuccessTitleStyle.Render(fmt.Sprintf("%s  %s", SuccessMarker, r.Title))
		border = SuccessColor
	}

	lines := []string{title}

	if len(r.Details) > 0 {
		keyWidth := 0
		for _, d := range r.Details {
			keyWidth = max(keyWidth, len(d.Key)+1)
		}
		lines = append(lines, "")
		for _, d := range r.Details {
			key := KeyStyle.Render(fmt.Sprintf("%-*s", keyWidth, d.Key+":"))
			lines = append(lines, key+" "+ValueStyle.Render(d.Value))
		}
	}

	if r.Error != nil {
		lines = append(lines, "", ErrorMessageStyle.Render("Error: "+r.Error.Error()))
	}

	if r.Hint != "" {
		lines = append(lines, "")
		for _, line := range strings.Split(r.Hint, "\n") {
			lines = append(lines, TroubleshootingItemStyle.Render(line))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details ...Detail) string {
	return NewSuccessResult(title, details...).Render()
}

// RenderFailure renders a failure box with the given title, error, and hint
func RenderFailure(title string, err error, hint string) string {
	return NewFailureResult(title, err, hint).Render()
}

// RenderWarning renders a warning box with the given title and details
func RenderWarning(title string, details ...Detail) string {
	return NewWarningResult(title, details...).Render()
}
