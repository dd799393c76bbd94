package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is a banner with a title and parameters, shown by long-running
// commands such as 'serve'.
type Header struct {
	Title  string   // e.g., "UT181A SERVER"
	Params []Detail // e.g., {"Port", "/dev/ttyUSB0"}
	Width  int      // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title string, params ...Detail) *Header {
	return &Header{
		Title:  title,
		Params: params,
		Width:  GetTerminalWidth(),
	}
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	lines := []string{TitleStyle.Render(strings.ToUpper(h.Title))}
	if len(h.Params) > 0 {
		lines = append(lines, RenderDivider(max(width-6, 10)))
		for _, p := range h.Params {
			lines = append(lines, KeyStyle.Render(p.Key+":")+" "+ValueStyle.Render(p.Value))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
