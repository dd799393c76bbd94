package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning and asks the user to type answer to proceed.
// It returns false on any other input or a read error.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, answer string) bool {
	box := NewWarningResult(title)
	for _, w := range warnings {
		box.Hint += "• " + w + "\n"
	}
	box.Hint = strings.TrimSuffix(box.Hint, "\n")

	fmt.Fprintln(out, box.Render())
	fmt.Fprint(out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
		Render(fmt.Sprintf("To proceed, type %q and press Enter: ", answer)))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		fmt.Fprintln(out)
		return false
	}

	if strings.TrimSpace(input) == answer {
		return true
	}

	fmt.Fprintln(out, MutedStyle.Render("Operation cancelled."))
	return false
}
