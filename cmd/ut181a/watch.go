package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/ut181a/internal/ui"
	"github.com/muurk/ut181a/internal/watch"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Full-screen live reading view",
	Long: `Show live readings full screen with session statistics.

Keys: h toggles hold, m toggles min/max, s saves the reading on the meter,
r resets statistics, q quits. Live reporting is turned off on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTerminal(os.Stdout) {
			return fmt.Errorf("watch needs a terminal; use 'ut181a measure -n 0' instead")
		}

		s, err := openMeter(nil)
		if err != nil {
			return fail(cmd, "Cannot open meter", err)
		}
		defer s.Close()

		program := tea.NewProgram(watch.New(s.client, cfg.Server.PollInterval),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			return fail(cmd, "Live view failed", err)
		}
		return nil
	},
}
