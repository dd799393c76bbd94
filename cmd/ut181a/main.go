// Ut181a talks to a UNI-T UT181A multimeter over its USB serial adapter.
//
// It reads live measurements, changes the meter's mode and range, manages
// saved measurements and recordings, and can serve the live feed to
// websocket clients on the local network.
//
// Usage:
//
//	ut181a [command] [flags]
//
// See 'ut181a --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ut181a/internal/config"
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		// Failures already rendered as a result box are not repeated
		var shown *shownError
		if !errors.As(err, &shown) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	portPath   string
	baudRate   int
	waitFlag   time.Duration
	logLevel   string
	configPath string
)

// cfg is the effective configuration: file values overridden by flags
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ut181a",
	Short: "UNI-T UT181A multimeter utility",
	Long: `Control a UNI-T UT181A multimeter over its USB serial adapter.

Reads live measurements, switches mode and range, manages saved
measurements and recordings, and streams the live feed over websockets.

Enable communication on the meter first (SETUP > Communication ON).
Settings are read from the config file; flags take precedence.`,
	Version: version.Version,
	Example: `  # Show one reading
  ut181a measure

  # Stream readings on a specific port
  ut181a measure -n 0 --port /dev/ttyUSB0

  # Switch to millivolts DC
  ut181a mode set mvdc

  # Download a recording as CSV
  ut181a record data 2 --csv > run2.csv

  # Serve the live feed on the network
  ut181a serve`,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&portPath, "port", "p", "", "Serial port (auto-detected if empty)")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", 0, "Baud rate (default from config, 9600)")
	rootCmd.PersistentFlags().DurationVar(&waitFlag, "timeout", 0, "Reply timeout (e.g., 5s)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default in the user config dir)")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file, applies flag overrides and starts logging.
//
// The log level comes from --log-level, then UT181A_LOG_LEVEL, then the
// config file.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)

	level := logLevel
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if level == "" {
		level = cfg.Log.Level
	}
	return logging.Initialize(level)
}

// applyFlags copies explicitly set global flags over config values
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		c.Serial.Port = portPath
	}
	if flags.Changed("baud") {
		c.Serial.BaudRate = baudRate
	}
	if flags.Changed("timeout") {
		c.Meter.WaitTimeout = waitFlag
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ut181a %s\n%s\n", version.Full(), version.Platform())
	},
}
