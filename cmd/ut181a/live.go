package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/protocol"
	"github.com/muurk/ut181a/internal/server"
	"github.com/muurk/ut181a/internal/ui"
)

// Live command flags
var (
	measureCount int
	measureJSON  bool
)

func init() {
	measureCmd.Flags().IntVarP(&measureCount, "count", "n", 1, "Number of readings (0 = until interrupted)")
	measureCmd.Flags().BoolVar(&measureJSON, "json", false, "Print readings as JSON lines")

	monitorCmd.AddCommand(monitorOnCmd, monitorOffCmd)
	modeCmd.AddCommand(modeSetCmd, modeListCmd)
	rangeCmd.AddCommand(rangeSetCmd, rangeListCmd)

	rootCmd.AddCommand(measureCmd, monitorCmd, holdCmd, modeCmd, rangeCmd, referenceCmd, minMaxCmd)
}

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Read live measurements",
	Long: `Turn on live reporting, print readings and turn reporting off again.

With -n 1 (the default) the reading is shown in full. Otherwise one line is
printed per reading; -n 0 streams until Ctrl-C.`,
	Example: `  ut181a measure
  ut181a measure -n 10
  ut181a measure -n 0 --json`,
	Args: cobra.NoArgs,
	RunE: runMeasure,
}

func runMeasure(cmd *cobra.Command, args []string) error {
	if measureCount < 0 {
		return fmt.Errorf("--count must not be negative")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return withMeter(cmd, "Measurement failed", func(c *dmm.Client) error {
		if err := c.MonitorOn(); err != nil {
			return err
		}
		defer func() {
			if err := c.MonitorOff(); err != nil {
				logging.Warn("Failed to turn off live reporting", zap.Error(err))
			}
		}()

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		for i := 0; measureCount == 0 || i < measureCount; i++ {
			if ctx.Err() != nil {
				return nil
			}
			m, err := c.Measurement()
			if err != nil {
				return err
			}
			now := time.Now()

			switch {
			case measureJSON:
				if err := enc.Encode(server.NewSnapshot(m, now)); err != nil {
					return err
				}
			case measureCount == 1:
				fmt.Fprintln(out, ui.FormatMeasurement(m))
			default:
				fmt.Fprintln(out, ui.FormatMeasurementLine(m, now))
			}
		}
		return nil
	})
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Switch live measurement reporting on or off",
}

var monitorOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Start live reporting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand(cmd, "Live reporting on", (*dmm.Client).MonitorOn)
	},
}

var monitorOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Stop live reporting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand(cmd, "Live reporting off", (*dmm.Client).MonitorOff)
	},
}

var holdCmd = &cobra.Command{
	Use:   "hold",
	Short: "Toggle the display hold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand(cmd, "Hold toggled", (*dmm.Client).ToggleHold)
	},
}

// simpleCommand runs an operation without arguments and reports success
func simpleCommand(cmd *cobra.Command, title string, op func(*dmm.Client) error) error {
	err := withMeter(cmd, title+" failed", op)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(title))
	return nil
}

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Select or list measurement modes",
}

var modeSetCmd = &cobra.Command{
	Use:     "set NAME",
	Short:   "Select a measurement mode",
	Long:    "Select a measurement mode by name. The rotary switch must be in the matching position.",
	Example: "  ut181a mode set vdc-rel",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := protocol.ParseMode(args[0])
		if err != nil {
			return err
		}
		if err := withMeter(cmd, "Mode change failed", func(c *dmm.Client) error {
			return c.SetMode(mode)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Mode set",
			ui.Detail{Key: "Mode", Value: mode.String()},
			ui.Detail{Key: "Code", Value: fmt.Sprintf("0x%04X", uint16(mode))},
		))
		return nil
	},
}

var modeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known measurement modes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		modes := protocol.AllModes()
		rows := make([][]string, 0, len(modes))
		for _, m := range modes {
			rows = append(rows, []string{m.Name(), m.String(), fmt.Sprintf("0x%04X", uint16(m))})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"Name", "Display", "Code"}, rows))
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Select or list measurement ranges",
}

var rangeSetCmd = &cobra.Command{
	Use:     "set RANGE",
	Short:   "Select auto range or a fixed range step",
	Example: "  ut181a range set auto\n  ut181a range set 3",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := protocol.ParseRange(args[0])
		if err != nil {
			return err
		}
		if err := withMeter(cmd, "Range change failed", func(c *dmm.Client) error {
			return c.SetRange(r)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Range set",
			ui.Detail{Key: "Range", Value: r.String()},
			ui.Detail{Key: "Selects", Value: r.Description()},
		))
		return nil
	},
}

var rangeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List range steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows [][]string
		for r := protocol.RangeAuto; r <= protocol.RangeStep8; r++ {
			rows = append(rows, []string{strconv.Itoa(int(r)), r.String(), r.Description()})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"#", "Range", "Selects"}, rows))
		return nil
	},
}

var referenceCmd = &cobra.Command{
	Use:   "reference VALUE",
	Short: "Set the reference value for relative mode",
	Long: `Set the reference value used in relative (REL) modes.

The value is in the base unit of the current mode.`,
	Example: "  ut181a reference 1.25\n  ut181a reference -- -0.5",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseFloat(args[0], 32)
		if err != nil {
			return fmt.Errorf("invalid reference value %q: %w", args[0], err)
		}
		if err := withMeter(cmd, "Reference change failed", func(c *dmm.Client) error {
			return c.SetReferenceValue(float32(v))
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Reference value set",
			ui.Detail{Key: "Value", Value: strconv.FormatFloat(v, 'g', -1, 32)}))
		return nil
	},
}

var minMaxCmd = &cobra.Command{
	Use:   "minmax on|off",
	Short: "Switch min/max/average tracking on or off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		title := "Min/max tracking off"
		if on {
			title = "Min/max tracking on"
		}
		return simpleCommand(cmd, title, func(c *dmm.Client) error {
			return c.SetMinMaxMode(on)
		})
	},
}
