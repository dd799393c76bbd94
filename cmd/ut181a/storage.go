package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/protocol"
	"github.com/muurk/ut181a/internal/ui"
)

// Storage command flags
var (
	assumeYes bool
	recordCSV bool
)

func init() {
	savesDeleteAllCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	recordDataCmd.Flags().BoolVar(&recordCSV, "csv", false, "Write samples as CSV")

	savesCmd.AddCommand(savesCountCmd, savesListCmd, savesGetCmd, savesDeleteCmd, savesDeleteAllCmd)
	recordCmd.AddCommand(recordStartCmd, recordStopCmd, recordCountCmd, recordListCmd, recordInfoCmd, recordDataCmd)

	rootCmd.AddCommand(saveCmd, savesCmd, recordCmd)
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store the current reading in the meter's memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand(cmd, "Measurement saved", (*dmm.Client).SaveMeasurement)
	},
}

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Inspect and delete saved measurements",
}

var savesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of saved measurements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMeter(cmd, "Reading saved count failed", func(c *dmm.Client) error {
			n, err := c.SavedMeasurementCount()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved measurements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMeter(cmd, "Listing saved measurements failed", func(c *dmm.Client) error {
			n, err := c.SavedMeasurementCount()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, n)
			for i := 1; i <= int(n); i++ {
				saved, err := c.SavedMeasurement(i)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					saved.Timestamp.Format(time.DateTime),
					saved.Measurement.Common().Mode.String(),
					saved.Measurement.String(),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("No saved measurements."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"#", "Saved", "Mode", "Reading"}, rows))
			return nil
		})
	},
}

var savesGetCmd = &cobra.Command{
	Use:   "get INDEX",
	Short: "Show one saved measurement (1-based)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return withMeter(cmd, "Reading saved measurement failed", func(c *dmm.Client) error {
			saved, err := c.SavedMeasurement(index)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.TitleStyle.Render(fmt.Sprintf("Saved %d  %s", index, saved.Timestamp.Format(time.DateTime))))
			fmt.Fprintln(out, ui.FormatMeasurement(saved.Measurement))
			return nil
		})
	},
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete INDEX",
	Short: "Delete one saved measurement (1-based)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		if err := withMeter(cmd, "Delete failed", func(c *dmm.Client) error {
			return c.DeleteSavedMeasurement(index)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Saved measurement deleted",
			ui.Detail{Key: "Index", Value: strconv.Itoa(index)}))
		return nil
	},
}

var savesDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every saved measurement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !assumeYes && !ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Delete all saved measurements",
			[]string{"Every saved measurement on the meter will be erased", "This cannot be undone"}, "yes") {
			return nil
		}
		return simpleCommand(cmd, "All saved measurements deleted", (*dmm.Client).DeleteAllSavedMeasurements)
	},
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Start, stop and download recordings",
}

var recordStartCmd = &cobra.Command{
	Use:   "start NAME INTERVAL DURATION",
	Short: "Start a recording",
	Long: `Start a recording session on the meter.

INTERVAL is the sample interval in seconds, DURATION the length of the
session in minutes. NAME is up to 10 ASCII characters.`,
	Example: "  ut181a record start bench 1 60",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		interval, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid interval %q: must be whole seconds", args[1])
		}
		duration, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid duration %q: must be whole minutes", args[2])
		}

		if err := withMeter(cmd, "Starting recording failed", func(c *dmm.Client) error {
			return c.StartRecord(name, interval, duration)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Recording started",
			ui.Detail{Key: "Name", Value: name},
			ui.Detail{Key: "Interval", Value: (time.Duration(interval) * time.Second).String()},
			ui.Detail{Key: "Duration", Value: ui.FormatElapsed(time.Duration(duration) * time.Minute)},
		))
		return nil
	},
}

var recordStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running recording",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand(cmd, "Recording stopped", (*dmm.Client).StopRecord)
	},
}

var recordCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of recordings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMeter(cmd, "Reading record count failed", func(c *dmm.Client) error {
			n, err := c.RecordCount()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recordings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMeter(cmd, "Listing recordings failed", func(c *dmm.Client) error {
			n, err := c.RecordCount()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, n)
			for i := 1; i <= int(n); i++ {
				info, err := c.RecordInfo(i)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					info.Name,
					info.Start.Format(time.DateTime),
					info.Interval.String(),
					strconv.FormatUint(uint64(info.Samples), 10),
					info.Unit.String(),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("No recordings."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"#", "Name", "Start", "Interval", "Samples", "Unit"}, rows))
			return nil
		})
	},
}

var recordInfoCmd = &cobra.Command{
	Use:   "info INDEX",
	Short: "Show a recording's summary (1-based)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return withMeter(cmd, "Reading record info failed", func(c *dmm.Client) error {
			info, err := c.RecordInfo(index)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatRecordInfo(index, info))
			return nil
		})
	},
}

var recordDataCmd = &cobra.Command{
	Use:   "data INDEX",
	Short: "Download a recording's samples (1-based)",
	Example: `  ut181a record data 1
  ut181a record data 1 --csv > record1.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return withMeter(cmd, "Downloading recording failed", func(c *dmm.Client) error {
			info, items, err := c.RecordData(index)
			if err != nil {
				return err
			}
			if recordCSV {
				return writeRecordCSV(cmd.OutOrStdout(), info, items)
			}

			rows := make([][]string, 0, len(items))
			for i, it := range items {
				rows = append(rows, []string{strconv.Itoa(i + 1), it.Timestamp.Format(time.DateTime), it.Value.String()})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.FormatRecordInfo(index, info))
			fmt.Fprintln(out, ui.RenderTable([]string{"#", "Time", "Value"}, rows))
			return nil
		})
	},
}

// writeRecordCSV writes one row per sample: time, value, unit.
// Overloaded samples carry OL or -OL in the value column.
func writeRecordCSV(w io.Writer, info *protocol.RecordInfo, items []protocol.RecordItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "value", "unit"}); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write(csvRow(it, info.Unit)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(it protocol.RecordItem, unit protocol.UnitExp) []string {
	v := it.Value
	value := strconv.FormatFloat(float64(v.Value), 'f', -1, 32)
	switch {
	case v.OverloadNeg:
		value = "-OL"
	case v.OverloadPos:
		value = "OL"
	}
	return []string{it.Timestamp.Format(time.RFC3339), value, unit.String()}
}
