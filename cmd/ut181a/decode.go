package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/ut181a/internal/protocol"
	"github.com/muurk/ut181a/internal/ui"
)

func init() {
	rootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE]",
	Short: "Decode a hex capture of meter traffic",
	Long: `Decode frames from a hex dump of bytes received from the meter.

Whitespace, colons and 0x prefixes are ignored, so output of most serial
sniffers and the engine's debug log can be pasted in directly. Reads stdin
when FILE is omitted or "-".`,
	Example: `  ut181a decode capture.txt
  echo "ab cd 05 00 01 4f 4b a0 00" | ut181a decode`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		data, err := readHexCapture(in)
		if err != nil {
			return err
		}
		report := decodeCapture(data)
		printDecodeReport(cmd.OutOrStdout(), report)
		return nil
	},
}

// readHexCapture parses hex text into bytes
func readHexCapture(r io.Reader) ([]byte, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cleaned := strings.NewReplacer("0x", "", "0X", "", ":", "", ",", "").Replace(string(text))
	cleaned = strings.Join(strings.Fields(cleaned), "")

	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex capture: %w", err)
	}
	return data, nil
}

// decodedFrame is one entry of a decode report
type decodedFrame struct {
	offset int
	msg    protocol.Message
	err    error
}

// decodeReport summarizes a capture
type decodeReport struct {
	frames   []decodedFrame
	resyncs  int
	trailing int
	types    map[string]int
}

// decodeCapture scans data the way the engine scans its receive buffer
func decodeCapture(data []byte) decodeReport {
	report := decodeReport{types: make(map[string]int)}
	scanner := protocol.Scanner{
		OnResync: func(int, uint16, uint16) { report.resyncs++ },
	}

	pos := 0
	for pos < len(data) {
		msg, n, err := scanner.Scan(data[pos:])
		if n == 0 {
			break
		}
		report.frames = append(report.frames, decodedFrame{offset: pos, msg: msg, err: err})
		if err != nil {
			report.types["undecodable"]++
		} else {
			report.types[messageKind(msg)]++
		}
		pos += n
	}
	report.trailing = len(data) - pos
	return report
}

// messageKind names a message type for statistics
func messageKind(msg protocol.Message) string {
	name := msg.String()
	if i := strings.IndexByte(name, '{'); i >= 0 {
		name = name[:i]
	}
	return name
}

func printDecodeReport(w io.Writer, r decodeReport) {
	rows := make([][]string, 0, len(r.frames))
	for _, f := range r.frames {
		text := ""
		if f.err != nil {
			text = ui.ErrorMessageStyle.Render(f.err.Error())
		} else {
			text = f.msg.String()
		}
		rows = append(rows, []string{strconv.Itoa(f.offset), text})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, ui.RenderTable([]string{"Offset", "Message"}, rows))
	}

	kinds := make([]string, 0, len(r.types))
	for k := range r.types {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	details := []ui.Detail{
		{Key: "Frames", Value: strconv.Itoa(len(r.frames))},
		{Key: "Resyncs", Value: strconv.Itoa(r.resyncs)},
		{Key: "Trailing bytes", Value: strconv.Itoa(r.trailing)},
	}
	for _, k := range kinds {
		details = append(details, ui.Detail{Key: k, Value: strconv.Itoa(r.types[k])})
	}
	if r.resyncs > 0 || r.trailing > 0 || r.types["undecodable"] > 0 {
		fmt.Fprintln(w, ui.RenderWarning("Capture decoded with errors", details...))
		return
	}
	fmt.Fprintln(w, ui.RenderSuccess("Capture decoded", details...))
}
