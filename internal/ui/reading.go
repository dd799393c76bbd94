package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/ut181a/internal/protocol"
)

// renderValue styles a value, highlighting overloads
func renderValue(v protocol.Value) string {
	if v.Overloaded() {
		return OverloadStyle.Render(v.String())
	}
	return ReadingStyle.Render(v.String())
}

// statusLine renders "VDC  Auto  AUTO HOLD"
func statusLine(h protocol.Header) string {
	parts := []string{ModeStyle.Render(h.Mode.String()), MutedStyle.Render(h.Range.String())}
	if h.AutoRange {
		parts = append(parts, FlagStyle.Render("AUTO"))
	}
	if h.Hold {
		parts = append(parts, FlagStyle.Render("HOLD"))
	}
	return strings.Join(parts, "  ")
}

func detail(key, value string) string {
	return KeyStyle.Render(fmt.Sprintf("  %-10s", key)) + " " + value
}

// FormatMeasurement renders a measurement as a few styled lines
func FormatMeasurement(m protocol.Measurement) string {
	lines := []string{statusLine(m.Common())}

	switch m := m.(type) {
	case *protocol.NormalMeasurement:
		lines = append(lines, "  "+renderValue(m.Main))
		for _, aux := range []struct {
			name string
			v    *protocol.Value
		}{{"aux 1", m.Aux1}, {"aux 2", m.Aux2}, {"bar", m.Fast}} {
			if aux.v != nil {
				lines = append(lines, detail(aux.name, renderValue(*aux.v)))
			}
		}

	case *protocol.RelativeMeasurement:
		lines = append(lines,
			"  "+renderValue(m.Relative),
			detail("reference", renderValue(m.Reference)),
			detail("absolute", renderValue(m.Absolute)),
		)
		if m.Fast != nil {
			lines = append(lines, detail("bar", renderValue(*m.Fast)))
		}

	case *protocol.MinMaxMeasurement:
		lines = append(lines,
			"  "+renderValue(m.Main),
			detail("max", renderValue(m.Max)+MutedStyle.Render(" @ "+FormatElapsed(m.MaxTime))),
			detail("avg", renderValue(m.Avg)+MutedStyle.Render(" @ "+FormatElapsed(m.AvgTime))),
			detail("min", renderValue(m.Min)+MutedStyle.Render(" @ "+FormatElapsed(m.MinTime))),
		)

	case *protocol.PeakMeasurement:
		lines = append(lines,
			detail("peak max", renderValue(m.Max)),
			detail("peak min", renderValue(m.Min)),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// FormatMeasurementLine renders a measurement on one line, for streaming
func FormatMeasurementLine(m protocol.Measurement, at time.Time) string {
	return MutedStyle.Render(at.Format("15:04:05.000")) + "  " + m.String()
}

// FormatElapsed renders a duration as h:mm:ss
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%d:%02d:%02d", h, m, d/time.Second)
}

// FormatRecordInfo renders a recording's metadata as a details block
func FormatRecordInfo(index int, info *protocol.RecordInfo) string {
	lines := []string{
		TitleStyle.Render(fmt.Sprintf("Record %d: %s", index, info.Name)),
		detail("unit", ValueStyle.Render(info.Unit.String())),
		detail("start", ValueStyle.Render(info.Start.Format("2006-01-02 15:04:05"))),
		detail("interval", ValueStyle.Render(info.Interval.String())),
		detail("duration", ValueStyle.Render(FormatElapsed(info.Duration))),
		detail("samples", ValueStyle.Render(fmt.Sprint(info.Samples))),
		detail("max", renderValue(info.Max)),
		detail("avg", renderValue(info.Avg)),
		detail("min", renderValue(info.Min)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
