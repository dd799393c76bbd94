package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/muurk/ut181a/internal/protocol"
)

func TestFormatMeasurement(t *testing.T) {
	mV := protocol.UnitExp{Unit: protocol.UnitVDC, Exponent: -3}

	tests := []struct {
		name string
		m    protocol.Measurement
		want []string
	}{
		{
			name: "normal with aux",
			m: &protocol.NormalMeasurement{
				Header: protocol.Header{Mode: protocol.ModeMilliVDC, AutoRange: true, Hold: true},
				Main:   protocol.Value{Value: 12.34, Unit: mV, Precision: 2},
				Aux1:   &protocol.Value{Value: 1, Unit: mV, Precision: 0},
			},
			want: []string{"AUTO", "HOLD", "12.34 mVDC", "aux 1", "1 mVDC"},
		},
		{
			name: "relative",
			m: &protocol.RelativeMeasurement{
				Header:    protocol.Header{Mode: protocol.ModeVDCRel},
				Relative:  protocol.Value{Value: -0.5, Precision: 1},
				Reference: protocol.Value{Value: 2, Precision: 1},
				Absolute:  protocol.Value{Value: 1.5, Precision: 1},
			},
			want: []string{"VDC/Rel", "-0.5 VDC", "reference", "2.0 VDC", "absolute"},
		},
		{
			name: "minmax",
			m: &protocol.MinMaxMeasurement{
				Header:  protocol.Header{Mode: protocol.ModeVDC},
				Max:     protocol.Value{Value: 3, Precision: 1},
				MaxTime: 3725 * time.Second,
			},
			want: []string{"max", "3.0 VDC", "1:02:05"},
		},
		{
			name: "peak overload",
			m: &protocol.PeakMeasurement{
				Header: protocol.Header{Mode: protocol.ModeVACPeak},
				Max:    protocol.Value{OverloadPos: true},
				Min:    protocol.Value{OverloadNeg: true},
			},
			want: []string{"peak max", "OL", "peak min", "-OL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMeasurement(tt.m)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{59 * time.Second, "0:00:59"},
		{61 * time.Minute, "1:01:00"},
		{100*time.Hour + 500*time.Millisecond, "100:00:01"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatRecordInfo(t *testing.T) {
	info := &protocol.RecordInfo{
		Name:     "battery",
		Unit:     protocol.UnitExp{Unit: protocol.UnitVDC},
		Interval: 2 * time.Second,
		Duration: 90 * time.Minute,
		Samples:  2700,
		Max:      protocol.Value{Value: 12.6, Precision: 1},
		Start:    time.Date(2023, 7, 1, 9, 30, 0, 0, time.UTC),
	}

	got := FormatRecordInfo(4, info)
	for _, w := range []string{"Record 4: battery", "2023-07-01 09:30:00", "2s", "1:30:00", "2700", "12.6 VDC"} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}

func TestFormatMeasurementLine(t *testing.T) {
	m := &protocol.NormalMeasurement{
		Header: protocol.Header{Mode: protocol.ModeVDC},
		Main:   protocol.Value{Value: 5, Precision: 0},
	}
	got := FormatMeasurementLine(m, time.Date(2024, 1, 1, 8, 9, 10, 0, time.UTC))
	if !strings.Contains(got, "08:09:10.000") || !strings.Contains(got, m.String()) {
		t.Errorf("FormatMeasurementLine() = %q", got)
	}
}
