package server

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/muurk/ut181a/internal/protocol"
)

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mV := protocol.UnitExp{Unit: protocol.UnitVDC, Exponent: -3}
	hz := protocol.UnitExp{Unit: protocol.UnitHertz}

	tests := []struct {
		name       string
		m          protocol.Measurement
		wantKind   string
		wantValues []string
		check      func(t *testing.T, s *Snapshot)
	}{
		{
			name: "normal with aux",
			m: &protocol.NormalMeasurement{
				Header: protocol.Header{Mode: protocol.ModeVDC, Range: protocol.RangeStep2},
				Main:   protocol.Value{Value: 12.5, Unit: mV, Precision: 1},
				Aux1:   &protocol.Value{Value: 50, Unit: hz, Precision: 2},
			},
			wantKind:   "normal",
			wantValues: []string{"main", "aux1"},
			check: func(t *testing.T, s *Snapshot) {
				if s.Range != "Step2" || s.AutoRange {
					t.Errorf("range = %q auto=%v", s.Range, s.AutoRange)
				}
				if s.Values["aux1"].Unit != "Hz" {
					t.Errorf("aux1 unit = %q", s.Values["aux1"].Unit)
				}
			},
		},
		{
			name: "relative",
			m: &protocol.RelativeMeasurement{
				Header:    protocol.Header{Mode: protocol.ModeVDCRel, Hold: true},
				Relative:  protocol.Value{Value: 0.5, Precision: 3},
				Reference: protocol.Value{Value: 1, Precision: 3},
				Absolute:  protocol.Value{Value: 1.5, Precision: 3},
			},
			wantKind:   "relative",
			wantValues: []string{"relative", "reference", "absolute"},
			check: func(t *testing.T, s *Snapshot) {
				if !s.Hold {
					t.Error("Hold = false")
				}
			},
		},
		{
			name: "minmax",
			m: &protocol.MinMaxMeasurement{
				Header:  protocol.Header{Mode: protocol.ModeVDC},
				Max:     protocol.Value{Value: 2},
				MaxTime: 90 * time.Second,
			},
			wantKind:   "minmax",
			wantValues: []string{"main", "max", "avg", "min"},
			check: func(t *testing.T, s *Snapshot) {
				if s.Elapsed["max"] != 90 {
					t.Errorf("elapsed max = %v, want 90", s.Elapsed["max"])
				}
			},
		},
		{
			name: "peak overload",
			m: &protocol.PeakMeasurement{
				Header: protocol.Header{Mode: protocol.ModeVACPeak},
				Max:    protocol.Value{OverloadPos: true, Precision: protocol.NoPrecision},
				Min:    protocol.Value{OverloadNeg: true, Precision: protocol.NoPrecision},
			},
			wantKind:   "peak",
			wantValues: []string{"max", "min"},
			check: func(t *testing.T, s *Snapshot) {
				if s.Values["max"].Overload != "OL" || s.Values["min"].Overload != "-OL" {
					t.Errorf("overloads = %q %q", s.Values["max"].Overload, s.Values["min"].Overload)
				}
				if s.Values["max"].Precision != nil {
					t.Error("precision should be omitted")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSnapshot(tt.m, at)
			if s.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", s.Kind, tt.wantKind)
			}
			if len(s.Values) != len(tt.wantValues) {
				t.Errorf("Values = %v, want keys %v", s.Values, tt.wantValues)
			}
			for _, k := range tt.wantValues {
				if _, ok := s.Values[k]; !ok {
					t.Errorf("missing value %q", k)
				}
			}
			if s.Stamp != at.UnixMilli() {
				t.Errorf("Stamp = %d", s.Stamp)
			}
			if s.Display != tt.m.String() {
				t.Errorf("Display = %q, want %q", s.Display, tt.m.String())
			}
			if tt.check != nil {
				tt.check(t, s)
			}
			if _, err := json.Marshal(s); err != nil {
				t.Errorf("json.Marshal() error = %v", err)
			}
		})
	}
}

func TestValueJSON_Float32Rounding(t *testing.T) {
	v := valueJSON(protocol.Value{Value: 4.998, Precision: 3})
	if v.Value == nil || *v.Value != 4.998 {
		t.Errorf("Value = %v, want 4.998", v.Value)
	}
	if v.Precision == nil || *v.Precision != 3 {
		t.Errorf("Precision = %v, want 3", v.Precision)
	}
}

func TestValueJSON_Overload(t *testing.T) {
	tests := []struct {
		name         string
		v            protocol.Value
		wantOverload string
	}{
		{"positive inf", protocol.Value{Value: float32(math.Inf(1)), OverloadPos: true, Precision: protocol.NoPrecision}, "OL"},
		{"negative inf", protocol.Value{Value: float32(math.Inf(-1)), OverloadNeg: true, Precision: protocol.NoPrecision}, "-OL"},
		{"nan", protocol.Value{Value: float32(math.NaN()), OverloadPos: true, Precision: protocol.NoPrecision}, "OL"},
		{"finite magnitude", protocol.Value{Value: 9999, OverloadPos: true, Precision: protocol.NoPrecision}, "OL"},
		{"unflagged inf", protocol.Value{Value: float32(math.Inf(1)), Precision: 2}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &protocol.NormalMeasurement{
				Header: protocol.Header{Mode: protocol.ModeVDC},
				Main:   tt.v,
			}
			s := NewSnapshot(m, time.Unix(0, 0))
			main := s.Values["main"]
			if main.Value != nil {
				t.Errorf("Value = %v, want nil", *main.Value)
			}
			if main.Overload != tt.wantOverload {
				t.Errorf("Overload = %q, want %q", main.Overload, tt.wantOverload)
			}

			data, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if !strings.Contains(string(data), `"value":null`) {
				t.Errorf("json = %s, want null value", data)
			}
		})
	}
}
