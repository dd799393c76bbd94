package server

import (
	"math"
	"strconv"
	"time"

	"github.com/muurk/ut181a/internal/protocol"
)

// ValueJSON is a reading as sent to websocket clients. Value is null for
// overloaded readings.
type ValueJSON struct {
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit"`
	Precision *int     `json:"precision,omitempty"`
	Overload  string   `json:"overload,omitempty"` // "OL" or "-OL"
	Display   string   `json:"display"`
}

// Snapshot is the JSON form of one measurement
type Snapshot struct {
	Kind      string               `json:"kind"`
	Mode      string               `json:"mode"`      // CLI name, e.g. "vdc"
	ModeName  string               `json:"mode_name"` // display name, e.g. "VDC"
	Range     string               `json:"range"`
	Hold      bool                 `json:"hold"`
	AutoRange bool                 `json:"auto_range"`
	Values    map[string]ValueJSON `json:"values"`
	Elapsed   map[string]float64   `json:"elapsed,omitempty"` // min/max timestamps, seconds since start
	Display   string               `json:"display"`
	Stamp     int64                `json:"stamp"` // Unix ms
}

// NewSnapshot converts a measurement received at t
func NewSnapshot(m protocol.Measurement, t time.Time) *Snapshot {
	h := m.Common()
	s := &Snapshot{
		Kind:      m.Kind().String(),
		Mode:      h.Mode.Name(),
		ModeName:  h.Mode.String(),
		Range:     h.Range.String(),
		Hold:      h.Hold,
		AutoRange: h.AutoRange,
		Values:    make(map[string]ValueJSON),
		Display:   m.String(),
		Stamp:     t.UnixMilli(),
	}

	put := func(name string, v *protocol.Value) {
		if v != nil {
			s.Values[name] = valueJSON(*v)
		}
	}

	switch m := m.(type) {
	case *protocol.NormalMeasurement:
		put("main", &m.Main)
		put("aux1", m.Aux1)
		put("aux2", m.Aux2)
		put("fast", m.Fast)
	case *protocol.RelativeMeasurement:
		put("relative", &m.Relative)
		put("reference", &m.Reference)
		put("absolute", &m.Absolute)
		put("fast", m.Fast)
	case *protocol.MinMaxMeasurement:
		put("main", &m.Main)
		put("max", &m.Max)
		put("avg", &m.Avg)
		put("min", &m.Min)
		s.Elapsed = map[string]float64{
			"max": m.MaxTime.Seconds(),
			"avg": m.AvgTime.Seconds(),
			"min": m.MinTime.Seconds(),
		}
	case *protocol.PeakMeasurement:
		put("max", &m.Max)
		put("min", &m.Min)
	}
	return s
}

func valueJSON(v protocol.Value) ValueJSON {
	out := ValueJSON{
		Unit:    v.Unit.String(),
		Display: v.String(),
	}
	if f := float64(v.Value); !v.Overloaded() && !math.IsInf(f, 0) && !math.IsNaN(f) {
		// Round-trip through the shortest float32 text so 4.998 stays 4.998
		r := roundFloat32(v.Value)
		out.Value = &r
	}
	if v.Precision != protocol.NoPrecision {
		p := v.Precision
		out.Precision = &p
	}
	switch {
	case v.OverloadNeg:
		out.Overload = "-OL"
	case v.OverloadPos:
		out.Overload = "OL"
	}
	return out
}

func roundFloat32(f float32) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return r
}
