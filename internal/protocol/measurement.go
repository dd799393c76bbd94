package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// MeasurementKind selects the measurement layout
type MeasurementKind byte

// Measurement kinds, as masked from the tag byte
const (
	KindNormal   MeasurementKind = 0x00
	KindRelative MeasurementKind = 0x10
	KindMinMax   MeasurementKind = 0x20
	KindPeak     MeasurementKind = 0x40
)

// Measurement tag bits
const (
	measKindMask = 0x70
	measHold     = 0x80
	measFast     = 0x08
	measAux2     = 0x04
	measAux1     = 0x02
)

// Layout offsets, counted from the measurement tag byte
const (
	measHeaderSize = 5

	relRelativeOffset  = 5
	relReferenceOffset = 18
	relAbsoluteOffset  = 31
	relFastOffset      = 44

	minMaxMainOffset    = 5
	minMaxMaxOffset     = 10
	minMaxMaxTimeOffset = 15
	minMaxAvgOffset     = 19
	minMaxAvgTimeOffset = 24
	minMaxMinOffset     = 28
	minMaxMinTimeOffset = 33
	minMaxUnitOffset    = 37

	peakMaxOffset = 5
	peakMinOffset = 18
)

// String returns a human-readable representation of the kind
func (k MeasurementKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindRelative:
		return "relative"
	case KindMinMax:
		return "minmax"
	case KindPeak:
		return "peak"
	default:
		return fmt.Sprintf("MeasurementKind(0x%02X)", byte(k))
	}
}

// Header holds the attributes every measurement carries
type Header struct {
	Mode      Mode
	Range     Range
	Hold      bool
	AutoRange bool
}

// Common returns the shared measurement attributes
func (h Header) Common() Header {
	return h
}

// Measurement is one of *NormalMeasurement, *RelativeMeasurement,
// *MinMaxMeasurement or *PeakMeasurement.
type Measurement interface {
	Kind() MeasurementKind
	Common() Header
	String() string
}

// NormalMeasurement is a plain reading with optional auxiliary and
// bar-graph values
type NormalMeasurement struct {
	Header
	Main Value
	Aux1 *Value
	Aux2 *Value
	Fast *Value
}

// Kind returns KindNormal
func (m *NormalMeasurement) Kind() MeasurementKind { return KindNormal }

func (m *NormalMeasurement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", m.headerString(), m.Main)
	if m.Aux1 != nil {
		fmt.Fprintf(&b, ", aux1 %s", m.Aux1)
	}
	if m.Aux2 != nil {
		fmt.Fprintf(&b, ", aux2 %s", m.Aux2)
	}
	if m.Fast != nil {
		fmt.Fprintf(&b, ", fast %s", m.Fast)
	}
	return b.String()
}

// RelativeMeasurement is a reading against a stored reference
type RelativeMeasurement struct {
	Header
	Relative  Value
	Reference Value
	Absolute  Value
	Fast      *Value
}

// Kind returns KindRelative
func (m *RelativeMeasurement) Kind() MeasurementKind { return KindRelative }

func (m *RelativeMeasurement) String() string {
	s := fmt.Sprintf("%s: rel %s, ref %s, abs %s", m.headerString(), m.Relative, m.Reference, m.Absolute)
	if m.Fast != nil {
		s += fmt.Sprintf(", fast %s", m.Fast)
	}
	return s
}

// MinMaxMeasurement carries the current, maximum, average and minimum
// readings. The durations are the time since recording started at which
// each extreme was captured.
type MinMaxMeasurement struct {
	Header
	Main    Value
	Max     Value
	MaxTime time.Duration
	Avg     Value
	AvgTime time.Duration
	Min     Value
	MinTime time.Duration
}

// Kind returns KindMinMax
func (m *MinMaxMeasurement) Kind() MeasurementKind { return KindMinMax }

func (m *MinMaxMeasurement) String() string {
	return fmt.Sprintf("%s: %s, max %s (%s), avg %s (%s), min %s (%s)",
		m.headerString(), m.Main, m.Max, m.MaxTime, m.Avg, m.AvgTime, m.Min, m.MinTime)
}

// PeakMeasurement carries the captured peak values
type PeakMeasurement struct {
	Header
	Max Value
	Min Value
}

// Kind returns KindPeak
func (m *PeakMeasurement) Kind() MeasurementKind { return KindPeak }

func (m *PeakMeasurement) String() string {
	return fmt.Sprintf("%s: max %s, min %s", m.headerString(), m.Max, m.Min)
}

func (h Header) headerString() string {
	s := fmt.Sprintf("%s [%s", h.Mode, h.Range)
	if h.AutoRange {
		s += " auto"
	}
	if h.Hold {
		s += " hold"
	}
	return s + "]"
}

func readSeconds(data []byte) time.Duration {
	return time.Duration(binary.LittleEndian.Uint32(data)) * time.Second
}

// DecodeMeasurement decodes a measurement starting at its tag byte
func DecodeMeasurement(data []byte) (Measurement, error) {
	if err := need(data, measHeaderSize, "measurement header"); err != nil {
		return nil, err
	}

	tag := data[0]
	kind := MeasurementKind(tag & measKindMask)
	switch kind {
	case KindNormal, KindRelative, KindMinMax, KindPeak:
	default:
		return nil, &DecodeError{Kind: KindUnknownMeasurementKind, Code: uint16(tag)}
	}

	mode, err := DecodeMode(data[2:4])
	if err != nil {
		return nil, err
	}
	rng, err := DecodeRange(data[4])
	if err != nil {
		return nil, err
	}
	h := Header{
		Mode:      mode,
		Range:     rng,
		Hold:      tag&measHold != 0,
		AutoRange: data[1] == 1,
	}
	fast := tag&measFast != 0

	switch kind {
	case KindNormal:
		return decodeNormal(data, h, tag&measAux1 != 0, tag&measAux2 != 0, fast)
	case KindRelative:
		return decodeRelative(data, h, fast)
	case KindMinMax:
		return decodeMinMax(data, h)
	default:
		return decodePeak(data, h)
	}
}

func decodeNormal(data []byte, h Header, aux1, aux2, fast bool) (*NormalMeasurement, error) {
	m := &NormalMeasurement{Header: h}
	offset := measHeaderSize

	main, err := decodeValue(data[offset:])
	if err != nil {
		return nil, err
	}
	m.Main = main
	offset += ValueSize

	if aux1 {
		if err := need(data, offset+SharedValueSize, "aux1 value"); err != nil {
			return nil, err
		}
		v, err := decodeValue(data[offset:])
		if err != nil {
			return nil, err
		}
		m.Aux1 = &v
		offset += ValueSize
	}

	if aux2 {
		if err := need(data, offset+SharedValueSize, "aux2 value"); err != nil {
			return nil, err
		}
		v, err := decodeValue(data[offset:])
		if err != nil {
			return nil, err
		}
		m.Aux2 = &v
		offset += ValueSize
	}

	if fast {
		if err := need(data, offset+4, "fast value"); err != nil {
			return nil, err
		}
		v, err := decodeFastValue(data[offset:])
		if err != nil {
			return nil, err
		}
		m.Fast = &v
	}

	return m, nil
}

func decodeRelative(data []byte, h Header, fast bool) (*RelativeMeasurement, error) {
	if err := need(data, relAbsoluteOffset+SharedValueSize+1, "relative measurement"); err != nil {
		return nil, err
	}
	m := &RelativeMeasurement{Header: h}

	var err error
	if m.Relative, err = decodeValue(data[relRelativeOffset:]); err != nil {
		return nil, err
	}
	if m.Reference, err = decodeValue(data[relReferenceOffset:]); err != nil {
		return nil, err
	}
	if m.Absolute, err = decodeValue(data[relAbsoluteOffset:]); err != nil {
		return nil, err
	}

	if fast {
		if err := need(data, relFastOffset+4, "fast value"); err != nil {
			return nil, err
		}
		v, err := decodeFastValue(data[relFastOffset:])
		if err != nil {
			return nil, err
		}
		m.Fast = &v
	}

	return m, nil
}

func decodeMinMax(data []byte, h Header) (*MinMaxMeasurement, error) {
	if err := need(data, minMaxUnitOffset+1, "min/max measurement"); err != nil {
		return nil, err
	}
	unit, err := DecodeUnit(readStringZ(data[minMaxUnitOffset:], UnitFieldSize))
	if err != nil {
		return nil, err
	}

	m := &MinMaxMeasurement{Header: h}
	if m.Main, err = decodeSharedValue(data[minMaxMainOffset:], unit); err != nil {
		return nil, err
	}
	if m.Max, err = decodeSharedValue(data[minMaxMaxOffset:], unit); err != nil {
		return nil, err
	}
	if m.Avg, err = decodeSharedValue(data[minMaxAvgOffset:], unit); err != nil {
		return nil, err
	}
	if m.Min, err = decodeSharedValue(data[minMaxMinOffset:], unit); err != nil {
		return nil, err
	}
	m.MaxTime = readSeconds(data[minMaxMaxTimeOffset:])
	m.AvgTime = readSeconds(data[minMaxAvgTimeOffset:])
	m.MinTime = readSeconds(data[minMaxMinTimeOffset:])

	return m, nil
}

func decodePeak(data []byte, h Header) (*PeakMeasurement, error) {
	if err := need(data, peakMinOffset+SharedValueSize+1, "peak measurement"); err != nil {
		return nil, err
	}
	m := &PeakMeasurement{Header: h}

	var err error
	if m.Max, err = decodeValue(data[peakMaxOffset:]); err != nil {
		return nil, err
	}
	if m.Min, err = decodeValue(data[peakMinOffset:]); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeMeasurement writes a measurement in its wire layout, starting with
// the tag byte. It is the inverse of DecodeMeasurement and is used to
// simulate a meter.
func EncodeMeasurement(m Measurement) []byte {
	h := m.Common()
	tag := byte(m.Kind())
	if h.Hold {
		tag |= measHold
	}

	buf := make([]byte, measHeaderSize, 64)
	if h.AutoRange {
		buf[1] = 1
	}
	mode := h.Mode.Bytes()
	buf[2], buf[3] = mode[0], mode[1]
	buf[4] = byte(h.Range)

	switch m := m.(type) {
	case *NormalMeasurement:
		buf = append(buf, EncodeValue(m.Main)...)
		if m.Aux1 != nil {
			tag |= measAux1
			buf = append(buf, EncodeValue(*m.Aux1)...)
		}
		if m.Aux2 != nil {
			tag |= measAux2
			buf = append(buf, EncodeValue(*m.Aux2)...)
		}
		if m.Fast != nil {
			tag |= measFast
			buf = appendFastValue(buf, *m.Fast)
		}
	case *RelativeMeasurement:
		buf = append(buf, EncodeValue(m.Relative)...)
		buf = append(buf, EncodeValue(m.Reference)...)
		buf = append(buf, EncodeValue(m.Absolute)...)
		if m.Fast != nil {
			tag |= measFast
			buf = appendFastValue(buf, *m.Fast)
		}
	case *MinMaxMeasurement:
		buf = append(buf, EncodeValue(m.Main)[:SharedValueSize]...)
		buf = append(buf, EncodeValue(m.Max)[:SharedValueSize]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.MaxTime/time.Second))
		buf = append(buf, EncodeValue(m.Avg)[:SharedValueSize]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.AvgTime/time.Second))
		buf = append(buf, EncodeValue(m.Min)[:SharedValueSize]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.MinTime/time.Second))
		unit := make([]byte, UnitFieldSize)
		text, _ := EncodeUnit(m.Main.Unit)
		copy(unit, text)
		buf = append(buf, unit...)
	case *PeakMeasurement:
		buf = append(buf, EncodeValue(m.Max)...)
		buf = append(buf, EncodeValue(m.Min)...)
	}

	buf[0] = tag
	return buf
}

func appendFastValue(buf []byte, v Value) []byte {
	field := EncodeValue(v)
	buf = append(buf, field[:4]...)
	return append(buf, field[SharedValueSize:]...)
}
