package protocol

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Value field sizes
const (
	ValueSize       = 13 // f32 + flags + 8-byte unit string
	SharedValueSize = 5  // f32 + flags, unit given elsewhere
	UnitFieldSize   = 8
)

// NoPrecision marks a value that carries no display precision
const NoPrecision = -1

// Value is a single reading with its display attributes
type Value struct {
	Value float32
	Unit  UnitExp

	// Precision is the number of digits after the decimal point, or
	// NoPrecision.
	Precision int

	OverloadNeg bool
	OverloadPos bool
}

// String renders the value as the meter would display it
func (v Value) String() string {
	if v.OverloadNeg {
		return "-OL"
	}
	if v.OverloadPos {
		return "OL"
	}
	return strconv.FormatFloat(float64(v.Value), 'f', v.Precision, 32) + " " + v.Unit.String()
}

// Overloaded reports whether either overload flag is set
func (v Value) Overloaded() bool {
	return v.OverloadNeg || v.OverloadPos
}

func readFloat32(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

// applyFlags decodes the flags byte following the float
func (v *Value) applyFlags(flags byte) {
	v.OverloadNeg = flags&0x0E == 0x02
	v.OverloadPos = flags&0x01 == 0x01
	v.Precision = int(flags >> 4)
}

// decodeValue reads a value with its own unit string
func decodeValue(data []byte) (Value, error) {
	if err := need(data, SharedValueSize+1, "value"); err != nil {
		return Value{}, err
	}
	unit, err := DecodeUnit(readStringZ(data[SharedValueSize:], UnitFieldSize))
	if err != nil {
		return Value{}, err
	}

	v := Value{Value: readFloat32(data), Unit: unit}
	v.applyFlags(data[4])
	return v, nil
}

// decodeSharedValue reads a value whose unit is stored elsewhere
func decodeSharedValue(data []byte, unit UnitExp) (Value, error) {
	if err := need(data, SharedValueSize, "value"); err != nil {
		return Value{}, err
	}
	v := Value{Value: readFloat32(data), Unit: unit}
	v.applyFlags(data[4])
	return v, nil
}

// decodeFastValue reads the bar-graph value: f32 followed directly by a
// unit string, without flags.
func decodeFastValue(data []byte) (Value, error) {
	if err := need(data, 5, "fast value"); err != nil {
		return Value{}, err
	}
	unit, err := DecodeUnit(readStringZ(data[4:], UnitFieldSize))
	if err != nil {
		return Value{}, err
	}
	return Value{Value: readFloat32(data), Unit: unit, Precision: NoPrecision}, nil
}

// EncodeValue writes a value in the 13-byte wire layout
func EncodeValue(v Value) []byte {
	buf := make([]byte, ValueSize)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v.Value))
	buf[4] = encodeFlags(v)
	unit, _ := EncodeUnit(v.Unit)
	copy(buf[SharedValueSize:], unit)
	return buf
}

func encodeFlags(v Value) byte {
	var flags byte
	if v.Precision > 0 {
		flags = byte(v.Precision) << 4
	}
	if v.OverloadNeg {
		flags |= 0x02
	}
	if v.OverloadPos {
		flags |= 0x01
	}
	return flags
}
