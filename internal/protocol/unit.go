package protocol

import (
	"bytes"
	"fmt"
	"strings"
)

// Unit is the physical unit of a measured value
type Unit int

// Units reported by the meter
const (
	UnitVDC Unit = iota
	UnitVAC
	UnitVACDC
	UnitADC
	UnitAAC
	UnitAACDC
	UnitCelsius
	UnitFahrenheit
	UnitFarad
	UnitHertz
	UnitSecond
	UnitPercent
	UnitSiemens
	UnitOhm
	UnitDBm
	UnitDBV
)

var unitSymbols = map[Unit]string{
	UnitVDC:        "VDC",
	UnitVAC:        "VAC",
	UnitVACDC:      "Vac+dc",
	UnitADC:        "ADC",
	UnitAAC:        "AAC",
	UnitAACDC:      "Aac+dc",
	UnitCelsius:    "°C",
	UnitFahrenheit: "°F",
	UnitFarad:      "F",
	UnitHertz:      "Hz",
	UnitSecond:     "s",
	UnitPercent:    "%",
	UnitSiemens:    "S",
	UnitOhm:        "Ohm",
	UnitDBm:        "dBm",
	UnitDBV:        "dBV",
}

// String returns the display symbol of the unit
func (u Unit) String() string {
	if s, ok := unitSymbols[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// UnitExp is a unit with a decimal exponent, e.g. mVDC is {UnitVDC, -3}
type UnitExp struct {
	Unit     Unit
	Exponent int
}

var exponentPrefixes = map[int]string{
	-12: "p",
	-9:  "n",
	-6:  "u",
	-3:  "m",
	0:   "",
	3:   "k",
	6:   "M",
	9:   "G",
}

// String renders the unit with its SI prefix, e.g. "mVDC" or "kOhm"
func (u UnitExp) String() string {
	prefix, ok := exponentPrefixes[u.Exponent]
	if !ok {
		prefix = fmt.Sprintf("e%d ", u.Exponent)
	}
	return prefix + u.Unit.String()
}

// degreeByte is the single non-ASCII byte the meter uses for the degree sign
const degreeByte = 0xB0

// unitWire maps wire unit strings to units. Order matters for EncodeUnit:
// the first entry for a given UnitExp is the canonical wire string.
var unitWire = []struct {
	text string
	unit UnitExp
}{
	{"mVDC", UnitExp{UnitVDC, -3}},
	{"VDC", UnitExp{UnitVDC, 0}},
	{"V", UnitExp{UnitVDC, 0}},
	{"mVAC", UnitExp{UnitVAC, -3}},
	{"VAC", UnitExp{UnitVAC, 0}},
	{"mVac+dc", UnitExp{UnitVACDC, -3}},
	{"Vac+dc", UnitExp{UnitVACDC, 0}},
	{"uADC", UnitExp{UnitADC, -6}},
	{"mADC", UnitExp{UnitADC, -3}},
	{"ADC", UnitExp{UnitADC, 0}},
	{"uAAC", UnitExp{UnitAAC, -6}},
	{"mAAC", UnitExp{UnitAAC, -3}},
	{"AAC", UnitExp{UnitAAC, 0}},
	{"uAac+dc", UnitExp{UnitAACDC, -6}},
	{"mAac+dc", UnitExp{UnitAACDC, -3}},
	{"Aac+dc", UnitExp{UnitAACDC, 0}},
	{"\uFFFDC", UnitExp{UnitCelsius, 0}},
	{"\uFFFDF", UnitExp{UnitFahrenheit, 0}},
	{"Hz", UnitExp{UnitHertz, 0}},
	{"kHz", UnitExp{UnitHertz, 3}},
	{"MHz", UnitExp{UnitHertz, 6}},
	{"ms", UnitExp{UnitSecond, -3}},
	{"%", UnitExp{UnitPercent, 0}},
	{"nS", UnitExp{UnitSiemens, -9}},
	{"~", UnitExp{UnitOhm, 0}},
	{"k~", UnitExp{UnitOhm, 3}},
	{"M~", UnitExp{UnitOhm, 6}},
	{"dBm", UnitExp{UnitDBm, 0}},
	{"dBV", UnitExp{UnitDBV, 0}},
	{"nF", UnitExp{UnitFarad, -9}},
	{"uF", UnitExp{UnitFarad, -6}},
	{"mF", UnitExp{UnitFarad, -3}},
}

// unitText decodes raw unit bytes, replacing invalid UTF-8 with U+FFFD
func unitText(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

// DecodeUnit maps the raw bytes of a unit string to a UnitExp
func DecodeUnit(raw []byte) (UnitExp, error) {
	text := unitText(raw)
	for _, e := range unitWire {
		if e.text == text {
			return e.unit, nil
		}
	}
	return UnitExp{}, &DecodeError{
		Kind: KindUnknownMeasurementUnit,
		Unit: text,
		Raw:  bytes.Clone(raw),
	}
}

// EncodeUnit returns the canonical wire bytes for a unit
func EncodeUnit(u UnitExp) ([]byte, bool) {
	for _, e := range unitWire {
		if e.unit != u {
			continue
		}
		switch e.unit.Unit {
		case UnitCelsius:
			return []byte{degreeByte, 'C'}, true
		case UnitFahrenheit:
			return []byte{degreeByte, 'F'}, true
		}
		return []byte(e.text), true
	}
	return nil, false
}

// readStringZ returns the bytes of data up to the first NUL, limited to
// width bytes.
func readStringZ(data []byte, width int) []byte {
	if len(data) > width {
		data = data[:width]
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}
