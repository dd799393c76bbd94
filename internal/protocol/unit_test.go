package protocol

import (
	"errors"
	"testing"
)

func TestDecodeUnit(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    UnitExp
		wantErr bool
	}{
		{name: "millivolt DC", raw: []byte("mVDC"), want: UnitExp{UnitVDC, -3}},
		{name: "bare V", raw: []byte("V"), want: UnitExp{UnitVDC, 0}},
		{name: "microamp AC+DC", raw: []byte("uAac+dc"), want: UnitExp{UnitAACDC, -6}},
		{name: "celsius", raw: []byte{0xB0, 'C'}, want: UnitExp{UnitCelsius, 0}},
		{name: "fahrenheit other glyph", raw: []byte{0xF8, 'F'}, want: UnitExp{UnitFahrenheit, 0}},
		{name: "kilohm", raw: []byte("k~"), want: UnitExp{UnitOhm, 3}},
		{name: "nanosiemens", raw: []byte("nS"), want: UnitExp{UnitSiemens, -9}},
		{name: "millisecond", raw: []byte("ms"), want: UnitExp{UnitSecond, -3}},
		{name: "unknown", raw: []byte("furlong"), wantErr: true},
		{name: "empty", raw: []byte{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUnit(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeUnit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var de *DecodeError
				if !errors.As(err, &de) || de.Kind != KindUnknownMeasurementUnit {
					t.Fatalf("error = %v, want UnknownMeasurementUnit", err)
				}
				if string(de.Raw) != string(tt.raw) {
					t.Errorf("Raw = % X, want % X", de.Raw, tt.raw)
				}
				return
			}
			if got != tt.want {
				t.Errorf("DecodeUnit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnitExp_String(t *testing.T) {
	tests := []struct {
		u    UnitExp
		want string
	}{
		{UnitExp{UnitVDC, -3}, "mVDC"},
		{UnitExp{UnitOhm, 6}, "MOhm"},
		{UnitExp{UnitFarad, -9}, "nF"},
		{UnitExp{UnitPercent, 0}, "%"},
		{UnitExp{UnitCelsius, 0}, "°C"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.u.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeUnit_RoundTrip(t *testing.T) {
	for _, e := range unitWire {
		raw, ok := EncodeUnit(e.unit)
		if !ok {
			t.Errorf("EncodeUnit(%v) not found", e.unit)
			continue
		}
		got, err := DecodeUnit(raw)
		if err != nil {
			t.Errorf("DecodeUnit(EncodeUnit(%v)) error = %v", e.unit, err)
			continue
		}
		if got != e.unit {
			t.Errorf("round trip of %v = %v", e.unit, got)
		}
	}
}

func TestReadStringZ(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		width int
		want  string
	}{
		{name: "terminated", data: []byte("VDC\x00junk"), width: 8, want: "VDC"},
		{name: "limited by width", data: []byte("abcdefghij"), width: 4, want: "abcd"},
		{name: "shorter than width", data: []byte("Hz"), width: 8, want: "Hz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(readStringZ(tt.data, tt.width)); got != tt.want {
				t.Errorf("readStringZ() = %q, want %q", got, tt.want)
			}
		})
	}
}
