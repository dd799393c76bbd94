package protocol

import (
	"bytes"
	"errors"
	"testing"
)

var (
	successFrame = BuildFrame([]byte{MsgTypeReplyCode, 'O', 'K'})
	errorFrame   = BuildFrame([]byte{MsgTypeReplyCode, 'E', 'R'})
)

func TestScan(t *testing.T) {
	corrupt := bytes.Clone(errorFrame)
	corrupt[len(corrupt)-2]++

	tests := []struct {
		name         string
		buf          []byte
		wantType     Message
		wantConsumed int
	}{
		{
			name:         "single frame",
			buf:          successFrame,
			wantType:     &SuccessMessage{},
			wantConsumed: len(successFrame),
		},
		{
			name:         "garbage prefix",
			buf:          append([]byte{0x00, 0xAB, 0x13, 0xCD}, successFrame...),
			wantType:     &SuccessMessage{},
			wantConsumed: 4 + len(successFrame),
		},
		{
			name:         "garbage suffix",
			buf:          append(bytes.Clone(errorFrame), 0xAB, 0xCD, 0x00),
			wantType:     &ErrorMessage{},
			wantConsumed: len(errorFrame),
		},
		{
			name:         "corrupted frame then valid frame",
			buf:          append(bytes.Clone(corrupt), successFrame...),
			wantType:     &SuccessMessage{},
			wantConsumed: len(corrupt) + len(successFrame),
		},
		{
			name:         "bogus length then valid frame",
			buf:          append([]byte{0xAB, 0xCD, 0x01, 0x00}, successFrame...),
			wantType:     &SuccessMessage{},
			wantConsumed: 4 + len(successFrame),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, consumed, err := Scan(tt.buf)
			if err != nil {
				t.Fatalf("Scan() unexpected error = %v", err)
			}
			if msg == nil {
				t.Fatal("Scan() returned no message")
			}
			if msg.String() != tt.wantType.String() {
				t.Errorf("Scan() message = %v, want %v", msg, tt.wantType)
			}
			if consumed != tt.wantConsumed {
				t.Errorf("Scan() consumed = %d, want %d", consumed, tt.wantConsumed)
			}
		})
	}
}

func TestScan_Incomplete(t *testing.T) {
	// Every strict prefix of a frame must report "need more data"
	for n := 0; n < len(successFrame); n++ {
		msg, consumed, err := Scan(successFrame[:n])
		if msg != nil || consumed != 0 || err != nil {
			t.Errorf("Scan(prefix %d) = (%v, %d, %v), want (nil, 0, nil)", n, msg, consumed, err)
		}
	}

	// Only corrupted frames
	corrupt := bytes.Clone(successFrame)
	corrupt[4] = MsgTypeReply
	msg, consumed, err := Scan(corrupt)
	if msg != nil || consumed != 0 || err != nil {
		t.Errorf("Scan(corrupt) = (%v, %d, %v), want (nil, 0, nil)", msg, consumed, err)
	}
}

func TestScan_OnResync(t *testing.T) {
	corrupt := bytes.Clone(successFrame)
	corrupt[len(corrupt)-1] = 0x77

	var skipped []int
	s := Scanner{OnResync: func(offset int, computed, embedded uint16) {
		skipped = append(skipped, offset)
		if computed == embedded {
			t.Errorf("OnResync called with matching checksum 0x%04X", computed)
		}
	}}

	buf := append([]byte{0x00, 0x00}, corrupt...)
	buf = append(buf, errorFrame...)

	msg, _, err := s.Scan(buf)
	if err != nil {
		t.Fatalf("Scan() unexpected error = %v", err)
	}
	if _, ok := msg.(*ErrorMessage); !ok {
		t.Errorf("Scan() message = %v, want DeviceError", msg)
	}
	if len(skipped) != 1 || skipped[0] != 2 {
		t.Errorf("OnResync offsets = %v, want [2]", skipped)
	}
}

func TestScan_DecodeErrorConsumesFrame(t *testing.T) {
	bad := BuildFrame([]byte{0x99, 0x00})
	buf := append(bytes.Clone(bad), successFrame...)

	msg, consumed, err := Scan(buf)
	if msg != nil {
		t.Errorf("Scan() message = %v, want nil", msg)
	}
	if !errors.Is(err, ErrUnknownMessageFormat) {
		t.Fatalf("Scan() error = %v, want UnknownMessageFormat", err)
	}
	if consumed != len(bad) {
		t.Errorf("Scan() consumed = %d, want %d", consumed, len(bad))
	}

	msg, _, err = Scan(buf[consumed:])
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if _, ok := msg.(*SuccessMessage); !ok {
		t.Errorf("second Scan() message = %v, want Success", msg)
	}
}

func TestScan_RoundTrip(t *testing.T) {
	m := &NormalMeasurement{
		Header: Header{Mode: ModeResistance, Range: RangeStep3, AutoRange: true},
		Main:   Value{Value: 12.345, Unit: UnitExp{UnitOhm, 3}, Precision: 3},
	}
	frame := BuildFrame(EncodeMessage(&MeasurementMessage{Measurement: m}))

	msg, consumed, err := Scan(frame)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if consumed != len(frame) {
		t.Errorf("consumed = %d, want %d", consumed, len(frame))
	}
	mm, ok := msg.(*MeasurementMessage)
	if !ok {
		t.Fatalf("message type = %T, want *MeasurementMessage", msg)
	}
	if got := mm.Measurement.String(); got != m.String() {
		t.Errorf("measurement = %s, want %s", got, m)
	}
}

func BenchmarkScan(b *testing.B) {
	buf := append([]byte{0x00, 0x11, 0x22}, successFrame...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = Scan(buf)
	}
}
