package protocol

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	ts := time.Date(2024, 6, 15, 10, 20, 30, 0, time.UTC)
	dt := PackDateTime(ts)

	tests := []struct {
		name    string
		payload []byte
		check   func(t *testing.T, msg Message)
		wantErr error
	}{
		{
			name:    "success",
			payload: []byte{0x01, 0x4F, 0x4B},
			check: func(t *testing.T, msg Message) {
				if _, ok := msg.(*SuccessMessage); !ok {
					t.Errorf("message = %T, want *SuccessMessage", msg)
				}
			},
		},
		{
			name:    "device error",
			payload: []byte{0x01, 0x45, 0x52},
			check: func(t *testing.T, msg Message) {
				if _, ok := msg.(*ErrorMessage); !ok {
					t.Errorf("message = %T, want *ErrorMessage", msg)
				}
			},
		},
		{
			name:    "unknown reply code",
			payload: []byte{0x01, 0x34, 0x12},
			wantErr: ErrUnknownReplyCode,
		},
		{
			name:    "reply",
			payload: []byte{0x72, 0x08, 0x05, 0x00},
			check: func(t *testing.T, msg Message) {
				r, ok := msg.(*ReplyMessage)
				if !ok {
					t.Fatalf("message = %T, want *ReplyMessage", msg)
				}
				if r.Data[0] != CmdGetSavedCount {
					t.Errorf("Data[0] = 0x%02X, want 0x08", r.Data[0])
				}
				n, err := r.Uint16()
				if err != nil || n != 5 {
					t.Errorf("Uint16() = %d, %v, want 5", n, err)
				}
			},
		},
		{
			name:    "saved measurement",
			payload: append(append([]byte{0x03}, dt[:]...), EncodeMeasurement(&NormalMeasurement{Header: Header{Mode: ModeDiode}, Main: Value{Value: 0.512, Unit: UnitExp{UnitVDC, 0}, Precision: 3}})...),
			check: func(t *testing.T, msg Message) {
				s, ok := msg.(*SavedMeasurementMessage)
				if !ok {
					t.Fatalf("message = %T, want *SavedMeasurementMessage", msg)
				}
				if !s.Timestamp.Equal(ts) {
					t.Errorf("Timestamp = %v, want %v", s.Timestamp, ts)
				}
				if s.Measurement.Common().Mode != ModeDiode {
					t.Errorf("Mode = %v, want Diode", s.Measurement.Common().Mode)
				}
			},
		},
		{
			name:    "record batch",
			payload: []byte{0x05, 0x02, 0x00, 0x00, 0x80, 0x3F, 0x21, dt[0], dt[1], dt[2], dt[3], 0x00, 0x00, 0x00, 0x40, 0x13, dt[0], dt[1], dt[2], dt[3]},
			check: func(t *testing.T, msg Message) {
				b, ok := msg.(*RecordDataMessage)
				if !ok {
					t.Fatalf("message = %T, want *RecordDataMessage", msg)
				}
				if len(b.Items) != 2 {
					t.Fatalf("len(Items) = %d, want 2", len(b.Items))
				}
				first, second := b.Items[0].Value, b.Items[1].Value
				if first.Value != 1 || first.Precision != 2 || !first.OverloadPos || first.OverloadNeg {
					t.Errorf("first item = %+v", first)
				}
				if second.Value != 2 || second.Precision != 1 || !second.OverloadNeg || !second.OverloadPos {
					t.Errorf("second item = %+v", second)
				}
				if !b.Items[1].Timestamp.Equal(ts) {
					t.Errorf("Timestamp = %v, want %v", b.Items[1].Timestamp, ts)
				}
			},
		},
		{
			name:    "empty record batch",
			payload: []byte{0x05, 0x00},
			check: func(t *testing.T, msg Message) {
				if b, ok := msg.(*RecordDataMessage); !ok || len(b.Items) != 0 {
					t.Errorf("message = %v, want empty batch", msg)
				}
			},
		},
		{
			name:    "record batch shorter than count",
			payload: []byte{0x05, 0x03, 0x00},
			wantErr: ErrTruncated,
		},
		{
			name:    "unknown format",
			payload: []byte{0x42},
			wantErr: ErrUnknownMessageFormat,
		},
		{
			name:    "empty payload",
			payload: []byte{},
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Classify(tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Classify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			tt.check(t, msg)
		})
	}
}

func TestClassify_UnknownReplyCodeCarriesCode(t *testing.T) {
	_, err := Classify([]byte{0x01, 0x34, 0x12})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Code != 0x1234 {
		t.Errorf("Code = 0x%04X, want 0x1234", de.Code)
	}
}

func TestEncodeMessage_RoundTrip(t *testing.T) {
	ts := time.Date(2022, 11, 5, 8, 0, 1, 0, time.UTC)
	info := &RecordInfo{
		Name:     "bench",
		Unit:     UnitExp{UnitVDC, 0},
		Interval: 5 * time.Second,
		Duration: 600 * time.Second,
		Samples:  120,
		Max:      Value{Value: 5.25, Unit: UnitExp{UnitVDC, 0}, Precision: 2},
		Avg:      Value{Value: 5, Unit: UnitExp{UnitVDC, 0}, Precision: 2},
		Min:      Value{Value: 4.75, Unit: UnitExp{UnitVDC, 0}, Precision: 2},
		Start:    ts,
	}

	tests := []struct {
		name string
		msg  Message
	}{
		{name: "success", msg: &SuccessMessage{}},
		{name: "error", msg: &ErrorMessage{}},
		{name: "reply", msg: &ReplyMessage{Data: []byte{CmdGetRecordCount, 0x03, 0x00}}},
		{name: "record info", msg: &RecordInfoMessage{Info: info}},
		{
			name: "record data",
			msg: &RecordDataMessage{Items: []RecordItem{
				{Value: Value{Value: 1.5, Precision: 1}, Timestamp: ts},
				{Value: Value{Value: 2.5, Precision: 1}, Timestamp: ts.Add(5 * time.Second)},
			}},
		},
		{
			name: "saved measurement",
			msg: &SavedMeasurementMessage{
				Timestamp: ts,
				Measurement: &PeakMeasurement{
					Header: Header{Mode: ModeAACPeak, Range: RangeStep1},
					Max:    Value{Value: 1.25, Unit: UnitExp{UnitAAC, 0}, Precision: 2},
					Min:    Value{Value: -1.25, Unit: UnitExp{UnitAAC, 0}, Precision: 2},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(EncodeMessage(tt.msg))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("Classify() = %v, want %v", got, tt.msg)
			}
		})
	}
}

func TestDecodeRecordInfo_Offsets(t *testing.T) {
	data := make([]byte, recInfoSize)
	copy(data, "run1")
	copy(data[11:], "mVDC")
	data[19], data[20] = 0x0A, 0x00 // 10 s interval
	data[25] = 0x07                 // 7 samples
	data[29+4] = 0x30               // max precision 3
	dt := PackDateTime(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC))
	copy(data[44:], dt[:])

	info, err := DecodeRecordInfo(data)
	if err != nil {
		t.Fatalf("DecodeRecordInfo() error = %v", err)
	}
	if info.Name != "run1" {
		t.Errorf("Name = %q, want run1", info.Name)
	}
	if info.Unit != (UnitExp{UnitVDC, -3}) {
		t.Errorf("Unit = %v, want mVDC", info.Unit)
	}
	if info.Interval != 10*time.Second {
		t.Errorf("Interval = %v, want 10s", info.Interval)
	}
	if info.Samples != 7 {
		t.Errorf("Samples = %d, want 7", info.Samples)
	}
	if info.Max.Precision != 3 || info.Max.Unit != info.Unit {
		t.Errorf("Max = %+v", info.Max)
	}
	if info.Start.Year() != 2021 || info.Start.Second() != 7 {
		t.Errorf("Start = %v", info.Start)
	}

	if _, err := DecodeRecordInfo(data[:40]); !errors.Is(err, ErrTruncated) {
		t.Errorf("DecodeRecordInfo(short) error = %v, want Truncated", err)
	}
}
