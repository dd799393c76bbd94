package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Message tags (first payload byte)
const (
	MsgTypeReplyCode        = 0x01
	MsgTypeMeasurement      = 0x02
	MsgTypeSavedMeasurement = 0x03
	MsgTypeRecordInfo       = 0x04
	MsgTypeRecordData       = 0x05
	MsgTypeReply            = 0x72
)

// Reply codes carried by MsgTypeReplyCode
const (
	ReplyCodeSuccess = 0x4B4F // "OK"
	ReplyCodeError   = 0x5245 // "ER"
)

// Message is a decoded device message
type Message interface {
	Type() byte
	String() string
}

// SuccessMessage acknowledges a command
type SuccessMessage struct{}

func (m *SuccessMessage) Type() byte     { return MsgTypeReplyCode }
func (m *SuccessMessage) String() string { return "Success" }

// ErrorMessage rejects a command
type ErrorMessage struct{}

func (m *ErrorMessage) Type() byte     { return MsgTypeReplyCode }
func (m *ErrorMessage) String() string { return "DeviceError" }

// MeasurementMessage carries a live reading
type MeasurementMessage struct {
	Measurement Measurement
}

func (m *MeasurementMessage) Type() byte { return MsgTypeMeasurement }
func (m *MeasurementMessage) String() string {
	return fmt.Sprintf("Measurement{%s}", m.Measurement)
}

// SavedMeasurementMessage carries a measurement stored on the meter
type SavedMeasurementMessage struct {
	Timestamp   time.Time
	Measurement Measurement
}

func (m *SavedMeasurementMessage) Type() byte { return MsgTypeSavedMeasurement }
func (m *SavedMeasurementMessage) String() string {
	return fmt.Sprintf("SavedMeasurement{%s %s}", m.Timestamp.Format(time.DateTime), m.Measurement)
}

// ReplyMessage carries a raw reply. Data[0] echoes the request opcode.
type ReplyMessage struct {
	Data []byte
}

func (m *ReplyMessage) Type() byte { return MsgTypeReply }
func (m *ReplyMessage) String() string {
	return fmt.Sprintf("Reply{% X}", m.Data)
}

// Uint16 reads the little-endian counter following the echoed opcode
func (m *ReplyMessage) Uint16() (uint16, error) {
	if err := need(m.Data, 3, "reply counter"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.Data[1:]), nil
}

// RecordInfoMessage describes a recording session
type RecordInfoMessage struct {
	Info *RecordInfo
}

func (m *RecordInfoMessage) Type() byte { return MsgTypeRecordInfo }
func (m *RecordInfoMessage) String() string {
	return fmt.Sprintf("RecordInfo{%s}", m.Info)
}

// RecordDataMessage carries a batch of recorded samples
type RecordDataMessage struct {
	Items []RecordItem
}

func (m *RecordDataMessage) Type() byte { return MsgTypeRecordData }
func (m *RecordDataMessage) String() string {
	return fmt.Sprintf("RecordData{%d items}", len(m.Items))
}

// Classify decodes a validated frame payload into a Message.
//
// The returned message does not alias payload.
func Classify(payload []byte) (Message, error) {
	if err := need(payload, 1, "message"); err != nil {
		return nil, err
	}

	switch payload[0] {
	case MsgTypeReplyCode:
		return parseReplyCode(payload)
	case MsgTypeMeasurement:
		m, err := DecodeMeasurement(payload[1:])
		if err != nil {
			return nil, err
		}
		return &MeasurementMessage{Measurement: m}, nil
	case MsgTypeSavedMeasurement:
		return parseSavedMeasurement(payload)
	case MsgTypeRecordInfo:
		info, err := DecodeRecordInfo(payload[1:])
		if err != nil {
			return nil, err
		}
		return &RecordInfoMessage{Info: info}, nil
	case MsgTypeRecordData:
		items, err := decodeRecordBatch(payload)
		if err != nil {
			return nil, err
		}
		return &RecordDataMessage{Items: items}, nil
	case MsgTypeReply:
		return &ReplyMessage{Data: bytes.Clone(payload[1:])}, nil
	default:
		return nil, &DecodeError{Kind: KindUnknownMessageFormat, Code: uint16(payload[0])}
	}
}

func parseReplyCode(payload []byte) (Message, error) {
	if err := need(payload, 3, "reply code"); err != nil {
		return nil, err
	}
	switch code := binary.LittleEndian.Uint16(payload[1:]); code {
	case ReplyCodeSuccess:
		return &SuccessMessage{}, nil
	case ReplyCodeError:
		return &ErrorMessage{}, nil
	default:
		return nil, &DecodeError{Kind: KindUnknownReplyCode, Code: code}
	}
}

func parseSavedMeasurement(payload []byte) (Message, error) {
	if err := need(payload, 1+DateTimeSize+measHeaderSize, "saved measurement"); err != nil {
		return nil, err
	}
	ts, err := DecodeDateTime(payload[1:])
	if err != nil {
		return nil, err
	}
	m, err := DecodeMeasurement(payload[1+DateTimeSize:])
	if err != nil {
		return nil, err
	}
	return &SavedMeasurementMessage{Timestamp: ts, Measurement: m}, nil
}

// EncodeMessage builds the payload a meter would send for msg. It is the
// inverse of Classify and is used to simulate a meter.
func EncodeMessage(msg Message) []byte {
	switch m := msg.(type) {
	case *SuccessMessage:
		return []byte{MsgTypeReplyCode, 'O', 'K'}
	case *ErrorMessage:
		return []byte{MsgTypeReplyCode, 'E', 'R'}
	case *MeasurementMessage:
		return append([]byte{MsgTypeMeasurement}, EncodeMeasurement(m.Measurement)...)
	case *SavedMeasurementMessage:
		dt := PackDateTime(m.Timestamp)
		buf := append([]byte{MsgTypeSavedMeasurement}, dt[:]...)
		return append(buf, EncodeMeasurement(m.Measurement)...)
	case *ReplyMessage:
		return append([]byte{MsgTypeReply}, m.Data...)
	case *RecordInfoMessage:
		return append([]byte{MsgTypeRecordInfo}, EncodeRecordInfo(m.Info)...)
	case *RecordDataMessage:
		return EncodeRecordBatch(m.Items)
	default:
		panic(fmt.Sprintf("protocol: cannot encode message %T", msg))
	}
}
