package protocol

import (
	"fmt"
)

// DecodeErrorKind categorizes payload decoding failures
type DecodeErrorKind int

const (
	// KindTruncated means the payload ended before a required field
	KindTruncated DecodeErrorKind = iota
	KindUnknownReplyCode
	KindUnknownMessageFormat
	KindUnknownMeasurementKind
	KindUnknownMeasurementMode
	KindUnknownMeasurementRange
	KindUnknownMeasurementUnit
	KindInvalidDateTime
)

// String returns a human-readable representation of the kind
func (k DecodeErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "Truncated"
	case KindUnknownReplyCode:
		return "UnknownReplyCode"
	case KindUnknownMessageFormat:
		return "UnknownMessageFormat"
	case KindUnknownMeasurementKind:
		return "UnknownMeasurementKind"
	case KindUnknownMeasurementMode:
		return "UnknownMeasurementMode"
	case KindUnknownMeasurementRange:
		return "UnknownMeasurementRange"
	case KindUnknownMeasurementUnit:
		return "UnknownMeasurementUnit"
	case KindInvalidDateTime:
		return "InvalidDateTime"
	default:
		return fmt.Sprintf("DecodeErrorKind(%d)", int(k))
	}
}

// DecodeError describes a payload that could not be decoded.
//
// Only the fields relevant to Kind are populated.
type DecodeError struct {
	Kind DecodeErrorKind

	// Code holds the unknown reply code, message tag, measurement tag,
	// mode or range byte.
	Code uint16

	// Unit holds the lossily decoded unit text, Raw its exact bytes.
	Unit string
	Raw  []byte

	// DateTime holds year, month, day, hour, minute and second as decoded.
	DateTime [6]int

	// Field, Need and Have describe a truncated payload.
	Field string
	Need  int
	Have  int
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindTruncated:
		return fmt.Sprintf("payload too short for %s: %d bytes (minimum %d)", e.Field, e.Have, e.Need)
	case KindUnknownReplyCode:
		return fmt.Sprintf("unknown reply code 0x%04X", e.Code)
	case KindUnknownMessageFormat:
		return fmt.Sprintf("unknown message format 0x%02X", e.Code)
	case KindUnknownMeasurementKind:
		return fmt.Sprintf("unknown measurement kind 0x%02X", e.Code)
	case KindUnknownMeasurementMode:
		return fmt.Sprintf("unknown measurement mode 0x%04X", e.Code)
	case KindUnknownMeasurementRange:
		return fmt.Sprintf("unknown measurement range %d", e.Code)
	case KindUnknownMeasurementUnit:
		return fmt.Sprintf("unknown measurement unit %q (% X)", e.Unit, e.Raw)
	case KindInvalidDateTime:
		d := e.DateTime
		return fmt.Sprintf("invalid date/time %04d-%02d-%02d %02d:%02d:%02d", d[0], d[1], d[2], d[3], d[4], d[5])
	default:
		return fmt.Sprintf("decode error (%s)", e.Kind)
	}
}

// Is reports whether target is a *DecodeError of the same kind, so the
// package sentinels work with errors.Is.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrTruncated               = &DecodeError{Kind: KindTruncated}
	ErrUnknownReplyCode        = &DecodeError{Kind: KindUnknownReplyCode}
	ErrUnknownMessageFormat    = &DecodeError{Kind: KindUnknownMessageFormat}
	ErrUnknownMeasurementKind  = &DecodeError{Kind: KindUnknownMeasurementKind}
	ErrUnknownMeasurementMode  = &DecodeError{Kind: KindUnknownMeasurementMode}
	ErrUnknownMeasurementRange = &DecodeError{Kind: KindUnknownMeasurementRange}
	ErrUnknownMeasurementUnit  = &DecodeError{Kind: KindUnknownMeasurementUnit}
	ErrInvalidDateTime         = &DecodeError{Kind: KindInvalidDateTime}
)

// need returns a truncation error when data is shorter than n bytes
func need(data []byte, n int, field string) error {
	if len(data) < n {
		return &DecodeError{Kind: KindTruncated, Field: field, Need: n, Have: len(data)}
	}
	return nil
}
