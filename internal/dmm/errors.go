package dmm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/ut181a/internal/protocol"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTransport indicates reading from the transport failed
	ErrTypeTransport ErrorType = iota
	// ErrTypeWrite indicates a command could not be written
	ErrTypeWrite
	// ErrTypeDecode indicates a valid frame carried an undecodable payload
	ErrTypeDecode
	// ErrTypeTimeout indicates no matching reply arrived before the deadline
	ErrTypeTimeout
	// ErrTypeDevice indicates the meter answered with an error reply
	ErrTypeDevice
	// ErrTypeValidation indicates a parameter was rejected before any I/O
	ErrTypeValidation
)

// Sentinels matched by MeterError.Is
var (
	ErrWaitTimeout  = errors.New("did not receive message from meter before deadline")
	ErrCommandError = errors.New("meter rejected command")
	ErrInvalidParam = errors.New("invalid parameter")
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeWrite:
		return "Command Write Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeDevice:
		return "Command Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// MeterError represents an error that occurred while talking to the meter
type MeterError struct {
	Type    ErrorType // Category of error
	Op      string    // Command or operation name
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *MeterError) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Op != "" {
		b.WriteString(" (" + e.Op + ")")
	}
	b.WriteString(": " + e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *MeterError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by error type
func (e *MeterError) Is(target error) bool {
	switch target {
	case ErrWaitTimeout:
		return e.Type == ErrTypeTimeout
	case ErrCommandError:
		return e.Type == ErrTypeDevice
	case ErrInvalidParam:
		return e.Type == ErrTypeValidation
	}
	return false
}

// NewTransportError wraps a transport read failure
func NewTransportError(op string, err error) *MeterError {
	return &MeterError{Type: ErrTypeTransport, Op: op, Message: "transport read failed", Err: err}
}

// NewWriteError wraps a failure to write command op
func NewWriteError(op string, err error) *MeterError {
	return &MeterError{Type: ErrTypeWrite, Op: op, Message: fmt.Sprintf("can't write command '%s' to meter", op), Err: err}
}

// NewDecodeError wraps a payload decoding failure
func NewDecodeError(op string, err error) *MeterError {
	return &MeterError{Type: ErrTypeDecode, Op: op, Message: "undecodable message from meter", Err: err}
}

// NewTimeoutError reports an elapsed wait deadline
func NewTimeoutError(op string) *MeterError {
	return &MeterError{Type: ErrTypeTimeout, Op: op, Message: ErrWaitTimeout.Error()}
}

// NewCommandError reports an error reply from the meter
func NewCommandError(op string) *MeterError {
	return &MeterError{Type: ErrTypeDevice, Op: op, Message: "can't execute command due to error"}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *MeterError {
	return &MeterError{Type: ErrTypeValidation, Message: message}
}

func isType(err error, t ErrorType) bool {
	var me *MeterError
	return errors.As(err, &me) && me.Type == t
}

// IsTimeout checks if an error is a wait timeout
func IsTimeout(err error) bool {
	return isType(err, ErrTypeTimeout)
}

// IsCommandError checks if the meter rejected a command
func IsCommandError(err error) bool {
	return isType(err, ErrTypeDevice)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrTypeValidation)
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	return isType(err, ErrTypeDecode)
}

// IsTransportError checks if an error came from the transport
func IsTransportError(err error) bool {
	return isType(err, ErrTypeTransport) || isType(err, ErrTypeWrite)
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var me *MeterError
	if !errors.As(err, &me) {
		return err.Error()
	}

	switch me.Type {
	case ErrTypeTimeout:
		return "Meter not responding (timeout)"
	case ErrTypeDevice:
		return "Meter rejected the command"
	case ErrTypeWrite, ErrTypeTransport:
		return "Communication with the meter failed"
	case ErrTypeDecode:
		var de *protocol.DecodeError
		if errors.As(me.Err, &de) {
			return "Unexpected data from meter: " + de.Error()
		}
		return "Unexpected data from meter"
	default:
		return me.Message
	}
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var me *MeterError
	if !errors.As(err, &me) {
		return "An unexpected error occurred. Please try again."
	}

	switch me.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The meter did not respond in time.",
			"Troubleshooting:",
			"  • Check that the meter is switched on",
			"  • Enable communication on the meter (SETUP > Communication ON)",
			"  • Verify the serial port and baud rate (default 9600)",
			"  • Try increasing the timeout with --timeout",
		}, "\n")

	case ErrTypeDevice:
		return strings.Join([]string{
			"The meter answered with an error.",
			"Troubleshooting:",
			"  • The requested mode or range may not apply to the current dial position",
			"  • Saved measurement or record indices start at 1",
		}, "\n")

	case ErrTypeWrite, ErrTypeTransport:
		return strings.Join([]string{
			"The serial connection failed.",
			"Troubleshooting:",
			"  • Check the USB cable",
			"  • Run 'ut181a ports' to list available ports",
			"  • Make sure no other program has the port open",
		}, "\n")

	case ErrTypeDecode:
		return "The meter sent data this tool does not understand. Re-run with --log-level debug and report the frame dump."

	case ErrTypeValidation:
		return "A parameter is out of range. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
