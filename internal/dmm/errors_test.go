package dmm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/muurk/ut181a/internal/protocol"
)

func TestMeterError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *MeterError
		want string
	}{
		{
			name: "timeout",
			err:  NewTimeoutError("monitor on"),
			want: "Timeout (monitor on): did not receive message from meter before deadline",
		},
		{
			name: "write with cause",
			err:  NewWriteError("set mode", errors.New("broken pipe")),
			want: "Command Write Error (set mode): can't write command 'set mode' to meter (caused by: broken pipe)",
		},
		{
			name: "validation",
			err:  NewValidationError("bad"),
			want: "Validation Error: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewCommandError("save measurement"))

	if !IsCommandError(wrapped) {
		t.Error("IsCommandError(wrapped) = false")
	}
	if IsTimeout(wrapped) {
		t.Error("IsTimeout(wrapped) = true")
	}
	if !errors.Is(wrapped, ErrCommandError) {
		t.Error("errors.Is(wrapped, ErrCommandError) = false")
	}
	if errors.Is(wrapped, ErrWaitTimeout) {
		t.Error("errors.Is(wrapped, ErrWaitTimeout) = true")
	}
	if IsValidationError(errors.New("plain")) {
		t.Error("IsValidationError(plain) = true")
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	decode := NewDecodeError("read message", &protocol.DecodeError{Kind: protocol.KindUnknownMeasurementMode, Code: 0x1234})

	tests := []struct {
		err  error
		want string
	}{
		{NewTimeoutError("x"), "Meter not responding (timeout)"},
		{NewCommandError("x"), "Meter rejected the command"},
		{NewTransportError("x", errors.New("eof")), "Communication with the meter failed"},
		{decode, "Unexpected data from meter: unknown measurement mode 0x1234"},
		{NewValidationError("index out of range"), "index out of range"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := GetShortErrorMessage(tt.err); got != tt.want {
			t.Errorf("GetShortErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	if hint := GetTroubleshootingHint(NewTimeoutError("x")); !strings.Contains(hint, "Troubleshooting") {
		t.Errorf("GetTroubleshootingHint() = %q", hint)
	}
}
