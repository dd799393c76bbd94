package dmm

import (
	"fmt"

	"github.com/muurk/ut181a/internal/protocol"
)

// Recording limits accepted by the meter
const (
	MaxRecordNameLen  = protocol.RecordNameSize - 1
	MinRecordInterval = 1
	MaxRecordInterval = 3600 // seconds
	MinRecordDuration = 1
	MaxRecordDuration = 143999 // minutes
	MinSaveIndex      = 1
	MaxSaveIndex      = 0xFFFE
	MinRecordIndex    = 1
)

// ValidateRecordName checks that name is printable ASCII and fits the
// 10-character name field.
func ValidateRecordName(name string) error {
	for i, r := range name {
		if r < 0x20 || r > 0x7E {
			return NewValidationError(fmt.Sprintf("record name %q has a non-printable or non-ASCII character at position %d", name, i))
		}
	}
	if len(name) > MaxRecordNameLen {
		return NewValidationError(fmt.Sprintf("record name too long (max %d chars): %d chars", MaxRecordNameLen, len(name)))
	}
	return nil
}

// ValidateRecordInterval checks the sample interval in seconds (1-3600)
func ValidateRecordInterval(seconds int) error {
	if seconds < MinRecordInterval || seconds > MaxRecordInterval {
		return NewValidationError(fmt.Sprintf("record interval must be %d-%d seconds, got %d", MinRecordInterval, MaxRecordInterval, seconds))
	}
	return nil
}

// ValidateRecordDuration checks the session length in minutes (1-143999)
func ValidateRecordDuration(minutes int) error {
	if minutes < MinRecordDuration || minutes > MaxRecordDuration {
		return NewValidationError(fmt.Sprintf("record duration must be %d-%d minutes, got %d", MinRecordDuration, MaxRecordDuration, minutes))
	}
	return nil
}

// ValidateSaveIndex checks a saved measurement index (1-65534).
// 0xFFFF is reserved for deleting everything.
func ValidateSaveIndex(index int) error {
	if index < MinSaveIndex || index > MaxSaveIndex {
		return NewValidationError(fmt.Sprintf("saved measurement index must be %d-%d, got %d", MinSaveIndex, MaxSaveIndex, index))
	}
	return nil
}

// ValidateRecordIndex checks a recording index (1-based)
func ValidateRecordIndex(index int) error {
	if index < MinRecordIndex || index > 0xFFFF {
		return NewValidationError(fmt.Sprintf("record index must be %d-%d, got %d", MinRecordIndex, 0xFFFF, index))
	}
	return nil
}

// ValidateMode checks that m is a known mode
func ValidateMode(m protocol.Mode) error {
	if !m.Valid() {
		return NewValidationError(fmt.Sprintf("unknown mode 0x%04X", uint16(m)))
	}
	return nil
}

// ValidateRange checks that r is Auto or Step1-Step8
func ValidateRange(r protocol.Range) error {
	if r > protocol.RangeStep8 {
		return NewValidationError(fmt.Sprintf("range must be 0-8, got %d", uint8(r)))
	}
	return nil
}

// ValidateRecordParams validates all start-record parameters.
// Returns a slice of validation errors (empty if valid).
func ValidateRecordParams(name string, intervalSec, durationMin int) []error {
	var errs []error

	if err := ValidateRecordName(name); err != nil {
		errs = append(errs, fmt.Errorf("name: %w", err))
	}
	if err := ValidateRecordInterval(intervalSec); err != nil {
		errs = append(errs, fmt.Errorf("interval: %w", err))
	}
	if err := ValidateRecordDuration(durationMin); err != nil {
		errs = append(errs, fmt.Errorf("duration: %w", err))
	}

	return errs
}
