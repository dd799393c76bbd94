package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is the measurement range: automatic or one of eight fixed steps.
// Step meaning depends on the mode.
type Range uint8

const (
	RangeAuto Range = iota
	RangeStep1
	RangeStep2
	RangeStep3
	RangeStep4
	RangeStep5
	RangeStep6
	RangeStep7
	RangeStep8
)

var rangeDescriptions = [...]string{
	RangeAuto:  "Auto",
	RangeStep1: "60 mV/6 V/600 uA/60 mA/600 Ohm/60 Hz/6 nF",
	RangeStep2: "600 mV/60 V/6000 uA/600 mA/6 KOhm/600 Hz/60 nF",
	RangeStep3: "600 V/60 KOhm/6 KHz/600 nF",
	RangeStep4: "1000 V/600 KOhm/60 KHz/6 uF",
	RangeStep5: "6 MOhm/600 KHz/60 uF",
	RangeStep6: "60 MOhm/6 MHz/600 uF",
	RangeStep7: "60 MHz/6 mF",
	RangeStep8: "60 mF",
}

// String returns "Auto" or "StepN"
func (r Range) String() string {
	switch {
	case r == RangeAuto:
		return "Auto"
	case r <= RangeStep8:
		return "Step" + strconv.Itoa(int(r))
	default:
		return fmt.Sprintf("Range(%d)", uint8(r))
	}
}

// Description lists what the range selects in each mode family
func (r Range) Description() string {
	if int(r) < len(rangeDescriptions) {
		return rangeDescriptions[r]
	}
	return r.String()
}

// DecodeRange validates a range byte
func DecodeRange(b byte) (Range, error) {
	if Range(b) > RangeStep8 {
		return 0, &DecodeError{Kind: KindUnknownMeasurementRange, Code: uint16(b)}
	}
	return Range(b), nil
}

// ParseRange accepts "auto", "0"-"8" or "step1"-"step8"
func ParseRange(s string) (Range, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "auto" {
		return RangeAuto, nil
	}
	s = strings.TrimPrefix(s, "step")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > int(RangeStep8) {
		return 0, fmt.Errorf("invalid range %q: want auto or 1-8", s)
	}
	return Range(n), nil
}
