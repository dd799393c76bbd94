package protocol

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// Mode is a measurement mode. The value is the 16-bit code the meter uses
// on the wire, written little-endian.
type Mode uint16

// Voltage modes
const (
	ModeVAC           Mode = 0x1111
	ModeVACRel        Mode = 0x1112
	ModeVACHz         Mode = 0x1121
	ModeVACPeak       Mode = 0x1131
	ModeVACLowPass    Mode = 0x1141
	ModeVACLowPassRel Mode = 0x1142
	ModeVACdBV        Mode = 0x1151
	ModeVACdBVRel     Mode = 0x1152
	ModeVACdBm        Mode = 0x1161
	ModeVACdBmRel     Mode = 0x1162

	ModeMilliVAC        Mode = 0x2111
	ModeMilliVACRel     Mode = 0x2112
	ModeMilliVACHz      Mode = 0x2121
	ModeMilliVACPeak    Mode = 0x2131
	ModeMilliVACACDC    Mode = 0x2141
	ModeMilliVACACDCRel Mode = 0x2142

	ModeVDC        Mode = 0x3111
	ModeVDCRel     Mode = 0x3112
	ModeVDCACDC    Mode = 0x3121
	ModeVDCACDCRel Mode = 0x3122
	ModeVDCPeak    Mode = 0x3131

	ModeMilliVDC     Mode = 0x4111
	ModeMilliVDCRel  Mode = 0x4112
	ModeMilliVDCPeak Mode = 0x4121
)

// Temperature modes
const (
	ModeTempCT1T2      Mode = 0x4211
	ModeTempCT1T2Rel   Mode = 0x4212
	ModeTempCT2T1      Mode = 0x4221
	ModeTempCT2T1Rel   Mode = 0x4222
	ModeTempCT1MinusT2 Mode = 0x4231
	ModeTempCT2MinusT1 Mode = 0x4241

	ModeTempFT1T2      Mode = 0x4311
	ModeTempFT1T2Rel   Mode = 0x4312
	ModeTempFT2T1      Mode = 0x4321
	ModeTempFT2T1Rel   Mode = 0x4322
	ModeTempFT1MinusT2 Mode = 0x4331
	ModeTempFT2MinusT1 Mode = 0x4341
)

// Resistance, continuity, diode, capacitance and timing modes
const (
	ModeResistance    Mode = 0x5111
	ModeResistanceRel Mode = 0x5112
	ModeBeeperShort   Mode = 0x5211
	ModeBeeperOpen    Mode = 0x5212
	ModeAdmittance    Mode = 0x5311
	ModeAdmittanceRel Mode = 0x5312

	ModeDiode          Mode = 0x6111
	ModeDiodeAlarm     Mode = 0x6112
	ModeCapacitance    Mode = 0x6211
	ModeCapacitanceRel Mode = 0x6212

	ModeFrequency     Mode = 0x7111
	ModeFrequencyRel  Mode = 0x7112
	ModeDutyCycle     Mode = 0x7211
	ModeDutyCycleRel  Mode = 0x7212
	ModePulseWidth    Mode = 0x7311
	ModePulseWidthRel Mode = 0x7312
)

// Current modes
const (
	ModeMicroADC        Mode = 0x8111
	ModeMicroADCRel     Mode = 0x8112
	ModeMicroADCACDC    Mode = 0x8121
	ModeMicroADCACDCRel Mode = 0x8122
	ModeMicroADCPeak    Mode = 0x8131
	ModeMicroAAC        Mode = 0x8211
	ModeMicroAACRel     Mode = 0x8212
	ModeMicroAACHz      Mode = 0x8221
	ModeMicroAACPeak    Mode = 0x8231

	ModeMilliADC        Mode = 0x9111
	ModeMilliADCRel     Mode = 0x9112
	ModeMilliADCACDC    Mode = 0x9121
	ModeMilliADCACDCRel Mode = 0x9122
	ModeMilliADCPeak    Mode = 0x9131
	ModeMilliAAC        Mode = 0x9211
	ModeMilliAACRel     Mode = 0x9212
	ModeMilliAACHz      Mode = 0x9221
	ModeMilliAACPeak    Mode = 0x9231

	ModeADC        Mode = 0xA111
	ModeADCRel     Mode = 0xA112
	ModeADCACDC    Mode = 0xA121
	ModeADCACDCRel Mode = 0xA122
	ModeADCPeak    Mode = 0xA131
	ModeAAC        Mode = 0xA211
	ModeAACRel     Mode = 0xA212
	ModeAACHz      Mode = 0xA221
	ModeAACPeak    Mode = 0xA231
)

// modeInfo names a mode for display and for the command line
type modeInfo struct {
	name    string // e.g. "vdc-rel"
	display string // e.g. "VDC/Rel"
}

var modeTable = map[Mode]modeInfo{
	ModeVAC:           {"vac", "VAC"},
	ModeVACRel:        {"vac-rel", "VAC/Rel"},
	ModeVACHz:         {"vac-hz", "VAC/Hz"},
	ModeVACPeak:       {"vac-peak", "VAC/Peak"},
	ModeVACLowPass:    {"vac-lpf", "VAC/Low Pass"},
	ModeVACLowPassRel: {"vac-lpf-rel", "VAC/Low Pass/Rel"},
	ModeVACdBV:        {"vac-dbv", "VAC/dBV"},
	ModeVACdBVRel:     {"vac-dbv-rel", "VAC/dBV/Rel"},
	ModeVACdBm:        {"vac-dbm", "VAC/dBm"},
	ModeVACdBmRel:     {"vac-dbm-rel", "VAC/dBm/Rel"},

	ModeMilliVAC:        {"mvac", "mVAC"},
	ModeMilliVACRel:     {"mvac-rel", "mVAC/Rel"},
	ModeMilliVACHz:      {"mvac-hz", "mVAC/Hz"},
	ModeMilliVACPeak:    {"mvac-peak", "mVAC/Peak"},
	ModeMilliVACACDC:    {"mvac-acdc", "mVAC/AC+DC"},
	ModeMilliVACACDCRel: {"mvac-acdc-rel", "mVAC/AC+DC/Rel"},

	ModeVDC:        {"vdc", "VDC"},
	ModeVDCRel:     {"vdc-rel", "VDC/Rel"},
	ModeVDCACDC:    {"vdc-acdc", "VDC/AC+DC"},
	ModeVDCACDCRel: {"vdc-acdc-rel", "VDC/AC+DC/Rel"},
	ModeVDCPeak:    {"vdc-peak", "VDC/Peak"},

	ModeMilliVDC:     {"mvdc", "mVDC"},
	ModeMilliVDCRel:  {"mvdc-rel", "mVDC/Rel"},
	ModeMilliVDCPeak: {"mvdc-peak", "mVDC/Peak"},

	ModeTempCT1T2:      {"tempc-t1t2", "Temp C/T1,T2"},
	ModeTempCT1T2Rel:   {"tempc-t1t2-rel", "Temp C/T1,T2/Rel"},
	ModeTempCT2T1:      {"tempc-t2t1", "Temp C/T2,T1"},
	ModeTempCT2T1Rel:   {"tempc-t2t1-rel", "Temp C/T2,T1/Rel"},
	ModeTempCT1MinusT2: {"tempc-t1-t2", "Temp C/T1-T2"},
	ModeTempCT2MinusT1: {"tempc-t2-t1", "Temp C/T2-T1"},

	ModeTempFT1T2:      {"tempf-t1t2", "Temp F/T1,T2"},
	ModeTempFT1T2Rel:   {"tempf-t1t2-rel", "Temp F/T1,T2/Rel"},
	ModeTempFT2T1:      {"tempf-t2t1", "Temp F/T2,T1"},
	ModeTempFT2T1Rel:   {"tempf-t2t1-rel", "Temp F/T2,T1/Rel"},
	ModeTempFT1MinusT2: {"tempf-t1-t2", "Temp F/T1-T2"},
	ModeTempFT2MinusT1: {"tempf-t2-t1", "Temp F/T2-T1"},

	ModeResistance:    {"ohm", "Resistance"},
	ModeResistanceRel: {"ohm-rel", "Resistance/Rel"},
	ModeBeeperShort:   {"beep-short", "Beeper/Short"},
	ModeBeeperOpen:    {"beep-open", "Beeper/Open"},
	ModeAdmittance:    {"ns", "Admittance"},
	ModeAdmittanceRel: {"ns-rel", "Admittance/Rel"},

	ModeDiode:          {"diode", "Diode"},
	ModeDiodeAlarm:     {"diode-alarm", "Diode/Alarm"},
	ModeCapacitance:    {"cap", "Capacitance"},
	ModeCapacitanceRel: {"cap-rel", "Capacitance/Rel"},

	ModeFrequency:     {"hz", "Frequency"},
	ModeFrequencyRel:  {"hz-rel", "Frequency/Rel"},
	ModeDutyCycle:     {"duty", "Duty Cycle"},
	ModeDutyCycleRel:  {"duty-rel", "Duty cycle/Rel"},
	ModePulseWidth:    {"pulse", "Pulse width"},
	ModePulseWidthRel: {"pulse-rel", "Pulse width/Rel"},

	ModeMicroADC:        {"uadc", "uADC"},
	ModeMicroADCRel:     {"uadc-rel", "uADC/Rel"},
	ModeMicroADCACDC:    {"uadc-acdc", "uADC/AC+DC"},
	ModeMicroADCACDCRel: {"uadc-acdc-rel", "uADC/AC+DC/Rel"},
	ModeMicroADCPeak:    {"uadc-peak", "uADC/Peak"},
	ModeMicroAAC:        {"uaac", "uAAC"},
	ModeMicroAACRel:     {"uaac-rel", "uAAC/Rel"},
	ModeMicroAACHz:      {"uaac-hz", "uAAC/Hz"},
	ModeMicroAACPeak:    {"uaac-peak", "uAAC/Peak"},

	ModeMilliADC:        {"madc", "mADC"},
	ModeMilliADCRel:     {"madc-rel", "mADC/Rel"},
	ModeMilliADCACDC:    {"madc-acdc", "mADC/AC+DC"},
	ModeMilliADCACDCRel: {"madc-acdc-rel", "mADC/AC+DC/Rel"},
	ModeMilliADCPeak:    {"madc-peak", "mADC/Peak"},
	ModeMilliAAC:        {"maac", "mAAC"},
	ModeMilliAACRel:     {"maac-rel", "mAAC/Rel"},
	ModeMilliAACHz:      {"maac-hz", "mAAC/Hz"},
	ModeMilliAACPeak:    {"maac-peak", "mAAC/Peak"},

	ModeADC:        {"adc", "ADC"},
	ModeADCRel:     {"adc-rel", "ADC/Rel"},
	ModeADCACDC:    {"adc-acdc", "ADC/AC+DC"},
	ModeADCACDCRel: {"adc-acdc-rel", "ADC/AC+DC/Rel"},
	ModeADCPeak:    {"adc-peak", "ADC/Peak"},
	ModeAAC:        {"aac", "AAC"},
	ModeAACRel:     {"aac-rel", "AAC/Rel"},
	ModeAACHz:      {"aac-hz", "AAC/Hz"},
	ModeAACPeak:    {"aac-peak", "AAC/Peak"},
}

// String returns the display name of the mode, e.g. "VDC/Rel"
func (m Mode) String() string {
	if info, ok := modeTable[m]; ok {
		return info.display
	}
	return fmt.Sprintf("Mode(0x%04X)", uint16(m))
}

// Name returns the command-line name of the mode, e.g. "vdc-rel"
func (m Mode) Name() string {
	if info, ok := modeTable[m]; ok {
		return info.name
	}
	return fmt.Sprintf("0x%04x", uint16(m))
}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	_, ok := modeTable[m]
	return ok
}

// Bytes returns the wire encoding of the mode
func (m Mode) Bytes() [2]byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(m))
	return b
}

// DecodeMode reads a little-endian mode code from the first two bytes of data
func DecodeMode(data []byte) (Mode, error) {
	if err := need(data, 2, "mode"); err != nil {
		return 0, err
	}
	m := Mode(binary.LittleEndian.Uint16(data))
	if !m.Valid() {
		return 0, &DecodeError{Kind: KindUnknownMeasurementMode, Code: uint16(m)}
	}
	return m, nil
}

// ParseMode looks a mode up by command-line name (case-insensitive) or by
// its display name.
func ParseMode(s string) (Mode, error) {
	for m, info := range modeTable {
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.display) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// AllModes returns every known mode ordered by code
func AllModes() []Mode {
	modes := make([]Mode, 0, len(modeTable))
	for m := range modeTable {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
