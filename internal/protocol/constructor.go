package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Request opcodes (first byte of a host-to-meter payload)
const (
	CmdSetMode         = 0x01
	CmdSetRange        = 0x02
	CmdSetReference    = 0x03
	CmdSetMinMax       = 0x04
	CmdMonitor         = 0x05
	CmdSaveMeasurement = 0x06
	CmdGetSaved        = 0x07
	CmdGetSavedCount   = 0x08
	CmdDeleteSaved     = 0x09
	CmdStartRecord     = 0x0A
	CmdStopRecord      = 0x0B
	CmdGetRecordInfo   = 0x0C
	CmdGetRecordData   = 0x0D
	CmdGetRecordCount  = 0x0E
	CmdToggleHold      = 0x12
)

const (
	holdMagic = 0x5A

	// DeleteAllIndex addresses every saved measurement
	DeleteAllIndex = 0xFFFF

	// RecordNameSize is the name field width, including the NUL
	RecordNameSize = 11

	startRecordSize = 18
)

// Command is a request payload with a name for logs and errors
type Command struct {
	Name    string
	Payload []byte
}

// Frame returns the command wrapped in a wire frame
func (c Command) Frame() []byte {
	return BuildFrame(c.Payload)
}

// Opcode returns the first payload byte
func (c Command) Opcode() byte {
	return c.Payload[0]
}

func (c Command) String() string {
	return fmt.Sprintf("%s [% X]", c.Name, c.Payload)
}

func indexed(op byte, index uint16) []byte {
	return binary.LittleEndian.AppendUint16([]byte{op}, index)
}

// ToggleHoldCommand toggles the HOLD state
func ToggleHoldCommand() Command {
	return Command{Name: "toggle hold", Payload: []byte{CmdToggleHold, holdMagic}}
}

// SaveMeasurementCommand stores the current reading
func SaveMeasurementCommand() Command {
	return Command{Name: "save measurement", Payload: []byte{CmdSaveMeasurement}}
}

// SavedCountCommand requests the number of saved measurements.
// The meter answers with a 0x72 reply echoing CmdGetSavedCount.
func SavedCountCommand() Command {
	return Command{Name: "get saved count", Payload: []byte{CmdGetSavedCount}}
}

// GetSavedCommand requests one saved measurement (1-based index)
func GetSavedCommand(index uint16) Command {
	return Command{Name: "get saved measurement", Payload: indexed(CmdGetSaved, index)}
}

// DeleteSavedCommand deletes one saved measurement, or all of them when
// index is DeleteAllIndex
func DeleteSavedCommand(index uint16) Command {
	name := "delete saved measurement"
	if index == DeleteAllIndex {
		name = "delete all saved measurements"
	}
	return Command{Name: name, Payload: indexed(CmdDeleteSaved, index)}
}

// SetMinMaxCommand enables or disables min/max mode
func SetMinMaxCommand(enabled bool) Command {
	return Command{Name: "set min/max mode", Payload: []byte{CmdSetMinMax, boolByte(enabled)}}
}

// SetRangeCommand selects a measurement range
func SetRangeCommand(r Range) Command {
	return Command{Name: "set range", Payload: []byte{CmdSetRange, byte(r)}}
}

// SetReferenceCommand sets the reference value for relative mode
func SetReferenceCommand(v float32) Command {
	payload := binary.LittleEndian.AppendUint32([]byte{CmdSetReference}, math.Float32bits(v))
	return Command{Name: "set reference value", Payload: payload}
}

// SetModeCommand selects a measurement mode
func SetModeCommand(m Mode) Command {
	b := m.Bytes()
	return Command{Name: "set mode", Payload: []byte{CmdSetMode, b[0], b[1]}}
}

// StartRecordCommand starts a recording session.
//
// Payload Structure:
//
//	[0]      0x0A       Opcode
//	[1-11]   name       Session name, NUL padded (10 chars max)
//	[12-13]  interval   Sample interval in seconds (little-endian uint16)
//	[14-17]  duration   Session length in minutes (little-endian uint32)
//
// Inputs are not validated here.
func StartRecordCommand(name string, intervalSec uint16, durationMin uint32) Command {
	payload := make([]byte, startRecordSize)
	payload[0] = CmdStartRecord
	copy(payload[1:1+RecordNameSize-1], name)
	binary.LittleEndian.PutUint16(payload[12:], intervalSec)
	binary.LittleEndian.PutUint32(payload[14:], durationMin)
	return Command{Name: "start record", Payload: payload}
}

// StopRecordCommand stops the running recording session
func StopRecordCommand() Command {
	return Command{Name: "stop record", Payload: []byte{CmdStopRecord}}
}

// RecordCountCommand requests the number of stored recordings.
// The meter answers with a 0x72 reply echoing CmdGetRecordCount.
func RecordCountCommand() Command {
	return Command{Name: "get record count", Payload: []byte{CmdGetRecordCount}}
}

// RecordInfoCommand requests a recording's metadata (1-based index)
func RecordInfoCommand(index uint16) Command {
	return Command{Name: "get record info", Payload: indexed(CmdGetRecordInfo, index)}
}

// RecordDataCommand requests samples of a recording starting at offset
// (1-based)
func RecordDataCommand(index uint16, offset uint32) Command {
	payload := binary.LittleEndian.AppendUint32(indexed(CmdGetRecordData, index), offset)
	return Command{Name: "get record data", Payload: payload}
}

// MonitorCommand starts or stops periodic measurement reports
func MonitorCommand(enabled bool) Command {
	name := "monitor off"
	if enabled {
		name = "monitor on"
	}
	return Command{Name: name, Payload: []byte{CmdMonitor, boolByte(enabled)}}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
