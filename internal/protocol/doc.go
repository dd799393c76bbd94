// Package protocol implements the UT181A multimeter binary protocol.
//
// This package handles framing, resynchronization, and decoding of the
// messages exchanged with a UT181A-class handheld multimeter, as well as
// construction of the request payloads the meter accepts. The meter talks
// over a UART tunneled through a USB HID bridge; this package only ever sees
// the byte stream.
//
// # Frame Format
//
// Every message on the wire is wrapped in the same frame:
//   - Marker: 2 bytes (0xAB 0xCD)
//   - Length: 2 bytes (little-endian), payload length + 2
//   - Payload: Variable length, first byte is the message tag
//   - Checksum: 2 bytes (little-endian)
//
// The checksum is a 16-bit wrapping sum of the two length bytes and every
// payload byte.
//
// # Message Types
//
// The first payload byte selects the message shape:
//   - 0x01: Reply code ("OK" or "ER")
//   - 0x02: Live measurement
//   - 0x03: Saved measurement (timestamp + measurement)
//   - 0x04: Record information
//   - 0x05: Batch of record samples
//   - 0x72: Raw reply (counters)
//
// Measurements come in four mutually exclusive layouts (normal, relative,
// min/max and peak) selected by bits of the measurement tag byte.
//
// # Usage Example - Scanning
//
//	// buf accumulates bytes read from the transport
//	msg, consumed, err := protocol.Scan(buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if msg == nil {
//	    // need more bytes
//	}
//	buf = buf[consumed:]
//
//	switch m := msg.(type) {
//	case *protocol.MeasurementMessage:
//	    fmt.Println(m.Measurement)
//	}
//
// # Usage Example - Construction
//
//	cmd := protocol.SetModeCommand(protocol.ModeVDC)
//	_, err := port.Write(cmd.Frame())
//
// # Resynchronization
//
// The scanner tolerates garbage before a frame, partial frames and frames
// with a corrupted checksum. A marker whose frame does not validate is
// skipped and the search continues within the same call.
//
// # Error Handling
//
// Decoding failures are reported as *DecodeError carrying the offending raw
// code, unit text or date/time components. Use errors.Is with the exported
// sentinels (ErrUnknownMeasurementMode, ErrInvalidDateTime, ...) to test
// for a category.
//
// # Thread Safety
//
// All functions in this package are stateless and safe for concurrent use.
package protocol
