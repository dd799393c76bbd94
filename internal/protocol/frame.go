package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame constants
const (
	MarkerByte1 = 0xAB
	MarkerByte2 = 0xCD

	HeaderSize    = 4 // marker + length
	ChecksumSize  = 2
	FrameOverhead = HeaderSize + ChecksumSize

	// MaxPayloadSize is the largest payload the 16-bit length field can carry
	MaxPayloadSize = 0xFFFF - ChecksumSize
)

var frameMarker = []byte{MarkerByte1, MarkerByte2}

// ErrIncomplete is returned by SplitFrame when the buffer does not yet hold
// a whole frame.
var ErrIncomplete = errors.New("incomplete frame")

// errBadLength marks a length field too small to hold the checksum.
// Such a marker can only be noise, so it is skipped like a checksum mismatch.
var errBadLength = errors.New("frame length shorter than checksum")

// Checksum computes the frame checksum for a payload.
//
// The sum is seeded with 2 plus the low and high bytes of the payload
// length, then adds every payload byte, wrapping at 16 bits.
func Checksum(payload []byte) uint16 {
	n := len(payload)
	sum := uint16(2 + (n & 0xFF) + ((n >> 8) & 0xFF))
	for _, b := range payload {
		sum += uint16(b)
	}
	return sum
}

// BuildFrame wraps a payload in a complete wire frame.
//
// Frame Structure:
//
//	[0-1]   0xAB 0xCD      Marker
//	[2-3]   length         Payload length + 2 (little-endian uint16)
//	[4+]    payload        Message payload bytes
//	[N-2:N] checksum       Checksum (little-endian uint16)
func BuildFrame(payload []byte) []byte {
	frame := make([]byte, FrameOverhead+len(payload))

	frame[0] = MarkerByte1
	frame[1] = MarkerByte2
	binary.LittleEndian.PutUint16(frame[2:4], uint16(len(payload)+ChecksumSize))
	copy(frame[HeaderSize:], payload)
	binary.LittleEndian.PutUint16(frame[HeaderSize+len(payload):], Checksum(payload))

	return frame
}

// rawFrame is a frame located in a buffer, not yet validated
type rawFrame struct {
	start    int // index of the marker
	end      int // index just past the checksum
	payload  []byte
	checksum uint16
}

// locateFrame finds the first marker in buf and splits the frame behind it.
//
// When the marker was found but the frame cannot be used, start is still
// set so the caller can skip past it.
func locateFrame(buf []byte) (rawFrame, error) {
	start := bytes.Index(buf, frameMarker)
	if start < 0 {
		return rawFrame{start: -1}, ErrIncomplete
	}

	f := rawFrame{start: start}
	lenPos := start + len(frameMarker)
	if len(buf) < lenPos+2 {
		return f, ErrIncomplete
	}

	length := int(binary.LittleEndian.Uint16(buf[lenPos:]))
	if length < ChecksumSize {
		return f, errBadLength
	}

	bodyPos := lenPos + 2
	if len(buf) < bodyPos+length {
		return f, ErrIncomplete
	}

	sumPos := bodyPos + length - ChecksumSize
	f.payload = buf[bodyPos:sumPos]
	f.checksum = binary.LittleEndian.Uint16(buf[sumPos:])
	f.end = bodyPos + length

	return f, nil
}

// SplitFrame locates the first frame in buf without validating its checksum.
//
// It returns the payload, the embedded checksum and the number of bytes
// from the start of buf through the end of the checksum. ErrIncomplete is
// returned when more bytes are needed. The payload aliases buf.
func SplitFrame(buf []byte) (payload []byte, checksum uint16, consumed int, err error) {
	f, err := locateFrame(buf)
	if err != nil {
		return nil, 0, 0, err
	}
	return f.payload, f.checksum, f.end, nil
}

// ValidateFrame checks that frame holds exactly one well-formed frame with
// a matching checksum. Useful for testing outgoing frames.
func ValidateFrame(frame []byte) error {
	if len(frame) < FrameOverhead {
		return fmt.Errorf("frame too small: %d bytes (minimum %d)", len(frame), FrameOverhead)
	}
	if frame[0] != MarkerByte1 || frame[1] != MarkerByte2 {
		return fmt.Errorf("invalid marker: 0x%02X%02X", frame[0], frame[1])
	}

	f, err := locateFrame(frame)
	if err != nil {
		return fmt.Errorf("invalid frame: %w", err)
	}
	if f.end != len(frame) {
		return fmt.Errorf("frame length mismatch: declared %d bytes, got %d", f.end, len(frame))
	}
	if want := Checksum(f.payload); want != f.checksum {
		return fmt.Errorf("checksum mismatch: computed 0x%04X, embedded 0x%04X", want, f.checksum)
	}
	return nil
}
