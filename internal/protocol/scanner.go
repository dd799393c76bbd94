package protocol

import (
	"errors"
	"fmt"
)

// Scanner locates and decodes frames in an accumulating receive buffer.
//
// The zero value is ready to use. OnResync, when set, is called for every
// marker that was skipped because its frame did not validate.
type Scanner struct {
	OnResync func(offset int, computed, embedded uint16)
}

// Scan decodes the first valid frame in buf using a zero Scanner.
func Scan(buf []byte) (Message, int, error) {
	var s Scanner
	return s.Scan(buf)
}

// Scan searches buf for the first frame whose checksum validates.
//
// Results:
//   - (msg, n, nil): a message was decoded; n bytes, counted from the start
//     of buf through the checksum, belong to it and anything before it
//   - (nil, 0, nil): no complete valid frame yet; nothing may be consumed
//   - (nil, n, err): a valid frame was found but its payload did not decode;
//     the caller should drop n bytes so the frame is not decoded again
//
// Markers followed by a corrupt frame are skipped and the search resumes
// right after the skipped marker, so several bad matches can be passed over
// in one call.
func (s *Scanner) Scan(buf []byte) (Message, int, error) {
	offset := 0
	for {
		f, err := locateFrame(buf[offset:])
		switch {
		case err == nil:
		case errors.Is(err, ErrIncomplete):
			return nil, 0, nil
		case errors.Is(err, errBadLength):
			s.skip(offset+f.start, 0, 0)
			offset += f.start + len(frameMarker)
			continue
		default:
			panic(fmt.Sprintf("protocol: frame scanner reached impossible state at offset %d: %v", offset, err))
		}

		computed := Checksum(f.payload)
		if computed != f.checksum {
			s.skip(offset+f.start, computed, f.checksum)
			offset += f.start + len(frameMarker)
			continue
		}

		consumed := offset + f.end
		msg, err := Classify(f.payload)
		if err != nil {
			return nil, consumed, err
		}
		return msg, consumed, nil
	}
}

func (s *Scanner) skip(offset int, computed, embedded uint16) {
	if s.OnResync != nil {
		s.OnResync(offset, computed, embedded)
	}
}
