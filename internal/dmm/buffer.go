package dmm

// rxBuffer accumulates bytes read from the transport until a complete frame
// can be decoded.
type rxBuffer struct {
	buf   []byte
	limit int
}

func newRxBuffer(capacity, limit int) *rxBuffer {
	return &rxBuffer{buf: make([]byte, 0, capacity), limit: limit}
}

// Append adds data, dropping the oldest bytes if the buffer would exceed
// its limit. It returns the number of bytes dropped.
func (b *rxBuffer) Append(data []byte) int {
	b.buf = append(b.buf, data...)
	over := len(b.buf) - b.limit
	if over <= 0 {
		return 0
	}
	b.Consume(over)
	return over
}

// Bytes returns the buffered bytes. The slice is valid until the next call
// to Append or Consume.
func (b *rxBuffer) Bytes() []byte {
	return b.buf
}

// Consume discards the first n bytes
func (b *rxBuffer) Consume(n int) {
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	b.buf = b.buf[:copy(b.buf, b.buf[n:])]
}

// Len returns the number of buffered bytes
func (b *rxBuffer) Len() int {
	return len(b.buf)
}

// Reset discards everything
func (b *rxBuffer) Reset() {
	b.buf = b.buf[:0]
}
