package dmm

import (
	"io"
	"sync"
	"time"

	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/monitor"
	"github.com/muurk/ut181a/internal/protocol"
	"go.uber.org/zap"
)

const (
	// DefaultWaitTimeout bounds every wait for a reply
	DefaultWaitTimeout = 5000 * time.Millisecond

	// RxBufferSize is the initial receive buffer capacity
	RxBufferSize = 4096

	// RxBufferLimit is the most the receive buffer holds before dropping
	// the oldest bytes. One maximum-size frame always fits.
	RxBufferLimit = protocol.MaxPayloadSize + protocol.FrameOverhead

	// ReadChunkSize is the size of each transport read
	ReadChunkSize = 64
)

// Transport is the byte stream to the meter.
//
// Read must return within a short timeout; returning 0 bytes with a nil
// error means nothing arrived. Write sends a whole frame.
type Transport interface {
	io.Reader
	io.Writer
}

// Option configures a Client
type Option func(*Client)

// WithWaitTimeout overrides DefaultWaitTimeout
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

// WithMetrics records traffic in m
func WithMetrics(m *monitor.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock replaces time.Now for deadline checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client runs request/response exchanges with a meter over a Transport.
//
// Operations are serialized; a Client may be shared between goroutines but
// only one exchange is in flight at a time.
type Client struct {
	transport   Transport
	rx          *rxBuffer
	chunk       []byte
	scanner     protocol.Scanner
	waitTimeout time.Duration
	now         func() time.Time
	metrics     *monitor.Metrics

	mu sync.Mutex
}

// New creates a client on an already opened transport
func New(t Transport, opts ...Option) *Client {
	c := &Client{
		transport:   t,
		rx:          newRxBuffer(RxBufferSize, RxBufferLimit),
		chunk:       make([]byte, ReadChunkSize),
		waitTimeout: DefaultWaitTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.scanner.OnResync = func(offset int, computed, embedded uint16) {
		c.metrics.ObserveResync()
		logging.Debug("Skipping corrupt frame",
			zap.Int("offset", offset),
			zap.Uint16("computed_checksum", computed),
			zap.Uint16("embedded_checksum", embedded),
		)
	}
	return c
}

// WaitTimeout returns the configured wait deadline
func (c *Client) WaitTimeout() time.Duration {
	return c.waitTimeout
}

// ReadMessage returns the next message from the meter, reading the
// transport until one decodes or the wait deadline elapses.
func (c *Client) ReadMessage() (protocol.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.readMessageUntil("read message", c.now().Add(c.waitTimeout))
}

// readMessageUntil decodes buffered data first and only reads the transport
// when no complete frame is buffered. Messages already buffered are returned
// even after the deadline.
func (c *Client) readMessageUntil(op string, deadline time.Time) (protocol.Message, error) {
	for {
		msg, consumed, err := c.scanner.Scan(c.rx.Bytes())
		if consumed > 0 {
			c.rx.Consume(consumed)
		}
		if err != nil {
			c.metrics.ObserveDecodeError()
			logging.Warn("Dropping undecodable frame", zap.String("command", op), zap.Error(err))
			return nil, NewDecodeError(op, err)
		}
		if msg != nil {
			c.metrics.ObserveFrame(messageTypeName(msg))
			return msg, nil
		}

		if !c.now().Before(deadline) {
			c.metrics.ObserveTimeout(op)
			return nil, NewTimeoutError(op)
		}

		n, err := c.transport.Read(c.chunk)
		if err != nil {
			return nil, NewTransportError(op, err)
		}
		if n > 0 {
			logging.LogRawBytes("Serial read", c.chunk[:n])
			c.metrics.ObserveBytes(n)
			if dropped := c.rx.Append(c.chunk[:n]); dropped > 0 {
				logging.Warn("Receive buffer full, dropped oldest bytes", zap.Int("dropped", dropped))
			}
		}
	}
}

// send writes cmd as one frame
func (c *Client) send(cmd protocol.Command) error {
	frame := cmd.Frame()
	logging.LogFrame("tx", cmd.Name, frame)

	n, err := c.transport.Write(frame)
	if err == nil && n < len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return NewWriteError(cmd.Name, err)
	}
	return nil
}

// waitFor reads messages until match accepts one. An error reply from the
// meter ends the wait; other messages are discarded.
func (c *Client) waitFor(op string, deadline time.Time, match func(protocol.Message) bool) (protocol.Message, error) {
	for {
		msg, err := c.readMessageUntil(op, deadline)
		if err != nil {
			return nil, err
		}
		if _, ok := msg.(*protocol.ErrorMessage); ok {
			c.metrics.ObserveDeviceError(op)
			return nil, NewCommandError(op)
		}
		if match(msg) {
			return msg, nil
		}
		logging.Debug("Discarding message", zap.String("command", op), zap.Stringer("message", msg))
	}
}

// exec sends cmd and waits for the reply match accepts
func (c *Client) exec(cmd protocol.Command, match func(protocol.Message) bool) (protocol.Message, error) {
	start := c.now()
	if err := c.send(cmd); err != nil {
		return nil, err
	}

	msg, err := c.waitFor(cmd.Name, start.Add(c.waitTimeout), match)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveCommand(cmd.Name, c.now().Sub(start))
	return msg, nil
}

// Message matchers

func isSuccess(msg protocol.Message) bool {
	_, ok := msg.(*protocol.SuccessMessage)
	return ok
}

func isMeasurement(msg protocol.Message) bool {
	_, ok := msg.(*protocol.MeasurementMessage)
	return ok
}

func isSuccessOrMeasurement(msg protocol.Message) bool {
	return isSuccess(msg) || isMeasurement(msg)
}

func isSaved(msg protocol.Message) bool {
	_, ok := msg.(*protocol.SavedMeasurementMessage)
	return ok
}

func isRecordInfo(msg protocol.Message) bool {
	_, ok := msg.(*protocol.RecordInfoMessage)
	return ok
}

func isRecordData(msg protocol.Message) bool {
	_, ok := msg.(*protocol.RecordDataMessage)
	return ok
}

// isReplyTo matches a raw reply echoing opcode
func isReplyTo(opcode byte) func(protocol.Message) bool {
	return func(msg protocol.Message) bool {
		r, ok := msg.(*protocol.ReplyMessage)
		return ok && len(r.Data) > 0 && r.Data[0] == opcode
	}
}

func messageTypeName(msg protocol.Message) string {
	switch msg.(type) {
	case *protocol.SuccessMessage:
		return "success"
	case *protocol.ErrorMessage:
		return "error"
	case *protocol.MeasurementMessage:
		return "measurement"
	case *protocol.SavedMeasurementMessage:
		return "saved_measurement"
	case *protocol.ReplyMessage:
		return "reply"
	case *protocol.RecordInfoMessage:
		return "record_info"
	case *protocol.RecordDataMessage:
		return "record_data"
	default:
		return "unknown"
	}
}
