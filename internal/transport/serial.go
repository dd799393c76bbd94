package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/muurk/ut181a/internal/logging"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// Serial defaults for the meter's UART bridge
const (
	DefaultBaudRate     = 9600
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultWriteTimeout = 500 * time.Millisecond
)

// ErrWriteTimeout is returned when a write does not complete in time
var ErrWriteTimeout = errors.New("serial write timed out")

// ErrClosed is returned by operations on a closed port
var ErrClosed = errors.New("serial port closed")

// Config holds serial connection settings
type Config struct {
	PortPath     string
	BaudRate     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// withDefaults fills zero fields with the package defaults
func (c Config) withDefaults() Config {
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}

// Serial is a byte stream to the meter over a serial port.
//
// Read returns (0, nil) when nothing arrives within the read timeout.
type Serial struct {
	cfg  Config
	port serial.Port

	mu     sync.Mutex
	closed bool

	// held for the whole of a write so frames never interleave
	writeMu sync.Mutex
}

// opener is replaced in tests
var opener = func(path string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(path, mode)
}

// Open opens and configures the port described by cfg (8N1)
func Open(cfg Config) (*Serial, error) {
	cfg = cfg.withDefaults()
	if cfg.PortPath == "" {
		return nil, errors.New("no serial port configured")
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := opener(cfg.PortPath, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.PortPath, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.PortPath, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		logging.Warn("Could not flush serial input", zap.String("port", cfg.PortPath), zap.Error(err))
	}

	logging.Info("Serial port opened",
		zap.String("port", cfg.PortPath),
		zap.Int("baud", cfg.BaudRate),
		zap.Duration("read_timeout", cfg.ReadTimeout),
	)
	return &Serial{cfg: cfg, port: port}, nil
}

// Read reads whatever arrived within the read timeout
func (s *Serial) Read(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	return s.port.Read(p)
}

// Write writes p, failing with ErrWriteTimeout if the port blocks longer
// than the write timeout. A timed out write closes the port, so every later
// call returns ErrClosed.
func (s *Serial) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return 0, ErrClosed
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := s.port.Write(p)
		done <- result{n, err}
	}()

	timer := time.NewTimer(s.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.n, r.err
	case <-timer.C:
		logging.Warn("Serial write timed out, closing port",
			zap.String("port", s.cfg.PortPath),
			zap.Duration("timeout", s.cfg.WriteTimeout),
		)
		if err := s.Close(); err != nil {
			logging.Debug("Close after write timeout failed", zap.Error(err))
		}
		return 0, fmt.Errorf("%w after %v", ErrWriteTimeout, s.cfg.WriteTimeout)
	}
}

// Close closes the port. It is safe to call more than once.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	logging.Debug("Serial port closed", zap.String("port", s.cfg.PortPath))
	return s.port.Close()
}

// Path returns the port path
func (s *Serial) Path() string {
	return s.cfg.PortPath
}

func (s *Serial) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// PortInfo describes an available serial port
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// UART bridge chips fitted to the meter's USB adapters
var knownBridges = map[string]string{
	"10C4:EA80": "Silicon Labs CP2110",
	"1A86:E008": "WCH CH9325",
}

// Bridge returns the bridge chip name if the port is a known meter adapter.
//
// Both chips are USB HID devices. The enumerator only lists them when a
// driver exposes a tty for the adapter (e.g. a cp2110 or ch9325 kernel
// module), and then reports the adapter's own VID:PID. Without such a driver
// no port matches and the port must be given with --port.
func (p PortInfo) Bridge() string {
	if !p.IsUSB {
		return ""
	}
	return knownBridges[strings.ToUpper(p.VID+":"+p.PID)]
}

// portLister is replaced in tests
var portLister = enumerator.GetDetailedPortsList

// ListPorts returns the serial ports present on the system
func ListPorts() ([]PortInfo, error) {
	details, err := portLister()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}
