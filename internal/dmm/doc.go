// Package dmm drives a UT181A multimeter over a byte-stream transport.
//
// A Client owns the receive buffer and runs one request/response exchange
// at a time: it writes a command frame, then reads and decodes messages
// until the expected reply arrives, the meter answers with an error, or the
// wait deadline (5 s by default) elapses. Messages that do not match the
// pending request, such as periodic measurement reports, are discarded.
//
// # Usage
//
//	port, err := transport.Open(transport.DefaultConfig("/dev/ttyUSB0"))
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	meter := dmm.New(port, dmm.WithWaitTimeout(3*time.Second))
//	if err := meter.MonitorOn(); err != nil {
//	    return err
//	}
//	m, err := meter.Measurement()
//
// # Errors
//
// All errors returned by Client methods are *MeterError. Use IsTimeout,
// IsCommandError, IsValidationError and friends, or errors.Is with
// ErrWaitTimeout and ErrCommandError. Parameter validation happens before
// any I/O.
package dmm
