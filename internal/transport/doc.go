// Package transport connects the meter engine to a serial port.
//
// Serial wraps go.bug.st/serial with the short read timeout and bounded
// writes the engine expects from its byte stream. ListPorts enumerates
// candidate ports and flags the USB UART bridges used by the meter's
// cables.
package transport
