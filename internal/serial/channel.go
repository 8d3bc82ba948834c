package serial

import (
	"errors"
	"fmt"
	"time"

	bserial "go.bug.st/serial"
)

// ErrOpenFailed is returned when the serial port cannot be opened. Fatal at
// construction; not retried.
var ErrOpenFailed = errors.New("serial: open failed")

// Defaults matching the bridge adapter's factory settings.
const (
	// DefaultBaudRate is the bridge's fixed virtual COM port speed.
	DefaultBaudRate = 115200

	// DefaultReadTimeout bounds every read operation.
	DefaultReadTimeout = 1 * time.Second
)

// Config holds serial channel settings.
type Config struct {
	// Port is the serial device path, e.g. "/dev/ttyUSB0" or "COM3".
	Port string

	// BaudRate is the line speed. Default: 115200.
	BaudRate int

	// ReadTimeout bounds each read operation. Default: 1 second.
	ReadTimeout time.Duration
}

// Channel is a duplex byte stream over one serial port.
//
// Reads are bounded by the configured timeout: Read returns once the buffer
// is full or the timeout expires with whatever arrived, and ReadUntil
// returns early when no further bytes show up before the terminator. This
// matches the gpib.Channel contract where a timeout is "no data", not a
// structural error.
type Channel struct {
	port    bserial.Port
	timeout time.Duration
}

// Open opens the serial port described by cfg and applies the read timeout.
// A failure to open is wrapped in ErrOpenFailed.
func Open(cfg Config) (*Channel, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: no port configured", ErrOpenFailed)
	}

	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	port, err := bserial.Open(cfg.Port, &bserial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, cfg.Port, err)
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: setting read timeout: %v", ErrOpenFailed, err)
	}

	return &Channel{port: port, timeout: timeout}, nil
}

// Write sends the bytes to the port.
func (c *Channel) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// Read fills p until the buffer is full or the read timeout expires. The
// returned count may be short (or zero) on timeout; that is not an error.
func (c *Channel) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := c.port.Read(p[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break // Timeout, no more data coming
		}
		total += n
	}
	return total, nil
}

// ReadUntil reads byte-by-byte until delim is seen or the read timeout
// expires. The delimiter is included when found.
func (c *Channel) ReadUntil(delim byte) ([]byte, error) {
	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := c.port.Read(buf)
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil // Timeout
		}
		out = append(out, buf[0])
		if buf[0] == delim {
			return out, nil
		}
	}
}

// Close releases the serial port.
func (c *Channel) Close() error {
	return c.port.Close()
}

// ListPorts returns the serial device paths present on the system.
func ListPorts() ([]string, error) {
	return bserial.GetPortsList()
}
