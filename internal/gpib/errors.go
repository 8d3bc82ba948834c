package gpib

import (
	"errors"
	"fmt"
)

// Domain errors for the gpib package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, gpib.ErrAddressInUse) {
//	    // handle the conflict
//	}
var (
	// ErrAddressInUse is returned when an instrument is added at a bus
	// address that already has an instrument mapped.
	ErrAddressInUse = errors.New("gpib: address already in use")

	// ErrNotConnected is returned when an instrument operation requires a
	// transport but the instrument is not attached to a controller.
	ErrNotConnected = errors.New("gpib: instrument not attached to a controller")

	// ErrUnknownCommand is returned when invoking a command name that is
	// not registered.
	ErrUnknownCommand = errors.New("gpib: unknown command name")

	// ErrInvalidAddress is returned when a bus address is outside the
	// GPIB primary address range or cannot be parsed as an integer.
	ErrInvalidAddress = errors.New("gpib: invalid address")

	// ErrInvalidMode is returned when a mode value is neither DEVICE (0)
	// nor CONTROLLER (1).
	ErrInvalidMode = errors.New("gpib: invalid mode")

	// ErrInvalidName is returned when registering a descriptor with an
	// empty name.
	ErrInvalidName = errors.New("gpib: empty command name")

	// ErrProtocol is the base error for bridge-reported failures. All
	// recognised bridge error strings wrap this sentinel.
	ErrProtocol = errors.New("gpib: protocol error")
)

// ErrUnrecognizedCommand is returned when the bridge replies with its
// "Unrecognized Command" error string. It wraps ErrProtocol.
var ErrUnrecognizedCommand = fmt.Errorf("%w: unrecognized command", ErrProtocol)

// errorStrings maps trimmed response payloads to the typed failure they
// represent. A read whose payload matches a key fails with the mapped error
// instead of returning the payload as data.
var errorStrings = map[string]error{
	"Unrecognized Command": ErrUnrecognizedCommand,
}

// checkErrorString returns the typed failure for a known bridge error
// string, or nil if the payload is ordinary data.
func checkErrorString(payload string) error {
	if err, ok := errorStrings[payload]; ok {
		return err
	}
	return nil
}
