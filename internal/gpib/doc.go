// Package gpib implements the host-side driver for a Prologix-style
// GPIB-over-serial bridge.
//
// The bridge adapter speaks an ASCII meta-protocol over a serial link: lines
// prefixed with "++" configure the bridge itself (selected bus address,
// operating mode, firmware version, read trigger), while any other line is
// forwarded verbatim to the instrument currently addressed on the IEEE-488
// bus.
//
// # Architecture
//
// The package is layered bottom-up:
//
//	┌──────────────┐          ┌──────────────┐           ┌────────────┐
//	│  Instrument  │──write──►│  Controller  │──bytes───►│  Channel   │
//	│  (registry)  │◄──read───│  (bridge)    │◄──bytes───│  (serial)  │
//	└──────────────┘          └──────────────┘           └────────────┘
//
//   - Command and Query describe a single named wire command and how its
//     response (if any) is framed.
//   - Registry maps names to descriptors and dispatches them through its
//     owning Instrument via Invoke.
//   - Controller owns the byte channel, tracks the address currently
//     selected on the bridge, and exposes the "++" meta-commands.
//   - Instrument represents one addressable bus device and re-selects its
//     address on the bridge only when it differs from the cached selection.
//
// # Addressing
//
// The bridge holds exactly one selected bus address at a time. The Controller
// caches the last address it set so that consecutive writes to the same
// instrument do not reissue "++addr". Writes to a different instrument
// silently re-address first.
//
// # Thread Safety
//
// The bridge is a single half-duplex session, so the Controller serialises
// all wire operations behind one mutex: one in-flight request at a time.
// All exported types are safe for concurrent use.
//
// # Errors
//
// Failures are sentinel errors checked with errors.Is; see errors.go. A
// response that matches a known bridge error string (for example
// "Unrecognized Command") fails the read with ErrUnrecognizedCommand instead
// of being returned as data.
package gpib
