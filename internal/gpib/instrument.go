package gpib

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultIdentCommand is the IEEE-488 identification query issued during
// the attach handshake.
const DefaultIdentCommand = "*IDN?"

// identName is the registry key of the identification query.
const identName = "ident"

// baseQueries is the IEEE-488 common query set pre-registered on every
// instrument. The "?" is appended at render time. The ident query reads
// until the line terminator; the rest use the default fixed read.
var baseQueries = map[string]QuerySpec{
	identName:                {Text: "*IDN", ReadBytes: ReadUntilTerminator},
	"event_status_enable":    {Text: "*ESE"},
	"event_status_register":  {Text: "*ESR"},
	"operation_complete":     {Text: "*OPC"},
	"options":                {Text: "*OPT"},
	"service_request_enable": {Text: "*SRE"},
	"read_status_byte":       {Text: "*STB"},
	"self_test":              {Text: "*TST"},
}

// baseCommands is the IEEE-488 common command set pre-registered on every
// instrument.
var baseCommands = map[string]string{
	"clear":                     "*CLS",
	"event_status_enable":       "*ESE",
	"operation_complete":        "*OPC",
	"recall_instrument_setting": "*RCL",
	"reset":                     "*RST",
	"save":                      "*SAV",
	"service_request_enable":    "*SRE",
	"wait":                      "*WAI",
}

// InstrumentOption configures an Instrument at construction.
type InstrumentOption func(*Instrument)

// WithName sets the instrument name ahead of identification. A successful
// ident handshake overwrites it with the device's reported identity.
func WithName(name string) InstrumentOption {
	return func(i *Instrument) { i.name = name }
}

// WithIdentCommand overrides the identification query text (for example
// "ID?" on instruments predating IEEE-488.2).
func WithIdentCommand(text string) InstrumentOption {
	return func(i *Instrument) { i.ident = text }
}

// WithQueries merges instrument-specific queries into the query registry.
// Base entries win on name collision.
func WithQueries(table map[string]QuerySpec) InstrumentOption {
	return func(i *Instrument) { i.extraQueries = table }
}

// WithCommands merges instrument-specific commands into the command
// registry. Base entries win on name collision.
func WithCommands(table map[string]string) InstrumentOption {
	return func(i *Instrument) { i.extraCommands = table }
}

// Instrument represents one addressable device on the GPIB bus.
//
// An instrument is constructed standalone and attached to a Controller via
// AddInstrument, which runs the identification handshake. The controller
// owns the instrument map; the instrument holds only a borrowed reference
// back.
//
// Query and Command are the instrument's vocabulary, pre-populated with the
// IEEE-488 common set and extended per instrument.
type Instrument struct {
	mu      sync.RWMutex
	address int
	name    string
	ident   string
	conn    *Controller

	extraQueries  map[string]QuerySpec
	extraCommands map[string]string

	// Query holds the query vocabulary (write + read-back).
	Query *Registry

	// Command holds the command vocabulary (write only).
	Command *Registry
}

// NewInstrument creates an instrument at the given bus address. The address
// is validated at attach time, so a placeholder is acceptable here when
// AddInstrumentAt supplies the real one.
func NewInstrument(address int, opts ...InstrumentOption) *Instrument {
	i := &Instrument{
		address: address,
		ident:   DefaultIdentCommand,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.Query = newRegistry(i)
	i.Command = newRegistry(i)

	// The ident entry goes in first so a custom ident command beats the
	// base table under first-wins registration.
	if i.ident != DefaultIdentCommand {
		_ = i.Query.Add(NewQueryN(identName, strings.TrimSuffix(i.ident, "?"), ReadUntilTerminator))
	}
	i.Query.AddQueries(baseQueries)
	i.Command.AddCommands(baseCommands)
	if i.extraQueries != nil {
		i.Query.AddQueries(i.extraQueries)
	}
	if i.extraCommands != nil {
		i.Command.AddCommands(i.extraCommands)
	}

	return i
}

// Address returns the instrument's bus address.
func (i *Instrument) Address() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.address
}

// SetAddress stores a new bus address locally. It does not touch the
// transport; the next write re-addresses the bridge if needed.
func (i *Instrument) SetAddress(address int) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.address = address
	return nil
}

// Name returns the instrument name, typically the identity reported during
// the attach handshake.
func (i *Instrument) Name() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.name
}

// Connection returns the attached controller, or nil when unattached.
func (i *Instrument) Connection() *Controller {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.conn
}

// Write sends command text to this instrument. When the bridge's selected
// address differs from the instrument's, the bridge is re-addressed first;
// matching addresses skip the redundant "++addr".
//
// Returns ErrNotConnected when the instrument is not attached.
func (i *Instrument) Write(text string) error {
	conn := i.Connection()
	if conn == nil {
		return ErrNotConnected
	}

	address := i.Address()
	if address != conn.Address() {
		if err := conn.SetAddress(address); err != nil {
			return err
		}
	}
	return conn.Write(text)
}

// Read reads up to n response bytes from this instrument through the
// attached controller. Returns ErrNotConnected when unattached.
func (i *Instrument) Read(n int) (string, error) {
	conn := i.Connection()
	if conn == nil {
		return "", ErrNotConnected
	}
	return conn.Read(n)
}

// ReadLine reads a line-terminated response from this instrument through
// the attached controller. Returns ErrNotConnected when unattached.
func (i *Instrument) ReadLine() (string, error) {
	conn := i.Connection()
	if conn == nil {
		return "", ErrNotConnected
	}
	return conn.ReadLine()
}

// AddConnection stores the controller back-reference and runs the
// identification handshake: the ident query is issued and a non-empty
// response becomes the instrument name.
//
// The returned bool reports whether identification succeeded. Failure is
// not fatal; the caller may proceed with an unconfirmed identity, but the
// controller will not mark the address occupied.
func (i *Instrument) AddConnection(conn *Controller) bool {
	i.mu.Lock()
	i.conn = conn
	i.mu.Unlock()

	resp, err := i.Query.Invoke(identName)
	if err != nil || resp == "" {
		return false
	}

	i.mu.Lock()
	i.name = resp
	i.mu.Unlock()
	return true
}

// label names the instrument for diagnostics.
func (i *Instrument) label() string {
	if name := i.Name(); name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("instrument at address %d", i.Address())
}
