package gpib

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Bridge meta-commands.
const (
	cmdVersion = "++ver"
	cmdMode    = "++mode"
	cmdAddr    = "++addr"
	cmdReadEOI = "++read eoi"
)

// Response sizes for the bridge meta-queries.
const (
	versionReadBytes = 100
	addressReadBytes = 10
	modeReadBytes    = 1
)

// DefaultLineTerminator is appended to every line written to the bridge.
const DefaultLineTerminator = "\n"

// maxPrimaryAddress is the highest valid GPIB primary address.
const maxPrimaryAddress = 30

// addressUnknown is the cached address value before the bridge has been
// queried.
const addressUnknown = -1

// Mode is the bridge operating mode.
type Mode int

// Bridge operating modes.
const (
	// ModeDevice makes the bridge act as a GPIB device.
	ModeDevice Mode = 0

	// ModeController makes the bridge act as the GPIB bus controller.
	ModeController Mode = 1
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDevice:
		return "device"
	case ModeController:
		return "controller"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Stats holds operational counters for the bridge session.
type Stats struct {
	WritesTotal    uint64
	ReadsTotal     uint64
	ErrorsTotal    uint64
	AddressChanges uint64
	LastActivity   time.Time
	Connected      bool
}

// Option configures a Controller before the bridge handshake runs.
type Option func(*Controller)

// WithMode sets the operating mode selected during construction.
// Default: ModeController.
func WithMode(m Mode) Option {
	return func(c *Controller) { c.mode = m }
}

// WithLineTerminator sets the line terminator appended to every write.
// Default: "\n".
func WithLineTerminator(term string) Option {
	return func(c *Controller) { c.lineEnd = term }
}

// WithLogger sets the logger used by the controller.
func WithLogger(logger Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithTraceRecorder sets a recorder that receives every wire exchange.
func WithTraceRecorder(rec TraceRecorder) Option {
	return func(c *Controller) { c.trace = rec }
}

// Controller drives one Prologix-style bridge over one byte channel.
//
// It tracks the bus address currently selected on the bridge so instruments
// can skip redundant "++addr" traffic, and it maps recognised bridge error
// strings to typed failures.
//
// Thread Safety:
//   - All wire operations are serialised behind one mutex. The bridge is a
//     single half-duplex session with implicit state (selected address,
//     mode); there is never more than one in-flight request.
type Controller struct {
	channel Channel
	lineEnd string
	logger  Logger
	trace   TraceRecorder

	// mu serialises all wire operations and guards the cached bridge state.
	mu      sync.Mutex
	address int
	mode    Mode
	version string
	closed  bool

	// instMu guards the instrument map only; the handshake in AddInstrument
	// runs wire operations and must not hold it.
	instMu      sync.Mutex
	instruments map[int]*Instrument

	stats Stats
}

// New constructs a Controller around an open byte channel and performs the
// bridge handshake: query the firmware version, select the operating mode
// (CONTROLLER unless overridden), and query the currently selected bus
// address to seed the cache.
//
// Any handshake failure is fatal; the channel is left open for the caller.
func New(channel Channel, opts ...Option) (*Controller, error) {
	c := &Controller{
		channel:     channel,
		lineEnd:     DefaultLineTerminator,
		logger:      noopLogger{},
		address:     addressUnknown,
		mode:        ModeController,
		instruments: make(map[int]*Instrument),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := c.QueryVersion(); err != nil {
		return nil, fmt.Errorf("querying bridge version: %w", err)
	}
	if err := c.SetMode(c.mode); err != nil {
		return nil, fmt.Errorf("setting bridge mode: %w", err)
	}
	if _, err := c.QueryAddress(); err != nil {
		return nil, fmt.Errorf("querying bridge address: %w", err)
	}

	c.logger.Info("bridge connected",
		"version", c.Version(),
		"mode", c.Mode().String(),
		"address", c.Address(),
	)
	return c, nil
}

// Write sends one line to the bridge: the text plus the configured line
// terminator. No read follows a plain write.
func (c *Controller) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(text)
}

// Read triggers a device read ("++read eoi") and returns up to n bytes of
// response, trimmed of surrounding whitespace. A payload matching a known
// bridge error string fails with the corresponding typed error.
func (c *Controller) Read(n int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readResponse(n)
}

// ReadLine triggers a device read and returns the response up to the line
// terminator, trimmed, with the same error-string mapping as Read.
func (c *Controller) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLineResponse()
}

// QueryAddress asks the bridge for its currently selected bus address and
// updates the cache.
func (c *Controller) QueryAddress() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(cmdAddr); err != nil {
		return 0, err
	}
	resp, err := c.readResponse(addressReadBytes)
	if err != nil {
		return 0, err
	}
	addr, err := parseAddress(resp)
	if err != nil {
		return 0, err
	}
	c.address = addr
	return addr, nil
}

// SetAddress selects a bus address on the bridge. The cached address is
// updated only after the write succeeds.
func (c *Controller) SetAddress(address int) error {
	if err := validateAddress(address); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(fmt.Sprintf("%s %d", cmdAddr, address)); err != nil {
		return err
	}
	c.address = address
	c.stats.AddressChanges++
	return nil
}

// QueryMode asks the bridge for its operating mode and updates the cache.
func (c *Controller) QueryMode() (Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(cmdMode); err != nil {
		return 0, err
	}
	resp, err := c.readResponse(modeReadBytes)
	if err != nil {
		return 0, err
	}
	mode, err := parseMode(resp)
	if err != nil {
		return 0, err
	}
	c.mode = mode
	return mode, nil
}

// SetMode sets the bridge operating mode. The cached mode is updated only
// after the write succeeds.
func (c *Controller) SetMode(mode Mode) error {
	if err := validateMode(mode); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(fmt.Sprintf("%s %d", cmdMode, int(mode))); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

// QueryVersion asks the bridge for its firmware version string and caches
// it.
func (c *Controller) QueryVersion() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(cmdVersion); err != nil {
		return "", err
	}
	resp, err := c.readResponse(versionReadBytes)
	if err != nil {
		return "", err
	}
	c.version = resp
	return resp, nil
}

// AddInstrument attaches an instrument at its own bus address. See
// AddInstrumentAt.
func (c *Controller) AddInstrument(inst *Instrument) (bool, error) {
	if inst == nil {
		return false, fmt.Errorf("gpib: nil instrument")
	}
	return c.addInstrument(inst, inst.Address())
}

// AddInstrumentAt attaches an instrument at an explicit bus address,
// overriding the instrument's own.
//
// The address must not already be occupied (ErrAddressInUse names the
// current owner; no state is mutated). The instrument is re-addressed if
// needed, then identified via its ident query. The returned bool reports
// whether identification succeeded; an unidentified instrument is not
// stored in the map and its address stays free.
func (c *Controller) AddInstrumentAt(inst *Instrument, address int) (bool, error) {
	if inst == nil {
		return false, fmt.Errorf("gpib: nil instrument")
	}
	return c.addInstrument(inst, address)
}

func (c *Controller) addInstrument(inst *Instrument, address int) (bool, error) {
	if err := validateAddress(address); err != nil {
		return false, err
	}

	c.instMu.Lock()
	if owner, ok := c.instruments[address]; ok {
		c.instMu.Unlock()
		return false, fmt.Errorf("%w: address %d is held by %s", ErrAddressInUse, address, owner.label())
	}
	c.instMu.Unlock()

	if inst.Address() != address {
		if err := inst.SetAddress(address); err != nil {
			return false, err
		}
	}

	if !inst.AddConnection(c) {
		c.logger.Warn("instrument identification failed", "address", address)
		return false, nil
	}

	c.instMu.Lock()
	defer c.instMu.Unlock()
	if owner, ok := c.instruments[address]; ok {
		return false, fmt.Errorf("%w: address %d is held by %s", ErrAddressInUse, address, owner.label())
	}
	c.instruments[address] = inst

	c.logger.Info("instrument attached", "address", address, "name", inst.Name())
	return true, nil
}

// InstrumentAt returns the instrument mapped at the given bus address.
func (c *Controller) InstrumentAt(address int) (*Instrument, bool) {
	c.instMu.Lock()
	defer c.instMu.Unlock()
	inst, ok := c.instruments[address]
	return inst, ok
}

// Instruments returns the attached instruments ordered by bus address.
func (c *Controller) Instruments() []*Instrument {
	c.instMu.Lock()
	defer c.instMu.Unlock()

	out := make([]*Instrument, 0, len(c.instruments))
	for _, inst := range c.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address() < out[j].Address() })
	return out
}

// InstrumentCount returns the number of attached instruments.
func (c *Controller) InstrumentCount() int {
	c.instMu.Lock()
	defer c.instMu.Unlock()
	return len(c.instruments)
}

// Address returns the bus address last selected on the bridge, or -1 when
// unknown.
func (c *Controller) Address() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

// Mode returns the cached bridge operating mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Version returns the cached bridge firmware version.
func (c *Controller) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Stats returns a snapshot of the session counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Connected = !c.closed
	return s
}

// Close closes the underlying byte channel. The controller must not be used
// afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.channel.Close()
}

// write sends one terminated line. Caller must hold c.mu.
func (c *Controller) write(text string) error {
	if _, err := c.channel.Write([]byte(text + c.lineEnd)); err != nil {
		c.stats.ErrorsTotal++
		return fmt.Errorf("writing %q: %w", text, err)
	}
	c.stats.WritesTotal++
	c.stats.LastActivity = time.Now()
	if c.trace != nil {
		c.trace.RecordWrite(text)
	}
	c.logger.Debug("wire write", "text", text)
	return nil
}

// readResponse triggers a read and collects up to n bytes. Caller must hold
// c.mu.
func (c *Controller) readResponse(n int) (string, error) {
	if err := c.write(cmdReadEOI); err != nil {
		return "", err
	}

	buf := make([]byte, n)
	read, err := c.channel.Read(buf)
	if err != nil {
		c.stats.ErrorsTotal++
		return "", fmt.Errorf("reading %d bytes: %w", n, err)
	}
	return c.finishRead(string(buf[:read]))
}

// readLineResponse triggers a read and collects until the line terminator.
// Caller must hold c.mu.
func (c *Controller) readLineResponse() (string, error) {
	if err := c.write(cmdReadEOI); err != nil {
		return "", err
	}

	term := byte('\n')
	if c.lineEnd != "" {
		term = c.lineEnd[len(c.lineEnd)-1]
	}
	raw, err := c.channel.ReadUntil(term)
	if err != nil {
		c.stats.ErrorsTotal++
		return "", fmt.Errorf("reading line: %w", err)
	}
	return c.finishRead(string(raw))
}

// finishRead trims the payload, records it, and maps known error strings to
// typed failures. Caller must hold c.mu.
func (c *Controller) finishRead(raw string) (string, error) {
	resp := strings.TrimSpace(raw)

	c.stats.ReadsTotal++
	c.stats.LastActivity = time.Now()
	if c.trace != nil {
		c.trace.RecordRead(resp)
	}

	if err := checkErrorString(resp); err != nil {
		c.stats.ErrorsTotal++
		c.logger.Warn("bridge error response", "payload", resp)
		return "", err
	}

	c.logger.Debug("wire read", "text", resp)
	return resp, nil
}

// validateAddress rejects addresses outside the GPIB primary range.
func validateAddress(address int) error {
	if address < 0 || address > maxPrimaryAddress {
		return fmt.Errorf("%w: %d (want 0-%d)", ErrInvalidAddress, address, maxPrimaryAddress)
	}
	return nil
}

// parseAddress interprets a bridge response as a bus address.
func parseAddress(resp string) (int, error) {
	address, err := strconv.Atoi(resp)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, resp)
	}
	if err := validateAddress(address); err != nil {
		return 0, err
	}
	return address, nil
}

// validateMode rejects modes other than DEVICE (0) and CONTROLLER (1).
func validateMode(mode Mode) error {
	if mode != ModeDevice && mode != ModeController {
		return fmt.Errorf("%w: %d (want 0 or 1)", ErrInvalidMode, int(mode))
	}
	return nil
}

// parseMode interprets a bridge response as an operating mode.
func parseMode(resp string) (Mode, error) {
	v, err := strconv.Atoi(resp)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, resp)
	}
	mode := Mode(v)
	if err := validateMode(mode); err != nil {
		return 0, err
	}
	return mode, nil
}
