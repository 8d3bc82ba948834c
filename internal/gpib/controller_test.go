package gpib

import (
	"errors"
	"testing"
)

func TestNewHandshake(t *testing.T) {
	ch := newScriptChannel(handshakeReplies("3.0", "6"))

	c, err := New(ch)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if c.Version() != "3.0" {
		t.Errorf("Version() = %q, want %q", c.Version(), "3.0")
	}
	if c.Mode() != ModeController {
		t.Errorf("Mode() = %v, want ModeController", c.Mode())
	}
	if c.Address() != 6 {
		t.Errorf("Address() = %d, want 6", c.Address())
	}

	// The handshake issues version query, mode set, then address query.
	writes := ch.writtenLines()
	want := []string{"++ver", "++read eoi", "++mode 1", "++addr", "++read eoi"}
	if len(writes) != len(want) {
		t.Fatalf("writes = %v, want %v", writes, want)
	}
	for i := range want {
		if writes[i] != want[i] {
			t.Errorf("writes[%d] = %q, want %q", i, writes[i], want[i])
		}
	}
}

func TestNewDeviceMode(t *testing.T) {
	ch := newScriptChannel(handshakeReplies("3.0", "0"))

	c, err := New(ch, WithMode(ModeDevice))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c.Mode() != ModeDevice {
		t.Errorf("Mode() = %v, want ModeDevice", c.Mode())
	}

	for _, line := range ch.writtenLines() {
		if line == "++mode 1" {
			t.Error("handshake issued ++mode 1 despite WithMode(ModeDevice)")
		}
	}
}

func TestNewFailsOnWriteError(t *testing.T) {
	ch := newScriptChannel(nil)
	portErr := errors.New("port gone")
	ch.setWriteErr(portErr)

	if _, err := New(ch); !errors.Is(err, portErr) {
		t.Errorf("New() error = %v, want wrapped %v", err, portErr)
	}
}

func TestNewFailsOnBadAddressResponse(t *testing.T) {
	ch := newScriptChannel(handshakeReplies("3.0", "garbage"))

	if _, err := New(ch); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("New() error = %v, want ErrInvalidAddress", err)
	}
}

func TestReadMapsErrorStrings(t *testing.T) {
	c, ch := newTestController(t, map[string]string{
		"BOGUS": "Unrecognized Command",
	})

	if err := c.Write("BOGUS"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	ch.clearWrites()

	_, err := c.Read(100)
	if !errors.Is(err, ErrUnrecognizedCommand) {
		t.Errorf("Read() error = %v, want ErrUnrecognizedCommand", err)
	}
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("Read() error = %v, want to wrap ErrProtocol", err)
	}
}

func TestReadTrimsPayload(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		"MEAS?": "  4.217e-01\r\n",
	})

	if err := c.Write("MEAS?"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	resp, err := c.Read(100)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if resp != "4.217e-01" {
		t.Errorf("Read() = %q, want trimmed payload", resp)
	}
}

func TestReadLineMapsErrorStrings(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		"BOGUS": "Unrecognized Command\n",
	})

	if err := c.Write("BOGUS"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	if _, err := c.ReadLine(); !errors.Is(err, ErrUnrecognizedCommand) {
		t.Errorf("ReadLine() error = %v, want ErrUnrecognizedCommand", err)
	}
}

func TestSetAddress(t *testing.T) {
	c, ch := newTestController(t, nil)

	if err := c.SetAddress(9); err != nil {
		t.Fatalf("SetAddress() error: %v", err)
	}
	if c.Address() != 9 {
		t.Errorf("Address() = %d, want 9", c.Address())
	}

	writes := ch.writtenLines()
	if len(writes) != 1 || writes[0] != "++addr 9" {
		t.Errorf("writes = %v, want [++addr 9]", writes)
	}
}

func TestSetAddressValidation(t *testing.T) {
	c, ch := newTestController(t, nil)

	tests := []struct {
		name    string
		address int
	}{
		{name: "negative", address: -1},
		{name: "above primary range", address: 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.SetAddress(tt.address); !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("SetAddress(%d) error = %v, want ErrInvalidAddress", tt.address, err)
			}
		})
	}

	if got := len(ch.writtenLines()); got != 0 {
		t.Errorf("invalid addresses reached the wire: %v", ch.writtenLines())
	}
	if c.Address() != 2 {
		t.Errorf("Address() = %d, want unchanged 2", c.Address())
	}
}

func TestSetAddressKeepsCacheOnWriteFailure(t *testing.T) {
	c, ch := newTestController(t, nil)
	ch.setWriteErr(errors.New("port gone"))

	if err := c.SetAddress(9); err == nil {
		t.Fatal("SetAddress() expected error, got nil")
	}
	if c.Address() != 2 {
		t.Errorf("Address() = %d, want unchanged 2 after failed write", c.Address())
	}
}

func TestSetModeValidation(t *testing.T) {
	c, _ := newTestController(t, nil)

	if err := c.SetMode(Mode(2)); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("SetMode(2) error = %v, want ErrInvalidMode", err)
	}
}

func TestQueryMode(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		cmdMode: "0",
	})

	mode, err := c.QueryMode()
	if err != nil {
		t.Fatalf("QueryMode() error: %v", err)
	}
	if mode != ModeDevice {
		t.Errorf("QueryMode() = %v, want ModeDevice", mode)
	}
	if c.Mode() != ModeDevice {
		t.Errorf("Mode() cache = %v, want ModeDevice", c.Mode())
	}
}

func TestQueryVersionRecaches(t *testing.T) {
	c, _ := newTestController(t, nil)

	ver, err := c.QueryVersion()
	if err != nil {
		t.Fatalf("QueryVersion() error: %v", err)
	}
	if ver != "1.6.0" || c.Version() != "1.6.0" {
		t.Errorf("QueryVersion() = %q (cached %q), want 1.6.0", ver, c.Version())
	}
}

func TestAddInstrument(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		"*IDN?": "ACME,Model1,SN123,1.0\n",
	})

	inst := NewInstrument(6)
	identified, err := c.AddInstrument(inst)
	if err != nil {
		t.Fatalf("AddInstrument() error: %v", err)
	}
	if !identified {
		t.Fatal("AddInstrument() = false, want identified")
	}

	got, ok := c.InstrumentAt(6)
	if !ok || got != inst {
		t.Error("InstrumentAt(6) did not return the attached instrument")
	}
	if inst.Name() != "ACME,Model1,SN123,1.0" {
		t.Errorf("Name() = %q, want identity", inst.Name())
	}
}

func TestAddInstrumentAddressConflict(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		"*IDN?": "ACME,Model1,SN123,1.0\n",
	})

	first := NewInstrument(6)
	if _, err := c.AddInstrument(first); err != nil {
		t.Fatalf("AddInstrument(first) error: %v", err)
	}

	second := NewInstrument(6)
	_, err := c.AddInstrument(second)
	if !errors.Is(err, ErrAddressInUse) {
		t.Fatalf("AddInstrument(second) error = %v, want ErrAddressInUse", err)
	}

	// The first instrument still owns the address; the map is unchanged.
	got, ok := c.InstrumentAt(6)
	if !ok || got != first {
		t.Error("InstrumentAt(6) changed owner after rejected add")
	}
	if c.InstrumentCount() != 1 {
		t.Errorf("InstrumentCount() = %d, want 1", c.InstrumentCount())
	}
}

func TestAddInstrumentHandshakeFailure(t *testing.T) {
	// No ident reply scripted: the identification read comes back empty.
	c, _ := newTestController(t, nil)

	inst := NewInstrument(6)
	identified, err := c.AddInstrument(inst)
	if err != nil {
		t.Fatalf("AddInstrument() error: %v", err)
	}
	if identified {
		t.Error("AddInstrument() = true, want identification failure")
	}

	// The unidentified instrument is not stored; its address stays free.
	if _, ok := c.InstrumentAt(6); ok {
		t.Error("InstrumentAt(6) found instrument after failed handshake")
	}
}

func TestAddInstrumentAtOverridesAddress(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		"*IDN?": "ACME,Model1,SN123,1.0\n",
	})

	inst := NewInstrument(4)
	identified, err := c.AddInstrumentAt(inst, 8)
	if err != nil {
		t.Fatalf("AddInstrumentAt() error: %v", err)
	}
	if !identified {
		t.Fatal("AddInstrumentAt() = false, want identified")
	}
	if inst.Address() != 8 {
		t.Errorf("Address() = %d, want re-assigned 8", inst.Address())
	}
	if _, ok := c.InstrumentAt(8); !ok {
		t.Error("InstrumentAt(8) did not find instrument")
	}
}

func TestInstrumentsSortedByAddress(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		"*IDN?": "ACME,Model1,SN123,1.0\n",
	})

	for _, addr := range []int{9, 3, 6} {
		if _, err := c.AddInstrument(NewInstrument(addr)); err != nil {
			t.Fatalf("AddInstrument(%d) error: %v", addr, err)
		}
	}

	insts := c.Instruments()
	want := []int{3, 6, 9}
	if len(insts) != len(want) {
		t.Fatalf("Instruments() returned %d, want %d", len(insts), len(want))
	}
	for i, inst := range insts {
		if inst.Address() != want[i] {
			t.Errorf("Instruments()[%d].Address() = %d, want %d", i, inst.Address(), want[i])
		}
	}
}

func TestStatsAndClose(t *testing.T) {
	c, ch := newTestController(t, nil)

	stats := c.Stats()
	if !stats.Connected {
		t.Error("Stats().Connected = false before Close()")
	}
	if stats.WritesTotal == 0 {
		t.Error("Stats().WritesTotal = 0 after handshake")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !ch.closed {
		t.Error("Close() did not close the channel")
	}
	if c.Stats().Connected {
		t.Error("Stats().Connected = true after Close()")
	}

	// Double close is a no-op.
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestTraceRecorderSeesTraffic(t *testing.T) {
	rec := &captureRecorder{}
	ch := newScriptChannel(handshakeReplies("3.0", "6"))

	if _, err := New(ch, WithTraceRecorder(rec)); err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if len(rec.writes) == 0 {
		t.Error("trace recorder saw no writes during handshake")
	}
	if len(rec.reads) == 0 {
		t.Error("trace recorder saw no reads during handshake")
	}
}

type captureRecorder struct {
	writes []string
	reads  []string
}

func (r *captureRecorder) RecordWrite(text string) { r.writes = append(r.writes, text) }
func (r *captureRecorder) RecordRead(text string)  { r.reads = append(r.reads, text) }
