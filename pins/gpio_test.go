package pins

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// mockHardware records the calls the pin layer makes.
type mockHardware struct {
	levels   map[uint8]Level
	modes    map[uint8]PinMode
	writes   []string
	handlers map[uint8]InterruptHandler
	args     map[uint8]any
	edges    map[uint8]Edge
	failMode error
}

func newMockHardware() *mockHardware {
	return &mockHardware{
		levels:   make(map[uint8]Level),
		modes:    make(map[uint8]PinMode),
		handlers: make(map[uint8]InterruptHandler),
		args:     make(map[uint8]any),
		edges:    make(map[uint8]Edge),
	}
}

func (m *mockHardware) SetMode(index uint8, mode PinMode) error {
	if m.failMode != nil {
		return m.failMode
	}
	m.modes[index] = mode
	m.writes = append(m.writes, fmt.Sprintf("mode %d %s", index, mode))
	return nil
}

func (m *mockHardware) ReadDigital(index uint8) Level {
	return m.levels[index]
}

func (m *mockHardware) WriteDigital(index uint8, level Level) {
	m.levels[index] = level
	m.writes = append(m.writes, fmt.Sprintf("write %d %s", index, level))
}

func (m *mockHardware) BindInterrupt(index uint8, fn InterruptHandler, arg any, edge Edge) error {
	m.handlers[index] = fn
	m.args[index] = arg
	m.edges[index] = edge
	return nil
}

func (m *mockHardware) UnbindInterrupt(index uint8) error {
	delete(m.handlers, index)
	return nil
}

func mustPin(t *testing.T, hw Hardware, index uint8, opts ...string) *GPIOPin {
	t.Helper()
	p, err := NewGPIOPin(hw, index, opts)
	if err != nil {
		t.Fatalf("NewGPIOPin(%d, %v) failed: %v", index, opts, err)
	}
	return p
}

func TestNewGPIOPinInvalidIndex(t *testing.T) {
	// Option parsing must not run for an unmapped pin
	_, err := NewGPIOPin(newMockHardware(), 40, []string{"bogus"})
	if !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("Expected ErrInvalidIndex, got %v", err)
	}
	if !strings.Contains(err.Error(), "GPIO.40") {
		t.Errorf("Message should name the pin: %s", err)
	}
}

func TestNewGPIOPinBadOption(t *testing.T) {
	_, err := NewGPIOPin(newMockHardware(), 12, []string{"up"})
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("Expected ErrUnknownOption, got %v", err)
	}
}

func TestNewGPIOPinOpposingPulls(t *testing.T) {
	_, err := NewGPIOPin(newMockHardware(), 12, []string{"pu", "pd"})
	if !errors.Is(err, ErrAmbiguousMode) {
		t.Fatalf("Expected ErrAmbiguousMode, got %v", err)
	}
}

func TestNewGPIOPinNoSideEffects(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 12, "low", "pu")

	if len(hw.writes) != 0 {
		t.Errorf("Construction touched hardware: %v", hw.writes)
	}
	if p.Mode() != AttrNone {
		t.Errorf("Expected no mode, got %s", p.Mode())
	}
	if p.Attributes() != AttrActiveLow|AttrPullUp {
		t.Errorf("Expected activelow,pullup, got %s", p.Attributes())
	}
	if p.Capabilities() != CapabilitiesOf(12) {
		t.Errorf("Capabilities mismatch: %s", p.Capabilities())
	}
	if p.String() != "GPIO.12" {
		t.Errorf("Expected GPIO.12, got %s", p.String())
	}
}

func TestActiveLowScenario(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 12, "low")

	if err := p.Configure(AttrOutput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if hw.levels[12] != High {
		t.Errorf("Logical off on active-low pin should drive high, got %s", hw.levels[12])
	}
	if hw.modes[12] != ModeOutput {
		t.Errorf("Expected output mode, got %s", hw.modes[12])
	}
	// Initial level must be set before the direction switches
	if len(hw.writes) != 2 || !strings.HasPrefix(hw.writes[0], "write") {
		t.Errorf("Expected write before mode, got %v", hw.writes)
	}

	if err := p.Write(High); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if hw.levels[12] != Low {
		t.Errorf("Logical on should drive low, got %s", hw.levels[12])
	}
	if got := p.Read(); got != High {
		t.Errorf("Expected logical high, got %s", got)
	}
}

func TestReadAfterWrite(t *testing.T) {
	for _, opts := range [][]string{nil, {"high"}, {"low"}} {
		hw := newMockHardware()
		p := mustPin(t, hw, 4, opts...)
		if err := p.Configure(AttrOutput); err != nil {
			t.Fatalf("Configure failed: %v", err)
		}
		for _, v := range []Level{High, Low, High} {
			if err := p.Write(v); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if got := p.Read(); got != v {
				t.Errorf("Options %v: wrote %s, read %s", opts, v, got)
			}
		}
	}
}

func TestConfigureInitialOn(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 13)
	if err := p.Configure(AttrOutput | AttrInitialOn); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if hw.levels[13] != High {
		t.Errorf("Expected high, got %s", hw.levels[13])
	}

	hw = newMockHardware()
	p = mustPin(t, hw, 13, "low")
	if err := p.Configure(AttrOutput | AttrInitialOn); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if hw.levels[13] != Low {
		t.Errorf("Expected low on active-low pin, got %s", hw.levels[13])
	}
}

func TestConfigureInputDoesNotWrite(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 4, "pu")
	if err := p.Configure(AttrInput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if hw.modes[4] != ModeInput|ModePullUp {
		t.Errorf("Expected input+pullup from declaration, got %s", hw.modes[4])
	}
	for _, w := range hw.writes {
		if strings.HasPrefix(w, "write") {
			t.Errorf("Input configuration wrote a level: %v", hw.writes)
		}
	}
}

func TestConfigurePullIsSticky(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 5)
	if err := p.Configure(AttrInput | AttrPullDown); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := p.Configure(AttrInput | AttrISR); err != nil {
		t.Fatalf("Reconfigure failed: %v", err)
	}
	if hw.modes[5] != ModeInput|ModePullDown {
		t.Errorf("Pull-down should survive reconfiguration, got %s", hw.modes[5])
	}
	if p.Mode() != AttrInput|AttrISR {
		t.Errorf("Expected mode input,isr, got %s", p.Mode())
	}
}

func TestConfigureCapabilityMismatch(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 34)

	err := p.Configure(AttrOutput)
	if !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("Expected ErrCapabilityMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "GPIO.34") || !strings.Contains(err.Error(), "output") {
		t.Errorf("Message should name pin and attribute: %s", err)
	}
	if p.Mode() != AttrNone {
		t.Errorf("Failed configure changed mode to %s", p.Mode())
	}
	if len(hw.writes) != 0 {
		t.Errorf("Failed configure touched hardware: %v", hw.writes)
	}

	// Input-only pins have no pull resistors either
	if err := p.Configure(AttrInput | AttrPullUp); !errors.Is(err, ErrCapabilityMismatch) {
		t.Errorf("Expected ErrCapabilityMismatch for pull-up, got %v", err)
	}
	if err := p.Configure(AttrInput | AttrISR); err != nil {
		t.Errorf("Input with ISR should be accepted: %v", err)
	}
}

func TestConfigureConflicts(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 14)

	if err := p.Configure(AttrOutput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := p.Configure(AttrOutput); err != nil {
		t.Errorf("Re-applying the same mode should succeed: %v", err)
	}
	if err := p.Configure(AttrInput); !errors.Is(err, ErrModeConflict) {
		t.Errorf("Expected ErrModeConflict, got %v", err)
	}
	if p.Mode() != AttrOutput {
		t.Errorf("Conflicting configure changed mode to %s", p.Mode())
	}
}

func TestConfigureConflictsWithDeclaration(t *testing.T) {
	p := mustPin(t, newMockHardware(), 14, "pu")
	if err := p.Configure(AttrInput | AttrPullDown); !errors.Is(err, ErrModeConflict) {
		t.Errorf("Expected ErrModeConflict, got %v", err)
	}
}

func TestConfigureAmbiguous(t *testing.T) {
	p := mustPin(t, newMockHardware(), 2)
	if err := p.Configure(AttrInput | AttrOutput); !errors.Is(err, ErrAmbiguousMode) {
		t.Errorf("Expected ErrAmbiguousMode, got %v", err)
	}
	if err := p.Configure(AttrInput | AttrPullUp | AttrPullDown); !errors.Is(err, ErrAmbiguousMode) {
		t.Errorf("Expected ErrAmbiguousMode, got %v", err)
	}
}

func TestConfigureReservedBypass(t *testing.T) {
	hw := newMockHardware()

	// TX has no pull-up and RX is already an input when the console starts
	tx := mustPin(t, hw, 1)
	if err := tx.Configure(AttrOutput | AttrPullUp); err != nil {
		t.Errorf("Reserved pin should bypass capability check: %v", err)
	}
	if hw.modes[1] != ModeOutput|ModePullUp {
		t.Errorf("Expected output+pullup, got %s", hw.modes[1])
	}

	rx := mustPin(t, hw, 3)
	if err := rx.Configure(AttrInput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := rx.Configure(AttrOutput); err != nil {
		t.Errorf("Reserved pin should bypass conflict check: %v", err)
	}
}

func TestConfigureHardwareError(t *testing.T) {
	hw := newMockHardware()
	hw.failMode = errors.New("bus fault")
	p := mustPin(t, hw, 2)

	err := p.Configure(AttrInput)
	if !errors.Is(err, ErrHardware) {
		t.Fatalf("Expected ErrHardware, got %v", err)
	}
	if !strings.Contains(err.Error(), "bus fault") {
		t.Errorf("Cause missing from message: %s", err)
	}
	if p.Mode() != AttrNone {
		t.Errorf("Failed configure left mode %s", p.Mode())
	}
}

func TestConfigureHardwareErrorKeepsMode(t *testing.T) {
	hw := newMockHardware()
	hw.failMode = errors.New("bus fault")
	p := mustPin(t, hw, 12)

	if err := p.Configure(AttrOutput); !errors.Is(err, ErrHardware) {
		t.Fatalf("Expected ErrHardware, got %v", err)
	}
	if p.Mode() != AttrNone {
		t.Errorf("Expected mode none, got %s", p.Mode())
	}
	if err := p.Write(High); !errors.Is(err, ErrNotOutput) {
		t.Errorf("Write after failed configure: expected ErrNotOutput, got %v", err)
	}

	// Once the fault clears the pin can take any direction
	hw.failMode = nil
	if err := p.Configure(AttrInput); err != nil {
		t.Fatalf("Configure after fault failed: %v", err)
	}
	if p.Mode() != AttrInput {
		t.Errorf("Expected input, got %s", p.Mode())
	}
}

func TestWriteRequiresOutput(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 4)

	if err := p.Write(High); !errors.Is(err, ErrNotOutput) {
		t.Errorf("Unconfigured write: expected ErrNotOutput, got %v", err)
	}
	if err := p.Configure(AttrInput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := p.Write(High); !errors.Is(err, ErrNotOutput) {
		t.Errorf("Input write: expected ErrNotOutput, got %v", err)
	}
	if len(hw.writes) != 1 {
		t.Errorf("Failed writes reached hardware: %v", hw.writes)
	}
}

func TestInterruptScenario(t *testing.T) {
	hw := newMockHardware()
	p := mustPin(t, hw, 15)

	if err := p.Configure(AttrOutput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	handler := func(any) {}
	if err := p.AttachInterrupt(handler, nil, EdgeRising); !errors.Is(err, ErrNotInterruptCapable) {
		t.Fatalf("Expected ErrNotInterruptCapable, got %v", err)
	}
	if err := p.DetachInterrupt(); !errors.Is(err, ErrNotInterruptCapable) {
		t.Fatalf("Expected ErrNotInterruptCapable, got %v", err)
	}

	if err := p.Configure(AttrOutput | AttrISR); err != nil {
		t.Fatalf("Reconfigure failed: %v", err)
	}
	ctx := "limit"
	if err := p.AttachInterrupt(handler, ctx, EdgeChange); err != nil {
		t.Fatalf("AttachInterrupt failed: %v", err)
	}
	if hw.handlers[15] == nil || hw.args[15] != ctx || hw.edges[15] != EdgeChange {
		t.Errorf("Binding not forwarded: handler=%v arg=%v edge=%s", hw.handlers[15] != nil, hw.args[15], hw.edges[15])
	}
	if err := p.DetachInterrupt(); err != nil {
		t.Fatalf("DetachInterrupt failed: %v", err)
	}
	if _, bound := hw.handlers[15]; bound {
		t.Error("Handler still bound after detach")
	}
}

func TestReadWriteDoNotAllocate(t *testing.T) {
	hw := &levelHardware{}
	p := mustPin(t, hw, 12, "low")
	if err := p.Configure(AttrOutput); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = p.Write(High)
		_ = p.Read()
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations, got %v", allocs)
	}
}

// levelHardware is an allocation-free backend for the hot-path test.
type levelHardware struct {
	levels [MaxIndex + 1]Level
}

func (h *levelHardware) SetMode(uint8, PinMode) error          { return nil }
func (h *levelHardware) ReadDigital(index uint8) Level         { return h.levels[index] }
func (h *levelHardware) WriteDigital(index uint8, level Level) { h.levels[index] = level }
func (h *levelHardware) UnbindInterrupt(uint8) error           { return nil }

func (h *levelHardware) BindInterrupt(uint8, InterruptHandler, any, Edge) error {
	return nil
}
