package pins

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// GPIOPin is a native chip pin driven through a Hardware backend.
type GPIOPin struct {
	hw    Hardware
	index uint8
	name  string

	caps  Capabilities // from the capability table, never changes
	attrs Attributes   // from the pin declaration
	mode  Attributes   // from the last Configure

	// mask is XORed into every read and write; High for active-low pins
	mask Level
}

// NewGPIOPin checks index against the capability table and parses the
// declaration's option tokens. The pin is not touched until Configure.
func NewGPIOPin(hw Hardware, index uint8, options []string) (*GPIOPin, error) {
	name := gpioName(index)

	caps := CapabilitiesOf(index)
	if caps == CapNone {
		return nil, &Error{Pin: name, Op: "new", Err: ErrInvalidIndex}
	}

	attrs, err := ParseOptions(index, options)
	if err != nil {
		return nil, err
	}
	if attrs.Has(AttrPullUp | AttrPullDown) {
		return nil, &Error{Pin: name, Op: "new", Attrs: attrs, Err: ErrAmbiguousMode}
	}

	p := &GPIOPin{
		hw:    hw,
		index: index,
		name:  name,
		caps:  caps,
		attrs: attrs,
		mask:  Low,
	}
	if attrs.Has(AttrActiveLow) {
		p.mask = High
	}
	return p, nil
}

// Index returns the physical pin index.
func (p *GPIOPin) Index() uint8 { return p.index }

func (p *GPIOPin) Capabilities() Capabilities { return p.caps }
func (p *GPIOPin) Attributes() Attributes     { return p.attrs }
func (p *GPIOPin) Mode() Attributes           { return p.mode }

// Configure validates requested against the pin's capabilities and the
// mode already in force, then applies it to the hardware. Pull resistors
// are additive: once enabled by the declaration or an earlier mode they stay
// enabled. Outputs are driven to their initial level before the direction
// switches so the line never floats. If the hardware rejects the mode the
// previous mode stays in force.
func (p *GPIOPin) Configure(requested Attributes) error {
	if requested.Ambiguous() {
		return &Error{Pin: p.name, Op: "configure", Attrs: requested, Err: ErrAmbiguousMode}
	}

	if err := p.check(requested); err != nil {
		if !IsReserved(p.index) {
			return err
		}
		log.WithFields(logrus.Fields{
			"pin":  p.name,
			"mode": requested.String(),
		}).WithError(err).Warn("Ignoring check on reserved serial pin")
	}

	var bits PinMode
	if requested.Has(AttrInput) {
		bits |= ModeInput
	} else if requested.Has(AttrOutput) {
		bits |= ModeOutput
	}

	pulls := p.attrs.Union(p.mode).Union(requested)
	if pulls.Has(AttrPullUp) {
		bits |= ModePullUp
	} else if pulls.Has(AttrPullDown) {
		bits |= ModePullDown
	}

	if requested.Has(AttrOutput) {
		initial := Low
		if requested.Has(AttrInitialOn) {
			initial = High
		}
		p.hw.WriteDigital(p.index, initial^p.mask)
	}

	if err := p.hw.SetMode(p.index, bits); err != nil {
		return &Error{Pin: p.name, Op: "configure", Attrs: requested, Err: hardwareError{err}}
	}
	p.mode = requested

	log.WithFields(logrus.Fields{
		"pin":  p.name,
		"mode": requested.String(),
		"hw":   bits.String(),
	}).Debug("Pin configured")
	return nil
}

// check returns the first contract requested violates, or nil.
func (p *GPIOPin) check(requested Attributes) error {
	if !requested.ValidateWith(p.caps) {
		return &Error{
			Pin:   p.name,
			Op:    "configure",
			Attrs: requested.Missing(p.caps),
			Err:   ErrCapabilityMismatch,
		}
	}
	if p.attrs.ConflictsWith(requested) || p.mode.ConflictsWith(requested) {
		return &Error{Pin: p.name, Op: "configure", Attrs: requested, Err: ErrModeConflict}
	}
	return nil
}

// Write drives the pin to a logical level.
func (p *GPIOPin) Write(level Level) error {
	if p.mode&AttrOutput == 0 {
		return &Error{Pin: p.name, Op: "write", Err: ErrNotOutput}
	}
	p.hw.WriteDigital(p.index, level^p.mask)
	return nil
}

// Read returns the logical level of the pin. The result is only meaningful
// if the pin was configured as an input or output.
func (p *GPIOPin) Read() Level {
	return p.hw.ReadDigital(p.index) ^ p.mask
}

// AttachInterrupt binds fn to the given edge. The pin must have been
// configured with AttrISR.
func (p *GPIOPin) AttachInterrupt(fn InterruptHandler, arg any, edge Edge) error {
	if p.mode&AttrISR == 0 {
		return &Error{Pin: p.name, Op: "attach interrupt", Err: ErrNotInterruptCapable}
	}
	if err := p.hw.BindInterrupt(p.index, fn, arg, edge); err != nil {
		return &Error{Pin: p.name, Op: "attach interrupt", Err: hardwareError{err}}
	}
	return nil
}

// DetachInterrupt unbinds the pin's interrupt handler.
func (p *GPIOPin) DetachInterrupt() error {
	if p.mode&AttrISR == 0 {
		return &Error{Pin: p.name, Op: "detach interrupt", Err: ErrNotInterruptCapable}
	}
	if err := p.hw.UnbindInterrupt(p.index); err != nil {
		return &Error{Pin: p.name, Op: "detach interrupt", Err: hardwareError{err}}
	}
	return nil
}

func (p *GPIOPin) String() string { return p.name }

func gpioName(index uint8) string {
	return "GPIO." + strconv.Itoa(int(index))
}
