package pins

// VoidPin stands in for a signal the board leaves unconnected. Writes are
// discarded, reads return Low and interrupts never fire.
// Unlike GPIOPin, Write never returns ErrNotOutput, whatever the mode.
type VoidPin struct {
	mode Attributes
}

// NewVoidPin returns a pin that is not wired to anything.
func NewVoidPin() *VoidPin {
	return &VoidPin{}
}

func (*VoidPin) Capabilities() Capabilities { return CapInput | CapOutput | CapPullUp | CapPullDown | CapISR }
func (*VoidPin) Attributes() Attributes     { return AttrNone }
func (v *VoidPin) Mode() Attributes         { return v.mode }

// Configure records requested; only self-contradicting requests fail.
func (v *VoidPin) Configure(requested Attributes) error {
	if requested.Ambiguous() {
		return &Error{Pin: voidPinName, Op: "configure", Attrs: requested, Err: ErrAmbiguousMode}
	}
	v.mode = requested
	return nil
}

func (*VoidPin) Write(Level) error { return nil }
func (*VoidPin) Read() Level       { return Low }

func (*VoidPin) AttachInterrupt(InterruptHandler, any, Edge) error { return nil }
func (*VoidPin) DetachInterrupt() error                            { return nil }

func (*VoidPin) String() string { return voidPinName }
