package pins

import (
	"errors"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrInvalidIndex        = errors.New("invalid pin index")
	ErrUnknownOption       = errors.New("unknown pin option")
	ErrCapabilityMismatch  = errors.New("requested attributes don't match the pin capabilities")
	ErrModeConflict        = errors.New("attributes conflict with the mode already set")
	ErrAmbiguousMode       = errors.New("requested mode sets opposing attributes")
	ErrNotOutput           = errors.New("pin has no output attribute")
	ErrNotInterruptCapable = errors.New("pin has no isr attribute")
	ErrBadDescriptor       = errors.New("malformed pin descriptor")
	ErrPinInUse            = errors.New("pin already claimed")
	ErrHardware            = errors.New("hardware error")
)

// Error describes a violated pin contract.
type Error struct {
	Pin   string     // Pin name, e.g. GPIO.12 (empty if unknown)
	Op    string     // Operation that failed
	Attrs Attributes // Offending attributes, if any
	Token string     // Offending option token or descriptor, if any
	Err   error      // One of the Err* kinds, possibly wrapping a cause
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pin != "" {
		b.WriteString(e.Pin)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Attrs != AttrNone {
		b.WriteString(" (")
		b.WriteString(e.Attrs.String())
		b.WriteString(")")
	}
	if e.Token != "" {
		b.WriteString(": ")
		b.WriteString(strconv.Quote(e.Token))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// hardwareError wraps a backend failure so it matches ErrHardware.
type hardwareError struct {
	cause error
}

func (h hardwareError) Error() string {
	return ErrHardware.Error() + ": " + h.cause.Error()
}

func (h hardwareError) Is(target error) bool {
	return target == ErrHardware
}

func (h hardwareError) Unwrap() error {
	return h.cause
}
