package pins

import "strings"

// Level is an electrical or logical pin level.
type Level uint8

// Pin levels
const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == Low {
		return "low"
	}
	return "high"
}

// PinMode is the direction and pull configuration applied to hardware.
type PinMode uint8

// PinMode bits
const (
	ModeInput    PinMode = 0x01
	ModeOutput   PinMode = 0x02
	ModePullUp   PinMode = 0x04
	ModePullDown PinMode = 0x08
)

func (m PinMode) String() string {
	var s string
	switch {
	case m&ModeInput != 0:
		s = "input"
	case m&ModeOutput != 0:
		s = "output"
	default:
		s = "unset"
	}
	if m&ModePullUp != 0 {
		s += "+pullup"
	}
	if m&ModePullDown != 0 {
		s += "+pulldown"
	}
	return s
}

// Edge selects which transitions raise an interrupt.
type Edge uint8

// Interrupt edges
const (
	EdgeRising  Edge = 1
	EdgeFalling Edge = 2
	EdgeChange  Edge = 3
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeChange:
		return "change"
	}
	return "unknown"
}

// Matches reports whether a transition from prev to cur triggers e.
func (e Edge) Matches(prev, cur Level) bool {
	if prev == cur {
		return false
	}
	switch e {
	case EdgeRising:
		return cur == High
	case EdgeFalling:
		return cur == Low
	case EdgeChange:
		return true
	}
	return false
}

// InterruptHandler is called from the backend's interrupt context with the
// argument given at bind time.
type InterruptHandler func(arg any)

// Hardware is the raw GPIO interface a platform provides.
// Implementations must keep ReadDigital and WriteDigital free of allocation
// and blocking; they may be called from interrupt handlers.
type Hardware interface {
	// SetMode applies direction and pull configuration to a pin
	SetMode(index uint8, mode PinMode) error

	// ReadDigital returns the electrical level of a pin
	ReadDigital(index uint8) Level

	// WriteDigital drives a pin to an electrical level
	WriteDigital(index uint8, level Level)

	// BindInterrupt registers fn to be called with arg on matching edges
	BindInterrupt(index uint8, fn InterruptHandler, arg any, edge Edge) error

	// UnbindInterrupt removes a previously bound handler
	UnbindInterrupt(index uint8) error
}

// ParseEdge returns the edge named s ("rising", "falling" or "change").
func ParseEdge(s string) (Edge, error) {
	for _, e := range []Edge{EdgeRising, EdgeFalling, EdgeChange} {
		if strings.EqualFold(s, e.String()) {
			return e, nil
		}
	}
	return 0, &Error{Op: "parse edge", Token: s, Err: ErrUnknownOption}
}
