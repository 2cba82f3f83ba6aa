// Package pins validates and drives physical GPIO pins.
//
// A pin is declared once at startup from a board description (a physical
// index plus option tokens), checked against the chip's capability table,
// configured with a requested mode, and then read and written through a
// polarity-aware interface so callers never deal with active-low wiring.
package pins

import "strings"

// Capabilities is the fixed set of electrical modes a physical pin supports.
type Capabilities uint16

// Capability flags
const (
	CapNative   Capabilities = 1 << iota // Pin exists on the chip
	CapInput                             // Digital input
	CapOutput                            // Digital output
	CapPullUp                            // Internal pull-up resistor
	CapPullDown                          // Internal pull-down resistor
	CapADC                               // Analog input
	CapDAC                               // Analog output
	CapPWM                               // PWM output
	CapISR                               // Can raise interrupts
	CapUART                              // Can be routed to a UART

	CapNone Capabilities = 0
)

var capabilityNames = []struct {
	flag Capabilities
	name string
}{
	{CapNative, "native"},
	{CapInput, "input"},
	{CapOutput, "output"},
	{CapPullUp, "pullup"},
	{CapPullDown, "pulldown"},
	{CapADC, "adc"},
	{CapDAC, "dac"},
	{CapPWM, "pwm"},
	{CapISR, "isr"},
	{CapUART, "uart"},
}

// Common capability groups of the ESP32 pin table
const (
	capGeneral   = CapNative | CapInput | CapOutput | CapPullUp | CapPullDown | CapADC | CapPWM | CapISR | CapUART
	capDigital   = CapNative | CapInput | CapOutput | CapPullUp | CapPullDown | CapPWM | CapISR | CapUART
	capAnalogOut = capGeneral | CapDAC
	capFlash     = CapNative | CapInput | CapOutput | CapPWM | CapISR | CapUART
	capInputOnly = CapNative | CapInput | CapADC | CapISR | CapUART
)

// CapabilitiesOf returns the capabilities of a physical pin index.
// Indices that are not wired to a GPIO return CapNone.
func CapabilitiesOf(index uint8) Capabilities {
	switch index {
	case 0: // Outputs PWM signal at boot
		return capGeneral

	case 1: // Serial0 TX
		return CapNative | CapInput | CapOutput | CapUART

	case 3: // Serial0 RX
		return CapNative | CapInput | CapOutput | CapISR | CapUART

	case 5, 16, 17, 18, 19, 21, 22, 23, 29:
		return capDigital

	case 2, 4,
		12, // Boot fails if pulled high
		13,
		14, 15, // Output PWM signal at boot
		27, 32, 33:
		return capGeneral

	case 25, 26:
		return capAnalogOut

	case 6, 7, 8, 9, 10, 11: // Wired to the SPI flash
		return capFlash

	case 34, 35, 36, 39:
		return capInputOnly

	default:
		return CapNone
	}
}

// MaxIndex is the highest index the capability table knows about.
const MaxIndex = 39

// Has reports whether every flag in f is set in c.
func (c Capabilities) Has(f Capabilities) bool {
	return c&f == f
}

// Union returns the flags set in either c or o.
func (c Capabilities) Union(o Capabilities) Capabilities {
	return c | o
}

// Intersect returns the flags set in both c and o.
func (c Capabilities) Intersect(o Capabilities) Capabilities {
	return c & o
}

// Without returns c with the flags in o cleared.
func (c Capabilities) Without(o Capabilities) Capabilities {
	return c &^ o
}

// IsSubsetOf reports whether every flag in c is also set in o.
func (c Capabilities) IsSubsetOf(o Capabilities) bool {
	return c&^o == 0
}

func (c Capabilities) String() string {
	if c == CapNone {
		return "none"
	}
	names := make([]string, 0, len(capabilityNames))
	for _, n := range capabilityNames {
		if c.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}
