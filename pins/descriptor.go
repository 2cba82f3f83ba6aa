package pins

import (
	"strconv"
	"strings"
)

// Kind identifies the kind of pin a descriptor names.
type Kind uint8

// Pin kinds
const (
	KindVoid Kind = iota // No pin; the signal is unused
	KindGPIO             // Native chip GPIO
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindGPIO:
		return "gpio"
	}
	return "unknown"
}

// Descriptor is a parsed board-file pin declaration such as "gpio.12:low".
type Descriptor struct {
	Kind    Kind
	Index   uint8
	Options []string
}

const voidPinName = "NO_PIN"

// ParseDescriptor parses a pin declaration of the form
// gpio.<index>[:option...]. The empty string, "none" and "no_pin" name no
// pin at all.
func ParseDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	head, rest, _ := strings.Cut(s, OptionSeparator)

	switch strings.ToLower(head) {
	case "", "none", "no_pin":
		if rest != "" {
			return Descriptor{}, &Error{Op: "parse descriptor", Token: s, Err: ErrBadDescriptor}
		}
		return Descriptor{Kind: KindVoid}, nil
	}

	kind, num, ok := strings.Cut(head, ".")
	if !ok || !strings.EqualFold(kind, "gpio") {
		return Descriptor{}, &Error{Op: "parse descriptor", Token: s, Err: ErrBadDescriptor}
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil {
		return Descriptor{}, &Error{Op: "parse descriptor", Token: s, Err: ErrBadDescriptor}
	}

	return Descriptor{
		Kind:    KindGPIO,
		Index:   uint8(n),
		Options: SplitOptions(rest),
	}, nil
}

// String returns the canonical form of the descriptor.
func (d Descriptor) String() string {
	if d.Kind == KindVoid {
		return "no_pin"
	}
	s := "gpio." + strconv.Itoa(int(d.Index))
	for _, o := range d.Options {
		s += OptionSeparator + strings.ToLower(strings.TrimSpace(o))
	}
	return s
}
