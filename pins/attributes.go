package pins

import "strings"

// Attributes is the set of modes a caller has asked a pin to use.
type Attributes uint16

// Attribute flags
const (
	AttrInput     Attributes = 1 << iota // Configure as input
	AttrOutput                           // Configure as output
	AttrPullUp                           // Enable pull-up
	AttrPullDown                         // Enable pull-down
	AttrActiveLow                        // Logical on is electrical low
	AttrInitialOn                        // Outputs start logically on
	AttrISR                              // Interrupts will be bound

	AttrNone Attributes = 0
)

// attrRequires maps each hardware-backed attribute to the capability it needs.
// ActiveLow and InitialOn are polarity and policy, not hardware features.
var attrRequires = []struct {
	attr Attributes
	cap  Capabilities
}{
	{AttrInput, CapInput},
	{AttrOutput, CapOutput},
	{AttrPullUp, CapPullUp},
	{AttrPullDown, CapPullDown},
	{AttrISR, CapISR},
}

var attributeNames = []struct {
	flag Attributes
	name string
}{
	{AttrInput, "input"},
	{AttrOutput, "output"},
	{AttrPullUp, "pullup"},
	{AttrPullDown, "pulldown"},
	{AttrActiveLow, "activelow"},
	{AttrInitialOn, "initialon"},
	{AttrISR, "isr"},
}

// Has reports whether every flag in f is set in a.
func (a Attributes) Has(f Attributes) bool {
	return a&f == f
}

// Union returns the flags set in either a or o.
func (a Attributes) Union(o Attributes) Attributes {
	return a | o
}

// Intersect returns the flags set in both a and o.
func (a Attributes) Intersect(o Attributes) Attributes {
	return a & o
}

// Without returns a with the flags in o cleared.
func (a Attributes) Without(o Attributes) Attributes {
	return a &^ o
}

// IsSubsetOf reports whether every flag in a is also set in o.
func (a Attributes) IsSubsetOf(o Attributes) bool {
	return a&^o == 0
}

// Required returns the capabilities a pin needs to honour a.
func (a Attributes) Required() Capabilities {
	var caps Capabilities
	for _, r := range attrRequires {
		if a&r.attr != 0 {
			caps |= r.cap
		}
	}
	return caps
}

// ValidateWith reports whether caps supports every hardware-backed flag in a.
func (a Attributes) ValidateWith(caps Capabilities) bool {
	return a.Required().IsSubsetOf(caps)
}

// Missing returns the attributes of a that caps cannot honour.
func (a Attributes) Missing(caps Capabilities) Attributes {
	var missing Attributes
	for _, r := range attrRequires {
		if a&r.attr != 0 && !caps.Has(r.cap) {
			missing |= r.attr
		}
	}
	return missing
}

// ConflictsWith reports whether requested is incompatible with a, which is
// the mode already in force. An empty a never conflicts.
func (a Attributes) ConflictsWith(requested Attributes) bool {
	if a == AttrNone {
		return false
	}
	return opposed(a, requested, AttrInput, AttrOutput) ||
		opposed(a, requested, AttrPullUp, AttrPullDown)
}

// Ambiguous reports whether a asks for both directions or both pulls at once.
func (a Attributes) Ambiguous() bool {
	return a.Has(AttrInput|AttrOutput) || a.Has(AttrPullUp|AttrPullDown)
}

func opposed(cur, req, x, y Attributes) bool {
	return (cur.Has(x) && req.Has(y)) || (cur.Has(y) && req.Has(x))
}

func (a Attributes) String() string {
	if a == AttrNone {
		return "none"
	}
	names := make([]string, 0, len(attributeNames))
	for _, n := range attributeNames {
		if a.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// reservedPins are configured by the serial console driver before board
// configuration runs, so their mode cannot be checked against user requests.
var reservedPins = [...]uint8{
	1, // Serial0 TX
	3, // Serial0 RX
}

// IsReserved reports whether index is owned by system startup code and
// therefore exempt from capability and conflict checks.
func IsReserved(index uint8) bool {
	for _, r := range reservedPins {
		if r == index {
			return true
		}
	}
	return false
}

// ParseAttributes maps attribute names, as printed by String, back to a set.
// "+" and "," may join several names in one token.
func ParseAttributes(tokens []string) (Attributes, error) {
	attrs := AttrNone
	for _, tok := range tokens {
		for _, name := range strings.FieldsFunc(tok, func(r rune) bool { return r == '+' || r == ',' }) {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "none" {
				continue
			}
			flag, ok := attributeByName(name)
			if !ok {
				return AttrNone, &Error{Op: "parse attributes", Token: name, Err: ErrUnknownOption}
			}
			attrs |= flag
		}
	}
	return attrs, nil
}

func attributeByName(name string) (Attributes, bool) {
	for _, n := range attributeNames {
		if n.name == name {
			return n.flag, true
		}
	}
	return AttrNone, false
}
