package pins

import "strings"

// OptionSeparator separates option tokens in a pin descriptor.
const OptionSeparator = ":"

// SplitOptions splits an option string such as "pu:low" into tokens.
func SplitOptions(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, OptionSeparator)
}

// ParseOptions turns the option tokens of a pin declaration into the
// attributes they request. Recognised tokens are "pu" (pull-up), "pd"
// (pull-down), "low" (active low) and "high" (active high, the default).
func ParseOptions(index uint8, tokens []string) (Attributes, error) {
	attrs := AttrNone
	for _, tok := range tokens {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "":
			// Tolerate "gpio.4::pu"
		case "pu":
			attrs |= AttrPullUp
		case "pd":
			attrs |= AttrPullDown
		case "low":
			attrs |= AttrActiveLow
		case "high":
			// Active high is the default
		default:
			return AttrNone, &Error{
				Pin:   gpioName(index),
				Op:    "parse options",
				Token: tok,
				Err:   ErrUnknownOption,
			}
		}
	}
	return attrs, nil
}
