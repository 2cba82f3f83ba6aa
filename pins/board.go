package pins

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Board hands out pins and guarantees that each physical index has a
// single owner.
type Board struct {
	hw Hardware

	mu     sync.Mutex
	pins   map[uint8]*GPIOPin
	owners map[uint8]string
}

// NewBoard creates a board whose pins are driven through hw.
func NewBoard(hw Hardware) *Board {
	return &Board{
		hw:     hw,
		pins:   make(map[uint8]*GPIOPin),
		owners: make(map[uint8]string),
	}
}

// Hardware returns the backend the board drives.
func (b *Board) Hardware() Hardware {
	return b.hw
}

// Claim parses desc and returns a pin owned by owner. Void descriptors
// always succeed and are not recorded.
func (b *Board) Claim(owner, desc string) (Pin, error) {
	d, err := ParseDescriptor(desc)
	if err != nil {
		return nil, err
	}
	if d.Kind == KindVoid {
		return NewVoidPin(), nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, taken := b.owners[d.Index]; taken {
		return nil, &Error{
			Pin:   gpioName(d.Index),
			Op:    "claim by " + owner,
			Token: prev,
			Err:   ErrPinInUse,
		}
	}

	p, err := NewGPIOPin(b.hw, d.Index, d.Options)
	if err != nil {
		return nil, err
	}

	b.pins[d.Index] = p
	b.owners[d.Index] = owner

	log.WithFields(logrus.Fields{
		"pin":   p.String(),
		"owner": owner,
		"attrs": p.Attributes().String(),
	}).Debug("Pin claimed")
	return p, nil
}

// Lookup returns the pin claimed at index.
func (b *Board) Lookup(index uint8) (*GPIOPin, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[index]
	return p, ok
}

// Owner returns the owner name recorded for index.
func (b *Board) Owner(index uint8) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.owners[index]
	return o, ok
}

// Pins returns all claimed pins ordered by index.
func (b *Board) Pins() []*GPIOPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*GPIOPin, 0, len(b.pins))
	for _, p := range b.pins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}
