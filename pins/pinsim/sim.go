// Package pinsim provides an in-memory pins.Hardware for tests and dry runs.
package pinsim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gopin/pins"
)

const numPins = pins.MaxIndex + 1

type binding struct {
	fn   pins.InterruptHandler
	arg  any
	edge pins.Edge
}

// Chip stores pin levels and modes. Levels are atomic so reads and writes
// never take a lock; mode and interrupt tables are guarded by mu.
type Chip struct {
	levels [numPins]atomic.Uint32
	writes [numPins]atomic.Uint32

	mu         sync.Mutex
	modes      [numPins]pins.PinMode
	configured [numPins]bool
	bindings   [numPins]*binding
}

// New returns a chip with every pin low and unconfigured.
func New() *Chip {
	return &Chip{}
}

func (c *Chip) SetMode(index uint8, mode pins.PinMode) error {
	if int(index) >= numPins {
		return fmt.Errorf("pinsim: no pin %d", index)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modes[index] = mode
	c.configured[index] = true
	return nil
}

func (c *Chip) ReadDigital(index uint8) pins.Level {
	if int(index) >= numPins {
		return pins.Low
	}
	return pins.Level(c.levels[index].Load())
}

func (c *Chip) WriteDigital(index uint8, level pins.Level) {
	if int(index) >= numPins {
		return
	}
	c.levels[index].Store(uint32(level))
	c.writes[index].Add(1)
}

func (c *Chip) BindInterrupt(index uint8, fn pins.InterruptHandler, arg any, edge pins.Edge) error {
	if int(index) >= numPins {
		return fmt.Errorf("pinsim: no pin %d", index)
	}
	if fn == nil {
		return fmt.Errorf("pinsim: nil handler for pin %d", index)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[index] = &binding{fn: fn, arg: arg, edge: edge}
	return nil
}

func (c *Chip) UnbindInterrupt(index uint8) error {
	if int(index) >= numPins {
		return fmt.Errorf("pinsim: no pin %d", index)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[index] = nil
	return nil
}

// Drive sets the electrical level of a pin as an external circuit would
// and runs its interrupt handler on the calling goroutine if the
// transition matches the bound edge.
func (c *Chip) Drive(index uint8, level pins.Level) {
	if int(index) >= numPins {
		return
	}
	prev := pins.Level(c.levels[index].Swap(uint32(level)))

	c.mu.Lock()
	b := c.bindings[index]
	c.mu.Unlock()

	if b != nil && b.edge.Matches(prev, level) {
		b.fn(b.arg)
	}
}

// Mode returns the mode last applied to a pin and whether one was applied.
func (c *Chip) Mode(index uint8) (pins.PinMode, bool) {
	if int(index) >= numPins {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modes[index], c.configured[index]
}

// Bound reports whether an interrupt handler is bound to a pin.
func (c *Chip) Bound(index uint8) bool {
	if int(index) >= numPins {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindings[index] != nil
}

// Writes returns how many times a pin has been written.
func (c *Chip) Writes(index uint8) int {
	if int(index) >= numPins {
		return 0
	}
	return int(c.writes[index].Load())
}
