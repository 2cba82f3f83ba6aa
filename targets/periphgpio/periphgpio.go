// Package periphgpio drives pins through periph.io, for hosts whose GPIO
// lines are exposed by the operating system.
package periphgpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"gopin/pins"
)

const numPins = pins.MaxIndex + 1

// edgePoll bounds how long a watcher blocks in WaitForEdge before checking
// whether it was stopped.
const edgePoll = 50 * time.Millisecond

// Lookup resolves a pin index to a periph pin, or nil if there is none.
type Lookup func(index uint8) gpio.PinIO

// ByName resolves index to the registered pin named "GPIO<index>".
func ByName(index uint8) gpio.PinIO {
	return gpioreg.ByName(fmt.Sprintf("GPIO%d", index))
}

// Host initialises the periph host drivers and returns a driver that looks
// pins up by name.
func Host() (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	return New(ByName), nil
}

type watcher struct {
	edge gpio.Edge
	stop chan struct{}
	done chan struct{}
}

// Driver implements pins.Hardware on top of periph.io.
type Driver struct {
	lookup Lookup
	log    *logrus.Entry

	mu       sync.Mutex
	resolved [numPins]gpio.PinIO
	pulls    [numPins]gpio.Pull
	watchers [numPins]*watcher
}

func New(lookup Lookup) *Driver {
	return &Driver{
		lookup: lookup,
		log:    logrus.WithField("component", "periphgpio"),
	}
}

// pin returns the periph pin behind index, resolving it on first use.
func (d *Driver) pin(index uint8) (gpio.PinIO, error) {
	if int(index) >= numPins {
		return nil, fmt.Errorf("periphgpio: no pin %d", index)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.resolved[index]; p != nil {
		return p, nil
	}
	p := d.lookup(index)
	if p == nil {
		return nil, fmt.Errorf("periphgpio: GPIO%d not available on this host", index)
	}
	d.resolved[index] = p
	return p, nil
}

func toPull(mode pins.PinMode) gpio.Pull {
	switch {
	case mode&pins.ModePullUp != 0:
		return gpio.PullUp
	case mode&pins.ModePullDown != 0:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

func toEdge(edge pins.Edge) gpio.Edge {
	switch edge {
	case pins.EdgeRising:
		return gpio.RisingEdge
	case pins.EdgeFalling:
		return gpio.FallingEdge
	default:
		return gpio.BothEdges
	}
}

func toLevel(l gpio.Level) pins.Level {
	if l == gpio.High {
		return pins.High
	}
	return pins.Low
}

func (d *Driver) SetMode(index uint8, mode pins.PinMode) error {
	p, err := d.pin(index)
	if err != nil {
		return err
	}

	pull := toPull(mode)
	edge := gpio.NoEdge
	d.mu.Lock()
	d.pulls[index] = pull
	if w := d.watchers[index]; w != nil {
		edge = w.edge
	}
	d.mu.Unlock()

	if mode&pins.ModeOutput != 0 {
		// Out both sets the direction and drives the level.
		return p.Out(p.Read())
	}
	// Keep a bound interrupt armed.
	return p.In(pull, edge)
}

func (d *Driver) ReadDigital(index uint8) pins.Level {
	p, err := d.pin(index)
	if err != nil {
		return pins.Low
	}
	return toLevel(p.Read())
}

func (d *Driver) WriteDigital(index uint8, level pins.Level) {
	p, err := d.pin(index)
	if err != nil {
		d.log.WithError(err).Warn("Write to missing pin")
		return
	}
	if err := p.Out(level == pins.High); err != nil {
		d.log.WithError(err).WithField("pin", index).Error("Write failed")
	}
}

// BindInterrupt arms edge detection on the pin and starts a goroutine that
// calls fn for every matching edge. A previous binding is replaced.
func (d *Driver) BindInterrupt(index uint8, fn pins.InterruptHandler, arg any, edge pins.Edge) error {
	if fn == nil {
		return fmt.Errorf("periphgpio: nil handler for pin %d", index)
	}
	p, err := d.pin(index)
	if err != nil {
		return err
	}
	d.stopWatcher(index)

	d.mu.Lock()
	pull := d.pulls[index]
	d.mu.Unlock()
	armed := toEdge(edge)
	if err := p.In(pull, armed); err != nil {
		return fmt.Errorf("periphgpio: arm edge on GPIO%d: %w", index, err)
	}

	w := &watcher{edge: armed, stop: make(chan struct{}), done: make(chan struct{})}
	d.mu.Lock()
	d.watchers[index] = w
	d.mu.Unlock()

	go func() {
		defer close(w.done)
		prev := toLevel(p.Read())
		for {
			select {
			case <-w.stop:
				return
			default:
			}
			if !p.WaitForEdge(edgePoll) {
				continue
			}
			cur := toLevel(p.Read())
			if edge.Matches(prev, cur) {
				fn(arg)
			}
			prev = cur
		}
	}()

	d.log.WithFields(logrus.Fields{"pin": index, "edge": edge.String()}).Debug("Watching pin")
	return nil
}

func (d *Driver) UnbindInterrupt(index uint8) error {
	p, err := d.pin(index)
	if err != nil {
		return err
	}
	if !d.stopWatcher(index) {
		return nil
	}

	d.mu.Lock()
	pull := d.pulls[index]
	d.mu.Unlock()
	return p.In(pull, gpio.NoEdge)
}

// Close stops every interrupt watcher.
func (d *Driver) Close() error {
	for i := uint8(0); i < numPins; i++ {
		d.stopWatcher(i)
	}
	return nil
}

func (d *Driver) stopWatcher(index uint8) bool {
	d.mu.Lock()
	w := d.watchers[index]
	d.watchers[index] = nil
	d.mu.Unlock()

	if w == nil {
		return false
	}
	close(w.stop)
	<-w.done
	return true
}
