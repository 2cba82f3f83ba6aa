// Package serialgpio drives the pins of a remote controller over a framed
// serial link.
//
// The host sends set_mode, write, bind_interrupt, unbind_interrupt and
// query commands. The controller answers with pin_state reports whenever an
// input changes or a query arrives, and with interrupt reports when a bound
// edge fires. Reads are served from the last reported level so they never
// wait on the link.
package serialgpio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"gopin/pins"
	"gopin/protocol"
)

// Command and response identifiers
const (
	CmdSetMode         = 1 // pin=%c mode=%c
	CmdWrite           = 2 // pin=%c value=%c
	CmdBindInterrupt   = 3 // pin=%c edge=%c
	CmdUnbindInterrupt = 4 // pin=%c
	CmdQuery           = 5 // pin=%c

	RespPinState  = 64 // pin=%c value=%c
	RespInterrupt = 65 // pin=%c value=%c
)

const numPins = pins.MaxIndex + 1

var ErrClosed = errors.New("serialgpio: link closed")

type binding struct {
	fn  pins.InterruptHandler
	arg any
}

// Driver implements pins.Hardware for a remote controller.
type Driver struct {
	port io.ReadWriteCloser
	log  atomic.Pointer[logrus.Entry]

	levels [numPins]atomic.Uint32

	writeMu sync.Mutex
	out     protocol.ScratchOutput
	seq     uint8

	bindMu   sync.Mutex
	bindings [numPins]*binding

	closed   atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New starts a driver on port. The driver owns the port and closes it in
// Close.
func New(port io.ReadWriteCloser) *Driver {
	d := &Driver{
		port: port,
		seq:  protocol.SeqDest,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	d.log.Store(logrus.WithField("component", "serialgpio"))
	go d.readLoop()
	return d
}

// SetLogger replaces the driver's logger.
func (d *Driver) SetLogger(l *logrus.Entry) {
	if l == nil {
		return
	}
	d.log.Store(l.WithField("component", "serialgpio"))
}

func (d *Driver) SetMode(index uint8, mode pins.PinMode) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	if err := d.send(CmdSetMode, uint32(index), uint32(mode)); err != nil {
		return err
	}
	if mode&pins.ModeInput != 0 {
		return d.send(CmdQuery, uint32(index))
	}
	return nil
}

func (d *Driver) ReadDigital(index uint8) pins.Level {
	if int(index) >= numPins {
		return pins.Low
	}
	return pins.Level(d.levels[index].Load())
}

// WriteDigital latches level locally and forwards it to the controller.
// Link failures are logged; the pin layer has no error path here.
func (d *Driver) WriteDigital(index uint8, level pins.Level) {
	if int(index) >= numPins {
		return
	}
	d.levels[index].Store(uint32(level))
	if err := d.send(CmdWrite, uint32(index), uint32(level)); err != nil {
		d.log.Load().WithError(err).WithField("pin", index).Error("Write lost")
	}
}

func (d *Driver) BindInterrupt(index uint8, fn pins.InterruptHandler, arg any, edge pins.Edge) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("serialgpio: nil handler for pin %d", index)
	}
	d.bindMu.Lock()
	d.bindings[index] = &binding{fn: fn, arg: arg}
	d.bindMu.Unlock()

	return d.send(CmdBindInterrupt, uint32(index), uint32(edge))
}

func (d *Driver) UnbindInterrupt(index uint8) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	d.bindMu.Lock()
	d.bindings[index] = nil
	d.bindMu.Unlock()

	return d.send(CmdUnbindInterrupt, uint32(index))
}

// Close stops the read loop and closes the port.
func (d *Driver) Close() error {
	var err error
	d.stopOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		err = d.port.Close()
		<-d.done
	})
	return err
}

func (d *Driver) send(cmd uint32, args ...uint32) error {
	if d.closed.Load() {
		return ErrClosed
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.out.Reset()
	err := protocol.EncodeFrame(&d.out, d.seq, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, cmd)
		for _, a := range args {
			protocol.EncodeVLQUint(o, a)
		}
	})
	if err != nil {
		return err
	}
	d.seq = protocol.NextSequence(d.seq)

	msg := d.out.Result()
	n, err := d.port.Write(msg)
	if err != nil {
		return fmt.Errorf("serialgpio: write: %w", err)
	}
	if n != len(msg) {
		return fmt.Errorf("serialgpio: incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// Read loop pacing. A port opened with a read timeout returns (0, io.EOF)
// each time the line stays quiet for that long; that is an idle tick, not
// the end of the link. EOFs returned faster than idleReadMin, and any other
// error, are failures and back off up to readBackoffMax.
const (
	idleReadMin    = time.Millisecond
	readBackoffMin = 10 * time.Millisecond
	readBackoffMax = time.Second
)

func (d *Driver) readLoop() {
	defer close(d.done)

	fifo := protocol.NewFifoBuffer(512)
	dec := protocol.NewDecoder()
	buf := make([]byte, 256)
	var backoff time.Duration

	for {
		start := time.Now()
		n, err := d.port.Read(buf)
		if n > 0 {
			fifo.Write(buf[:n])
			dec.Decode(fifo, d.handleFrame)
		}

		switch {
		case d.closed.Load():
			return
		case err == nil, n > 0:
			backoff = 0
			continue
		case errors.Is(err, io.EOF) && time.Since(start) >= idleReadMin:
			backoff = 0
			continue
		}

		if backoff == 0 {
			backoff = readBackoffMin
			d.log.Load().WithError(err).Warn("Read failed")
		} else if backoff < readBackoffMax {
			backoff = min(2*backoff, readBackoffMax)
			if backoff == readBackoffMax {
				d.log.Load().WithError(err).Error("Link still failing, retrying every second")
			}
		}
		select {
		case <-d.stop:
			return
		case <-time.After(backoff):
		}
	}
}

func (d *Driver) handleFrame(f protocol.Frame) {
	data := f.Payload
	for len(data) > 0 {
		cmd, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			d.log.Load().WithError(err).Warn("Malformed frame")
			return
		}
		index, err := protocol.DecodeVLQUint8(&data)
		if err != nil || int(index) >= numPins {
			d.log.Load().WithField("cmd", cmd).Warn("Report for unknown pin")
			return
		}
		value, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			d.log.Load().WithError(err).Warn("Malformed frame")
			return
		}

		level := pins.Low
		if value != 0 {
			level = pins.High
		}

		switch cmd {
		case RespPinState:
			d.levels[index].Store(uint32(level))
		case RespInterrupt:
			d.levels[index].Store(uint32(level))
			d.bindMu.Lock()
			b := d.bindings[index]
			d.bindMu.Unlock()
			if b != nil {
				b.fn(b.arg)
			}
		default:
			d.log.Load().WithField("cmd", cmd).Warn("Unknown report")
			return
		}
	}
}

func checkIndex(index uint8) error {
	if int(index) >= numPins {
		return fmt.Errorf("serialgpio: no pin %d", index)
	}
	return nil
}
