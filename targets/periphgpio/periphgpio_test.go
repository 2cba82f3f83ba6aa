package periphgpio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"gopin/pins"
)

func newTestDriver(t *testing.T) (*Driver, map[uint8]*gpiotest.Pin) {
	t.Helper()
	fakes := map[uint8]*gpiotest.Pin{
		12: {N: "GPIO12", Num: 12},
		15: {N: "GPIO15", Num: 15, EdgesChan: make(chan gpio.Level, 4)},
		34: {N: "GPIO34", Num: 34},
	}
	d := New(func(index uint8) gpio.PinIO {
		if p, ok := fakes[index]; ok {
			return p
		}
		return nil
	})
	t.Cleanup(func() { d.Close() })
	return d, fakes
}

func TestOutput(t *testing.T) {
	d, fakes := newTestDriver(t)

	d.WriteDigital(12, pins.High)
	require.NoError(t, d.SetMode(12, pins.ModeOutput))
	assert.Equal(t, gpio.High, fakes[12].Read())
	assert.Equal(t, pins.High, d.ReadDigital(12))

	d.WriteDigital(12, pins.Low)
	assert.Equal(t, pins.Low, d.ReadDigital(12))
}

func TestInputPulls(t *testing.T) {
	d, fakes := newTestDriver(t)

	require.NoError(t, d.SetMode(34, pins.ModeInput|pins.ModePullUp))
	assert.Equal(t, gpio.PullUp, fakes[34].P)

	require.NoError(t, d.SetMode(34, pins.ModeInput|pins.ModePullDown))
	assert.Equal(t, gpio.PullDown, fakes[34].P)

	require.NoError(t, d.SetMode(34, pins.ModeInput))
	assert.Equal(t, gpio.Float, fakes[34].P)
}

func TestMissingPin(t *testing.T) {
	d, _ := newTestDriver(t)

	assert.Error(t, d.SetMode(4, pins.ModeInput))
	assert.Error(t, d.SetMode(200, pins.ModeInput))
	assert.Equal(t, pins.Low, d.ReadDigital(4))
	d.WriteDigital(4, pins.High)
}

func TestInterruptWatcher(t *testing.T) {
	d, fakes := newTestDriver(t)
	limit := fakes[15]

	require.NoError(t, d.SetMode(15, pins.ModeInput|pins.ModePullDown))

	fired := make(chan any, 4)
	require.NoError(t, d.BindInterrupt(15, func(arg any) { fired <- arg }, "x-limit", pins.EdgeRising))

	limit.EdgesChan <- gpio.High
	select {
	case arg := <-fired:
		assert.Equal(t, "x-limit", arg)
	case <-time.After(time.Second):
		t.Fatal("rising edge not reported")
	}

	// Falling edges do not match a rising binding.
	limit.EdgesChan <- gpio.Low
	assert.Never(t, func() bool { return len(fired) > 0 }, 3*edgePoll, edgePoll/5)

	require.NoError(t, d.UnbindInterrupt(15))
	limit.EdgesChan <- gpio.High
	assert.Never(t, func() bool { return len(fired) > 0 }, 3*edgePoll, edgePoll/5)
}

func TestBindNeedsHandler(t *testing.T) {
	d, _ := newTestDriver(t)
	assert.Error(t, d.BindInterrupt(15, nil, nil, pins.EdgeChange))
	assert.NoError(t, d.UnbindInterrupt(15), "unbinding an idle pin is a no-op")
}

func TestPinThroughBoard(t *testing.T) {
	d, fakes := newTestDriver(t)
	board := pins.NewBoard(d)

	p, err := board.Claim("probe", "gpio.15:pu")
	require.NoError(t, err)
	require.NoError(t, p.Configure(pins.AttrInput|pins.AttrISR))
	assert.Equal(t, gpio.PullUp, fakes[15].P)

	fired := make(chan any, 1)
	require.NoError(t, p.AttachInterrupt(func(arg any) { fired <- arg }, nil, pins.EdgeFalling))
	fakes[15].EdgesChan <- gpio.Low
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("falling edge not reported")
	}
	require.NoError(t, p.DetachInterrupt())
}

// edgeRecorder remembers the edge passed to every In call.
type edgeRecorder struct {
	*gpiotest.Pin

	mu    sync.Mutex
	edges []gpio.Edge
}

func (r *edgeRecorder) In(pull gpio.Pull, edge gpio.Edge) error {
	r.mu.Lock()
	r.edges = append(r.edges, edge)
	r.mu.Unlock()
	return r.Pin.In(pull, edge)
}

func (r *edgeRecorder) lastEdge() gpio.Edge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.edges) == 0 {
		return gpio.NoEdge
	}
	return r.edges[len(r.edges)-1]
}

func TestModeChangeKeepsEdgeArmed(t *testing.T) {
	limit := &edgeRecorder{Pin: &gpiotest.Pin{N: "GPIO15", Num: 15, EdgesChan: make(chan gpio.Level, 4)}}
	d := New(func(index uint8) gpio.PinIO {
		if index == 15 {
			return limit
		}
		return nil
	})
	t.Cleanup(func() { d.Close() })

	fired := make(chan any, 4)
	require.NoError(t, d.BindInterrupt(15, func(arg any) { fired <- arg }, "z-limit", pins.EdgeRising))
	require.Equal(t, gpio.RisingEdge, limit.lastEdge())

	require.NoError(t, d.SetMode(15, pins.ModeInput|pins.ModePullDown))
	assert.Equal(t, gpio.RisingEdge, limit.lastEdge(), "reconfiguring the input dropped the edge")
	assert.Equal(t, gpio.PullDown, limit.P)

	limit.EdgesChan <- gpio.High
	select {
	case arg := <-fired:
		assert.Equal(t, "z-limit", arg)
	case <-time.After(time.Second):
		t.Fatal("edge lost after mode change")
	}

	require.NoError(t, d.UnbindInterrupt(15))
	assert.Equal(t, gpio.NoEdge, limit.lastEdge())
	require.NoError(t, d.SetMode(15, pins.ModeInput))
	assert.Equal(t, gpio.NoEdge, limit.lastEdge(), "unbound pins stay without edge detection")
}
