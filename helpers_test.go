package flipdot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

type event struct {
	pin   string
	level gpio.Level
	tx    []byte // set for connection writes
}

// trace records pin changes and writes in order.
type trace struct {
	mu     sync.Mutex
	events []event
}

func (t *trace) add(e event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *trace) all() []event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]event(nil), t.events...)
}

func (t *trace) levels(name string) []gpio.Level {
	var out []gpio.Level
	for _, e := range t.all() {
		if e.pin == name && e.tx == nil {
			out = append(out, e.level)
		}
	}
	return out
}

func (t *trace) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

type recordPin struct {
	*gpiotest.Pin
	t *trace
}

func newRecordPin(t *trace, name string) *recordPin {
	return &recordPin{Pin: &gpiotest.Pin{N: name}, t: t}
}

func (p *recordPin) Out(l gpio.Level) error {
	p.t.add(event{pin: p.N, level: l})
	return p.Pin.Out(l)
}

func newTestDisplay(t *testing.T, w, h int) (*Display, *i2ctest.Record) {
	t.Helper()
	rec := &i2ctest.Record{}
	bus, err := NewI2C(rec, nil)
	require.NoError(t, err)
	d, err := New(bus, &Config{Width: w, Height: h})
	require.NoError(t, err)
	require.NoError(t, d.Init())
	return d, rec
}
