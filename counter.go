package flipdot

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
)

// ErrPin is returned for a missing or invalid counter control line.
var ErrPin = errors.New("flipdot: counter GPIO pin is invalid")

// Counter defaults.
const (
	DefaultModulo     = 128 // CD4024, 7 stages
	DefaultPulseWidth = time.Millisecond
	DefaultSettle     = 100 * time.Microsecond
)

// CounterConfig describes a panel addressed by two ripple counters.
//
// Durations of zero select the defaults, negative durations disable the wait.
type CounterConfig struct {
	// RowAdvance increments the row counter.
	RowAdvance gpio.PinOut

	// ColAdvance increments the column counter.
	ColAdvance gpio.PinOut

	// CoilPulse powers the coil of the addressed dot.
	CoilPulse gpio.PinOut

	// Set selects the coil polarity: high flips the dot to yellow, low to black.
	Set gpio.PinOut

	// Enable lines select one of up to four panels, optional.
	Enable [4]gpio.PinOut

	// Panel is the panel to enable, 1 to 4. Zero selects the first panel.
	Panel int

	// Modulo is the counter length; advancing past it wraps to 0.
	Modulo int

	// PulseWidth is how long the coil is powered.
	PulseWidth time.Duration

	// Settle is the pause after each coil pulse.
	Settle time.Duration

	// AdvanceWidth is how long an advance line is held high.
	AdvanceWidth time.Duration

	// FullRefresh pulses every dot on each refresh instead of only the dots
	// that changed since the previous refresh.
	FullRefresh bool

	// Clock used for all waits, defaults to the real clock.
	Clock clockwork.Clock
}

// CounterStats describes the work done by the last refresh.
type CounterStats struct {
	// Dots is the number of coil pulses.
	Dots int

	// RowPulses and ColPulses are the counter advance pulses.
	RowPulses int
	ColPulses int

	// Full is set if every dot was pulsed.
	Full bool
}

// Counter drives a panel through row and column ripple counters and a coil
// pulse line, one dot at a time.
type Counter struct {
	rowAdv       gpio.PinOut
	colAdv       gpio.PinOut
	coil         gpio.PinOut
	set          gpio.PinOut
	enable       [4]gpio.PinOut
	panel        int
	modulo       int
	pulseWidth   time.Duration
	settle       time.Duration
	advanceWidth time.Duration
	full         bool
	clock        clockwork.Clock

	row, col int
	shadow   []byte
	stats    CounterStats
}

// NewCounter validates the control lines.
func NewCounter(config *CounterConfig) (*Counter, error) {
	if config == nil {
		return nil, ErrPin
	}
	for name, pin := range map[string]gpio.PinOut{
		"row advance":    config.RowAdvance,
		"column advance": config.ColAdvance,
		"coil pulse":     config.CoilPulse,
		"set":            config.Set,
	} {
		if pin == nil || pin == gpio.INVALID {
			return nil, fmt.Errorf("%w: %s", ErrPin, name)
		}
	}

	c := &Counter{
		rowAdv:       config.RowAdvance,
		colAdv:       config.ColAdvance,
		coil:         config.CoilPulse,
		set:          config.Set,
		panel:        config.Panel,
		modulo:       config.Modulo,
		pulseWidth:   duration(config.PulseWidth, DefaultPulseWidth),
		settle:       duration(config.Settle, DefaultSettle),
		advanceWidth: duration(config.AdvanceWidth, 0),
		full:         config.FullRefresh,
		clock:        config.Clock,
	}
	for i, pin := range config.Enable {
		if pin != gpio.INVALID {
			c.enable[i] = pin
		}
	}
	if c.panel == 0 {
		c.panel = 1
	}
	if c.panel < 1 || c.panel > len(c.enable) {
		return nil, fmt.Errorf("%w: panel %d, expected 1 to %d", ErrTransport, c.panel, len(c.enable))
	}
	if c.modulo == 0 {
		c.modulo = DefaultModulo
	}
	if c.modulo < 0 {
		return nil, fmt.Errorf("%w: counter modulo %d", ErrTransport, c.modulo)
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	return c, nil
}

func duration(d, def time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d == 0:
		return def
	default:
		return d
	}
}

func (c *Counter) String() string {
	return fmt.Sprintf("ripple counter panel %d (row %s, column %s, coil %s)", c.panel, c.rowAdv, c.colAdv, c.coil)
}

// Close powers down the coil and disables all panels.
func (c *Counter) Close() error {
	err := c.coil.Out(gpio.Low)
	for _, pin := range c.enable {
		if pin == nil {
			continue
		}
		if e := pin.Out(gpio.Low); e != nil && err == nil {
			err = e
		}
	}
	c.shadow = nil
	return err
}

// Stats of the last refresh.
func (c *Counter) Stats() CounterStats {
	return c.stats
}

// init drives every control line and enables the selected panel. Without a
// reset pulse the counters keep their tracked position, which starts at zero
// for a freshly powered panel.
func (c *Counter) init(width, height int) error {
	if width > c.modulo || height > c.modulo {
		return fmt.Errorf("%w: %dx%d panel exceeds counter length %d", ErrTransport, width, height, c.modulo)
	}
	for _, pin := range []gpio.PinOut{c.rowAdv, c.colAdv, c.coil, c.set} {
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("flipdot: counter init %s: %w", pin, err)
		}
	}
	for i, pin := range c.enable {
		if pin == nil {
			continue
		}
		if err := pin.Out(gpio.Level(i+1 == c.panel)); err != nil {
			return fmt.Errorf("flipdot: counter enable %s: %w", pin, err)
		}
	}
	c.shadow = nil
	return nil
}

// zero is called after the reset line cleared both counters.
func (c *Counter) zero() {
	c.row, c.col = 0, 0
}

// flush scans the panel column by column and pulses every dot that differs
// from the previous flush, or every dot on the first flush.
func (c *Counter) flush(pix []byte, width, height int) (err error) {
	full := c.full || len(c.shadow) != len(pix)
	c.stats = CounterStats{Full: full}

	defer func() {
		if err != nil {
			// The panel state is unknown now, pulse everything next time.
			c.shadow = nil
		}
	}()

	for col := 0; col < width; col++ {
		for row := 0; row < height; row++ {
			var (
				pos = col + row/8*width
				bit = byte(1) << uint(row&7)
				on  = pix[pos]&bit != 0
			)
			if !full && (c.shadow[pos]&bit != 0) == on {
				continue
			}
			if err = c.seek(row, col); err != nil {
				return
			}
			if err = c.flip(on); err != nil {
				return
			}
		}
	}

	if full {
		c.shadow = make([]byte, len(pix))
	}
	copy(c.shadow, pix)

	logger.Debug().
		Int("dots", c.stats.Dots).
		Int("row_pulses", c.stats.RowPulses).
		Int("col_pulses", c.stats.ColPulses).
		Bool("full", full).
		Msg("counter refresh")
	return nil
}

// seek advances both counters, wrapping around, until they address (row, col).
func (c *Counter) seek(row, col int) (err error) {
	steps := (col - c.col + c.modulo) % c.modulo
	if err = c.advance(c.colAdv, steps); err != nil {
		return
	}
	c.col = col
	c.stats.ColPulses += steps

	steps = (row - c.row + c.modulo) % c.modulo
	if err = c.advance(c.rowAdv, steps); err != nil {
		return
	}
	c.row = row
	c.stats.RowPulses += steps
	return
}

func (c *Counter) advance(pin gpio.PinOut, n int) error {
	for ; n > 0; n-- {
		if err := pin.Out(gpio.High); err != nil {
			return fmt.Errorf("flipdot: advance %s: %w", pin, err)
		}
		c.wait(c.advanceWidth)
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("flipdot: advance %s: %w", pin, err)
		}
	}
	return nil
}

// flip pulses the coil of the addressed dot with the polarity for on.
func (c *Counter) flip(on bool) error {
	if err := c.set.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("flipdot: set polarity: %w", err)
	}
	if err := c.coil.Out(gpio.High); err != nil {
		return fmt.Errorf("flipdot: coil pulse: %w", err)
	}
	c.wait(c.pulseWidth)
	if err := c.coil.Out(gpio.Low); err != nil {
		return fmt.Errorf("flipdot: coil pulse: %w", err)
	}
	c.wait(c.settle)
	c.stats.Dots++
	return nil
}

func (c *Counter) wait(d time.Duration) {
	if d > 0 {
		c.clock.Sleep(d)
	}
}
