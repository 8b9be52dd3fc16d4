// Package flipdot drives electromechanical flip-dot panels.
//
// A [Display] keeps a packed 1-bit framebuffer in memory. Pixel writes only
// change that buffer; [Display.Refresh] pushes it to the panel over one of the
// supported transports: a packet framed [Bus] such as I²C, a clocked [Link]
// such as SPI, or the discrete ripple counter interface driven by a [Counter].
package flipdot

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/flipdot/pixel"
)

// MaxBufferSize is the largest framebuffer Init will allocate.
const MaxBufferSize = 1 << 20

// MaxWindowWidth is the widest panel a Bus or Link can address, the column
// window end is a single byte.
const MaxWindowWidth = 256

// Errors
var (
	ErrAllocation     = errors.New("flipdot: framebuffer can not be allocated")
	ErrNotInitialized = errors.New("flipdot: display is not initialized")
	ErrTransport      = errors.New("flipdot: invalid transport")
)

// Config is the display configuration.
type Config struct {
	// Width of the panel in dots, at most MaxWindowWidth on a Bus or Link.
	Width int

	// Height of the panel in dots.
	Height int

	// Rotation of the display.
	Rotation Rotation

	// Reset pin, optional. For counter panels it zeroes both ripple counters.
	Reset gpio.PinOut

	// SkipReset disables the reset pulse in Init. Set this on every panel but
	// the first when several share one reset line.
	SkipReset bool

	// Clock used for reset timing, defaults to the real clock.
	Clock clockwork.Clock
}

// Display is a flip-dot panel with an in-memory framebuffer.
type Display struct {
	t        Transport
	buf      *pixel.Page
	width    int
	height   int
	rotation Rotation
	reset    gpio.PinOut
	noReset  bool
	clock    clockwork.Clock
}

// New creates a display on the given transport. No memory is allocated and no
// hardware is touched until Init is called.
func New(t Transport, config *Config) (*Display, error) {
	if t == nil {
		return nil, ErrTransport
	}
	if config == nil {
		return nil, fmt.Errorf("%w: no configuration", ErrAllocation)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrAllocation, config.Width, config.Height)
	}
	switch t.(type) {
	case Bus, Link:
		if config.Width > MaxWindowWidth {
			return nil, fmt.Errorf("%w: width %d exceeds the %d column window", ErrTransport, config.Width, MaxWindowWidth)
		}
	case *Counter:
	default:
		return nil, fmt.Errorf("%w: %T", ErrTransport, t)
	}

	d := &Display{
		t:        t,
		width:    config.Width,
		height:   config.Height,
		rotation: config.Rotation % 4,
		reset:    config.Reset,
		noReset:  config.SkipReset,
		clock:    config.Clock,
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	if d.reset == gpio.INVALID {
		d.reset = nil
	}
	return d, nil
}

func (d *Display) String() string {
	return fmt.Sprintf("flip-dot %dx%d on %s", d.width, d.height, d.t)
}

// Transport the display refreshes through.
func (d *Display) Transport() Transport {
	return d.t
}

// Init allocates the framebuffer, clears it and prepares the transport.
//
// Calling Init again keeps the existing buffer, but clears it.
func (d *Display) Init() error {
	if d.buf == nil {
		if !fitsBuffer(d.width, d.height) {
			return fmt.Errorf("%w: %dx%d exceeds %d bytes", ErrAllocation, d.width, d.height, MaxBufferSize)
		}
		size := pixel.PageSize(d.width, d.height)
		d.buf = pixel.NewPage(d.width, d.height)
		logger.Debug().Int("bytes", size).Int("width", d.width).Int("height", d.height).Msg("framebuffer allocated")
	}
	d.buf.Clear()

	if c, ok := d.t.(*Counter); ok {
		if err := c.init(d.width, d.height); err != nil {
			return err
		}
	}

	if d.reset != nil && !d.noReset {
		if err := d.pulseReset(); err != nil {
			return err
		}
		if c, ok := d.t.(*Counter); ok {
			c.zero()
		}
	}
	return nil
}

// fitsBuffer reports if a w×h framebuffer fits in MaxBufferSize, without
// computing a product that could overflow.
func fitsBuffer(w, h int) bool {
	return w > 0 && h > 0 && w <= MaxBufferSize && pixel.Pages(h) <= MaxBufferSize/w
}

// pulseReset brings the reset line low for 10ms.
func (d *Display) pulseReset() error {
	logger.Debug().Str("pin", d.reset.String()).Msg("reset")
	if err := d.reset.Out(gpio.High); err != nil {
		return fmt.Errorf("flipdot: reset: %w", err)
	}
	d.clock.Sleep(resetSetupTime)
	if err := d.reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("flipdot: reset: %w", err)
	}
	d.clock.Sleep(resetHoldTime)
	if err := d.reset.Out(gpio.High); err != nil {
		return fmt.Errorf("flipdot: reset: %w", err)
	}
	return nil
}

// Initialized reports if the framebuffer is allocated.
func (d *Display) Initialized() bool {
	return d.buf != nil
}

// Close releases the framebuffer. The transport is left open, it belongs to
// whoever opened it.
func (d *Display) Close() error {
	if d.buf != nil {
		d.buf = nil
		logger.Debug().Msg("framebuffer released")
	}
	return nil
}

// Clear the display buffer.
func (d *Display) Clear() {
	if d.buf != nil {
		d.buf.Clear()
	}
}

// Fill applies m to every dot.
func (d *Display) Fill(m pixel.Mode) {
	if d.buf != nil {
		d.buf.FillMode(m)
	}
}

// Buffer returns the packed framebuffer, or nil if the display is not
// initialized. Rotation is not applied to direct buffer access.
func (d *Display) Buffer() []byte {
	if d.buf == nil {
		return nil
	}
	return d.buf.Pix
}

// Bounds is the rotated display bounding box.
func (d *Display) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width(), d.Height())
}

// ColorModel used by the display.
func (d *Display) ColorModel() color.Model {
	return pixel.MonoModel
}

// At returns the color of the dot at (x, y).
func (d *Display) At(x, y int) color.Color {
	if d.Pixel(x, y) {
		return pixel.Yellow
	}
	return pixel.Black
}

// Set the dot at (x, y) to the dot color closest to c.
func (d *Display) Set(x, y int, c color.Color) {
	d.SetPixel(x, y, pixel.ModeOf(c))
}
