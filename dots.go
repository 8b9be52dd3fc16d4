package flipdot

import "github.com/BeatGlow/flipdot/pixel"

func (d *Display) physical(x, y int) (int, int, bool) {
	if d.buf == nil || x < 0 || y < 0 || x >= d.Width() || y >= d.Height() {
		return 0, 0, false
	}
	x, y = d.rotation.transform(x, y, d.width, d.height)
	return x, y, true
}

// SetPixel sets, clears or inverts the dot at (x, y). Only the buffer
// changes; call Refresh to update the panel. Writes outside the display are
// ignored.
func (d *Display) SetPixel(x, y int, m pixel.Mode) {
	if x, y, ok := d.physical(x, y); ok {
		d.buf.Apply(x, y, m)
	}
}

// Pixel reports if the dot at (x, y) is on in the buffer. Dots outside the
// display are off.
func (d *Display) Pixel(x, y int) bool {
	if x, y, ok := d.physical(x, y); ok {
		return d.buf.Bit(x, y)
	}
	return false
}
