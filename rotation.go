package flipdot

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// ParseRotation accepts the names used by the command line tools.
func ParseRotation(s string) (Rotation, bool) {
	switch s {
	case "", "no", "0":
		return NoRotation, true
	case "1", "90", "right", "cw":
		return Rotate90, true
	case "2", "180", "flip":
		return Rotate180, true
	case "3", "270", "left", "ccw":
		return Rotate270, true
	default:
		return NoRotation, false
	}
}

// transform maps logical (x, y) to physical coordinates on a w×h panel.
// Callers must have bounds checked (x, y) against the rotated geometry.
func (r Rotation) transform(x, y, w, h int) (int, int) {
	switch r % 4 {
	case Rotate90:
		x, y = y, x
		x = w - x - 1
	case Rotate180:
		x = w - x - 1
		y = h - y - 1
	case Rotate270:
		x, y = y, x
		y = h - y - 1
	}
	return x, y
}

// SetRotation changes the rotation used by later reads and writes. The
// buffer contents are not touched.
func (d *Display) SetRotation(r Rotation) {
	d.rotation = r % 4
}

// Rotation in use.
func (d *Display) Rotation() Rotation {
	return d.rotation
}

// Width is the logical width, after rotation.
func (d *Display) Width() int {
	if d.rotation&1 == 1 {
		return d.height
	}
	return d.width
}

// Height is the logical height, after rotation.
func (d *Display) Height() int {
	if d.rotation&1 == 1 {
		return d.width
	}
	return d.height
}
