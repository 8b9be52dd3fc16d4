package pixel

import "image/color"

// MonoModel converts any color to a Mono dot.
var MonoModel color.Model = color.ModelFunc(monoModel)

// Dot colors.
var (
	Black  = Mono{false}
	Yellow = Mono{true}
)

// Mode is the write operation applied to a dot.
type Mode uint8

// Supported modes.
const (
	Off    Mode = iota // Flip the dot to black
	On                 // Flip the dot to yellow
	Invert             // Flip the dot to its other state
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case On:
		return "on"
	case Invert:
		return "invert"
	default:
		return "invalid"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "off", "0", "black":
		return Off, true
	case "on", "1", "yellow":
		return On, true
	case "invert", "inverse", "toggle":
		return Invert, true
	default:
		return Off, false
	}
}

// ModeOf returns On for colors that map to a yellow dot and Off otherwise.
func ModeOf(c color.Color) Mode {
	if monoModel(c).(Mono).On {
		return On
	}
	return Off
}

// Mono represents a 1-bit flip-dot color.
type Mono struct {
	On bool
}

func (c Mono) RGBA() (r, g, b, a uint32) {
	if c.On {
		return 0xffff, 0xffff, 0, 0xffff
	}
	return 0, 0, 0, 0xffff
}

func monoModel(c color.Color) color.Color {
	if _, ok := c.(Mono); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Black
	}

	// These coefficients (the fractions 0.299, 0.587 and 0.114) are the same
	// as those given by the JFIF specification and used by func RGBToYCbCr in
	// ycbcr.go.
	//
	// Note that 19595 + 38470 + 7471 equals 65536.
	//
	// The 31 is 16 + 15. The 16 is the same as used in RGBToYCbCr. The 15 is
	// because the return value is 1 bit color, not 16 bit color.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 31

	return Mono{On: y != 0}
}
