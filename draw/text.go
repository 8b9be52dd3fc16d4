package draw

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/BeatGlow/flipdot/pixel"
)

// DefaultFace is the bitmap face used by Text.
var DefaultFace font.Face = basicfont.Face7x13

var (
	defaultFont     *truetype.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// DefaultFont returns the Go Regular TrueType font.
func DefaultFont() (*truetype.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = freetype.ParseFont(goregular.TTF)
	})
	return defaultFont, defaultFontErr
}

// modeImage writes glyph coverage to a canvas as dot mode m. It reads as
// fully transparent, so compositing over it yields the glyph coverage as
// alpha. Coverage below half leaves the dot untouched.
type modeImage struct {
	Canvas
	mode pixel.Mode
}

func (i modeImage) ColorModel() color.Model { return color.Alpha16Model }

func (i modeImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Width(), i.Height())
}

func (i modeImage) At(x, y int) color.Color { return color.Transparent }

func (i modeImage) Set(x, y int, c color.Color) {
	if _, _, _, a := c.RGBA(); a >= 0x8000 {
		i.SetPixel(x, y, i.mode)
	}
}

// Text draws s with the bitmap face, using pt as the top left corner of the
// first glyph. It returns the advance of the drawn text in dots.
func Text(dst Canvas, pt image.Point, s string, m pixel.Mode) int {
	return TextFace(dst, DefaultFace, pt, s, m)
}

// TextFace is like Text, with a custom face.
func TextFace(dst Canvas, face font.Face, pt image.Point, s string, m pixel.Mode) int {
	d := &font.Drawer{
		Dst:  modeImage{Canvas: dst, mode: m},
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y+face.Metrics().Ascent.Ceil()),
	}
	start := d.Dot.X
	d.DrawString(s)
	return (d.Dot.X - start).Ceil()
}

// MeasureText returns the width and height in dots of s in face.
func MeasureText(face font.Face, s string) (int, int) {
	m := face.Metrics()
	return font.MeasureString(face, s).Ceil(), (m.Ascent + m.Descent).Ceil()
}

// TrueType draws s in f at size points (one point per dot), with pt as the
// top left corner of the text.
func TrueType(dst Canvas, f *truetype.Font, size float64, pt image.Point, s string, m pixel.Mode) error {
	if f == nil {
		var err error
		if f, err = DefaultFont(); err != nil {
			return err
		}
	}

	img := modeImage{Canvas: dst, mode: m}
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.Opaque)

	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	defer face.Close()

	dot := freetype.Pt(pt.X, pt.Y)
	dot.Y += face.Metrics().Ascent
	_, err := ctx.DrawString(s, dot)
	return err
}
