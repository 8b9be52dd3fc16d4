// Package draw implements graphics primitives on top of a flip-dot canvas.
//
// Primitives only use [Canvas.SetPixel], so every shape honors the rotation
// and bounds handling of the canvas it draws on.
package draw

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/BeatGlow/flipdot/pixel"
)

// Canvas is the drawing capability a display provides.
type Canvas interface {
	// SetPixel sets, clears or inverts the dot at (x, y).
	SetPixel(x, y int, m pixel.Mode)

	// Pixel reports if the dot at (x, y) is on.
	Pixel(x, y int) bool

	// Width of the canvas in dots.
	Width() int

	// Height of the canvas in dots.
	Height() int
}

// Image is an alias for [image/draw.Image].
type Image = draw.Image

// AsImage returns c as a [draw.Image], using the canvas directly if it
// already implements it.
func AsImage(c Canvas) Image {
	if i, ok := c.(Image); ok {
		return i
	}
	return canvasImage{c}
}

type canvasImage struct {
	Canvas
}

func (i canvasImage) ColorModel() color.Model {
	return pixel.MonoModel
}

func (i canvasImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Width(), i.Height())
}

func (i canvasImage) At(x, y int) color.Color {
	if i.Pixel(x, y) {
		return pixel.Yellow
	}
	return pixel.Black
}

func (i canvasImage) Set(x, y int, c color.Color) {
	i.SetPixel(x, y, pixel.ModeOf(c))
}

// Fill applies m to every dot of the canvas.
func Fill(dst Canvas, m pixel.Mode) {
	Box(dst, image.Rect(0, 0, dst.Width(), dst.Height()), m)
}

// Bitmap draws src with its top left corner at pt, on dots become m. Off
// dots of the source are left untouched.
func Bitmap(dst Canvas, pt image.Point, src image.Image, m pixel.Mode) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if pixel.ModeOf(src.At(x, y)) == pixel.On {
				dst.SetPixel(pt.X+x-b.Min.X, pt.Y+y-b.Min.Y, m)
			}
		}
	}
}
