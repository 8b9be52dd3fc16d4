package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pages.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

// Pages returns the number of 8-row pages needed for h rows.
func Pages(h int) int {
	n := h / 8
	if h%8 != 0 {
		n++
	}
	return n
}

// PageSize is the number of bytes a w×h Page occupies.
func PageSize(w, h int) int {
	return w * Pages(h)
}

// Page is a 1-bit per pixel image organized in pages of 8 vertically stacked
// rows. Each byte holds one column of a page, least significant bit on top.
type Page struct {
	Buffer
}

// NewPage allocates a blank w×h page image.
func NewPage(w, h int) *Page {
	return &Page{
		Buffer: Buffer{
			Rect:   image.Rect(0, 0, w, h),
			Pix:    make([]byte, PageSize(w, h)),
			Stride: w,
		},
	}
}

func (p *Page) ColorModel() color.Model {
	return MonoModel
}

// PixOffset returns the byte offset and bit mask of the dot at (x, y).
func (p *Page) PixOffset(x, y int) (int, byte) {
	return x + y/8*p.Stride, byte(1) << uint(y&7)
}

func (p *Page) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return Mono{On: p.Bit(x, y)}
}

// Bit reports whether the dot at (x, y) is on. Out of bounds dots are off.
func (p *Page) Bit(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return false
	}
	pos, bit := p.PixOffset(x, y)
	return p.Pix[pos]&bit != 0
}

func (p *Page) Set(x, y int, c color.Color) {
	p.Apply(x, y, ModeOf(c))
}

// Apply writes a single dot. Out of bounds writes are ignored.
func (p *Page) Apply(x, y int, m Mode) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	pos, bit := p.PixOffset(x, y)
	switch m {
	case On:
		p.Pix[pos] |= bit
	case Off:
		p.Pix[pos] &^= bit
	case Invert:
		p.Pix[pos] ^= bit
	}
}

func (p *Page) Fill(c color.Color) {
	p.FillMode(ModeOf(c))
}

// FillMode applies m to every dot.
func (p *Page) FillMode(m Mode) {
	switch m {
	case On:
		for i := range p.Pix {
			p.Pix[i] = 0xff
		}
	case Off:
		p.Clear()
	case Invert:
		for i := range p.Pix {
			p.Pix[i] = ^p.Pix[i]
		}
	}
}

// Interface checks.
var (
	_ Image = (*Page)(nil)
)
