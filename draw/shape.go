package draw

import (
	"image"

	"github.com/BeatGlow/flipdot/pixel"
)

// Point sets a single dot.
func Point(dst Canvas, p image.Point, m pixel.Mode) {
	dst.SetPixel(p.X, p.Y, m)
}

// Line draws a line between two points.
func Line(dst Canvas, a, b image.Point, m pixel.Mode) {
	bresenham(dst, a.X, a.Y, b.X, b.Y, m)
}

// HorizontalLine draws a line between (x,y) and (x+w-1,y).
func HorizontalLine(dst Canvas, x, y, w int, m pixel.Mode) {
	for i := 0; i < w; i++ {
		dst.SetPixel(x+i, y, m)
	}
}

// VerticalLine draws a line between (x,y) and (x,y+h-1).
func VerticalLine(dst Canvas, x, y, h int, m pixel.Mode) {
	for i := 0; i < h; i++ {
		dst.SetPixel(x, y+i, m)
	}
}

// Rectangle draws the outline of rect. Every dot is touched once, so
// inverting a rectangle twice restores the canvas.
func Rectangle(dst Canvas, rect image.Rectangle, m pixel.Mode) {
	rect = rect.Canon()
	var (
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	if w == 0 || h == 0 {
		return
	}
	HorizontalLine(dst, x, y, w, m)
	if h > 1 {
		HorizontalLine(dst, x, y+h-1, w, m)
	}
	if h > 2 {
		VerticalLine(dst, x, y+1, h-2, m)
		if w > 1 {
			VerticalLine(dst, x+w-1, y+1, h-2, m)
		}
	}
}

// RoundedRectangle draws a rectangle with radius pixels rounded corners.
func RoundedRectangle(dst Canvas, rect image.Rectangle, radius int, m pixel.Mode) {
	rect = rect.Canon()
	var (
		r = clampRadius(rect, radius)
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, x+r, y, w-2*r, m)
	HorizontalLine(dst, x+r, y+h-1, w-2*r, m)
	VerticalLine(dst, x, y+r, h-2*r, m)
	VerticalLine(dst, x+w-1, y+r, h-2*r, m)
	roundedCorner(dst, x+0+r+0, y+0+r+0, r, 1, m)
	roundedCorner(dst, x+w-r-1, y+0+r+0, r, 2, m)
	roundedCorner(dst, x+w-r-1, y+h-r-1, r, 4, m)
	roundedCorner(dst, x+0+r+0, y+h-r-1, r, 8, m)
}

// Box draws a filled rectangle.
func Box(dst Canvas, rect image.Rectangle, m pixel.Mode) {
	rect = rect.Canon()
	for x := rect.Min.X; x < rect.Max.X; x++ {
		VerticalLine(dst, x, rect.Min.Y, rect.Dy(), m)
	}
}

// RoundedBox draws a filled rectangle with radius pixels rounded corners.
func RoundedBox(dst Canvas, rect image.Rectangle, radius int, m pixel.Mode) {
	rect = rect.Canon()
	var (
		r = clampRadius(rect, radius)
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	Box(dst, image.Rect(x+r, y, x+w-r, y+h), m)
	filledRoundedCorner(dst, x+w-r-1, y+r, r, 1, h-2*r-1, m)
	filledRoundedCorner(dst, x+r, y+r, r, 2, h-2*r-1, m)
}

// Circle draws the outline of a circle.
func Circle(dst Canvas, center image.Point, radius int, m pixel.Mode) {
	if radius < 0 {
		return
	}
	if radius == 0 {
		dst.SetPixel(center.X, center.Y, m)
		return
	}
	var (
		x0 = center.X
		y0 = center.Y
		r  = radius
	)
	dst.SetPixel(x0, y0+r, m)
	dst.SetPixel(x0, y0-r, m)
	dst.SetPixel(x0+r, y0, m)
	dst.SetPixel(x0-r, y0, m)
	roundedCorner(dst, x0, y0, r, 1|2|4|8, m)
}

// Disc draws a filled circle.
func Disc(dst Canvas, center image.Point, radius int, m pixel.Mode) {
	if radius < 0 {
		return
	}
	VerticalLine(dst, center.X, center.Y-radius, 2*radius+1, m)
	filledRoundedCorner(dst, center.X, center.Y, radius, 1|2, 0, m)
}

func clampRadius(rect image.Rectangle, r int) int {
	if max := rect.Dx() / 2; r > max {
		r = max
	}
	if max := rect.Dy() / 2; r > max {
		r = max
	}
	if r < 0 {
		r = 0
	}
	return r
}

func roundedCorner(dst Canvas, x0, y0, radius, quadrant int, m pixel.Mode) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
	)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}

		x++
		ddFx += 2
		f += ddFx
		if x > y {
			// Mirror of the previous step.
			break
		}

		if quadrant&4 != 0 {
			dst.SetPixel(x0+x, y0+y, m)
			if x != y {
				dst.SetPixel(x0+y, y0+x, m)
			}
		}
		if quadrant&2 != 0 {
			dst.SetPixel(x0+x, y0-y, m)
			if x != y {
				dst.SetPixel(x0+y, y0-x, m)
			}
		}
		if quadrant&8 != 0 {
			dst.SetPixel(x0-x, y0+y, m)
			if x != y {
				dst.SetPixel(x0-y, y0+x, m)
			}
		}
		if quadrant&1 != 0 {
			dst.SetPixel(x0-x, y0-y, m)
			if x != y {
				dst.SetPixel(x0-y, y0-x, m)
			}
		}
	}
}

func filledRoundedCorner(dst Canvas, x0, y0, radius, quadrant, delta int, m pixel.Mode) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
		px   = x
		py   = y
	)
	delta++ // avoid some +1's in the loop

	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}

		x++
		ddFx += 2
		f += ddFx

		// These checks avoid double-drawing certain lines, which matters
		// when inverting.
		if x < y+1 {
			if quadrant&1 != 0 {
				VerticalLine(dst, x0+x, y0-y, 2*y+delta, m)
			}
			if quadrant&2 != 0 {
				VerticalLine(dst, x0-x, y0-y, 2*y+delta, m)
			}
		}
		if y != py {
			if quadrant&1 != 0 {
				VerticalLine(dst, x0+py, y0-px, 2*px+delta, m)
			}
			if quadrant&2 != 0 {
				VerticalLine(dst, x0-py, y0-px, 2*px+delta, m)
			}
			py = y
		}
		px = x
	}
}

// Generalized with integer
func bresenham(dst Canvas, x1, y1, x2, y2 int, m pixel.Mode) {
	var dx, dy, e, slope int

	// Because drawing p1 -> p2 is equivalent to draw p2 -> p1,
	// I sort points in x-axis order to handle only half of possible cases.
	if x1 > x2 {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}

	dx, dy = x2-x1, y2-y1
	// Because point is x-axis ordered, dx cannot be negative
	if dy < 0 {
		dy = -dy
	}

	switch {

	// Is line a point ?
	case x1 == x2 && y1 == y2:
		dst.SetPixel(x1, y1, m)

	// Is line an horizontal ?
	case y1 == y2:
		for ; dx != 0; dx-- {
			dst.SetPixel(x1, y1, m)
			x1++
		}
		dst.SetPixel(x1, y1, m)

	// Is line a vertical ?
	case x1 == x2:
		if y1 > y2 {
			y1, y2 = y2, y1
		}
		for ; dy != 0; dy-- {
			dst.SetPixel(x1, y1, m)
			y1++
		}
		dst.SetPixel(x1, y1, m)

	// Is line a diagonal ?
	case dx == dy:
		if y1 < y2 {
			for ; dx != 0; dx-- {
				dst.SetPixel(x1, y1, m)
				x1++
				y1++
			}
		} else {
			for ; dx != 0; dx-- {
				dst.SetPixel(x1, y1, m)
				x1++
				y1--
			}
		}
		dst.SetPixel(x1, y1, m)

	// wider than high ?
	case dx > dy:
		step := 1
		if y1 > y2 {
			step = -1
		}
		dy, e, slope = 2*dy, dx, 2*dx
		for ; dx != 0; dx-- {
			dst.SetPixel(x1, y1, m)
			x1++
			e -= dy
			if e < 0 {
				y1 += step
				e += slope
			}
		}
		dst.SetPixel(x2, y2, m)

	// higher than wide.
	default:
		step := 1
		if y1 > y2 {
			step = -1
		}
		dx, e, slope = 2*dx, dy, 2*dy
		for ; dy != 0; dy-- {
			dst.SetPixel(x1, y1, m)
			y1 += step
			e -= dx
			if e < 0 {
				x1++
				e += slope
			}
		}
		dst.SetPixel(x2, y2, m)
	}
}
