// Package pixel implements the dot model and packed buffer of a flip-dot panel.
//
// A flip-dot has two stable states, so the color model is 1-bit. The [Page]
// buffer is compatible with Go's native [image.Image] / [draw.Image]
// interfaces.
package pixel
