// Package pixel provides immutable tile pixel buffers and the read-only
// tile index shared by every organizer component.
//
// Buffers are stored non-premultiplied (NRGBA) so that colour channels of
// fully transparent pixels survive; edge matching compares all four channels
// exactly.
package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer is an immutable rectangular NRGBA pixel buffer anchored at (0,0).
type Buffer struct {
	img *image.NRGBA
}

// FromImage copies img into a new buffer anchored at the origin.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Buffer{img: dst}
}

// New returns a fully transparent buffer of the given size.
func New(w, h int) *Buffer {
	return &Buffer{img: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

// Filled returns a buffer of the given size with every pixel set to c.
func Filled(w, h int, c color.NRGBA) *Buffer {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return &Buffer{img: img}
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() image.Point { return b.img.Rect.Size() }

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) color.NRGBA { return b.img.NRGBAAt(x, y) }

// Image exposes the buffer for encoding and drawing. Callers must not
// modify it.
func (b *Buffer) Image() image.Image { return b.img }

// Equal reports whether both buffers have the same size and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.Size() != o.Size() {
		return false
	}
	for y := range b.Height() {
		for x := range b.Width() {
			if b.At(x, y) != o.At(x, y) {
				return false
			}
		}
	}
	return true
}

// Side names one boundary of a buffer.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Strip returns the boundary row or column on side s.
// Rows run left to right, columns top to bottom.
func (b *Buffer) Strip(s Side) []color.NRGBA {
	w, h := b.Width(), b.Height()
	switch s {
	case Top, Bottom:
		y := 0
		if s == Bottom {
			y = h - 1
		}
		out := make([]color.NRGBA, w)
		for x := range w {
			out[x] = b.At(x, y)
		}
		return out
	case Left, Right:
		x := 0
		if s == Right {
			x = w - 1
		}
		out := make([]color.NRGBA, h)
		for y := range h {
			out[y] = b.At(x, y)
		}
		return out
	}
	return nil
}

// TransparentWhite returns a copy of b where every opaque-ish pure white
// pixel (#ffffff with alpha > 0) becomes (255,255,255,0).
func TransparentWhite(b *Buffer) *Buffer {
	out := FromImage(b.img)
	for y := range out.Height() {
		for x := range out.Width() {
			c := out.img.NRGBAAt(x, y)
			if c.A != 0 && c.R == 255 && c.G == 255 && c.B == 255 {
				out.img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
			}
		}
	}
	return out
}

// IsEmpty reports whether b carries no content. With transparent set, empty
// means every pixel has alpha 0; otherwise every pixel is pure white.
func IsEmpty(b *Buffer, transparent bool) bool {
	for y := range b.Height() {
		for x := range b.Width() {
			c := b.At(x, y)
			if transparent {
				if c.A != 0 {
					return false
				}
				continue
			}
			if c.R != 255 || c.G != 255 || c.B != 255 {
				return false
			}
		}
	}
	return true
}
