// Package geometry holds the box arithmetic shared by every annotation edit:
// ordering, clamping to the image and minimum size enforcement.
package geometry

import "github.com/lewtec/demarcador/internal/domain"

// DefaultMinSize is the smallest width and height, in pixels, a box is kept at
const DefaultMinSize = 10

// Clamp limits v to [lo, hi]. When hi < lo the lower bound wins.
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Normalize orders the coordinates so that X1 <= X2 and Y1 <= Y2
func Normalize(b domain.BBox) domain.BBox {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// ClampToImage limits every coordinate to [0,w]x[0,h]
func ClampToImage(b domain.BBox, w, h int) domain.BBox {
	b = Normalize(b)
	return domain.BBox{
		X1: Clamp(b.X1, 0, w),
		Y1: Clamp(b.Y1, 0, h),
		X2: Clamp(b.X2, 0, w),
		Y2: Clamp(b.Y2, 0, h),
	}
}

// FitAxis enforces a minimum extent on one axis and keeps both ends in [0,limit].
// lo must not be greater than hi. When anchorLo is set the hi end yields to
// reach the minimum, otherwise the lo end does. If the limit itself is smaller
// than minSize the axis is only clamped.
func FitAxis(lo, hi, minSize, limit int, anchorLo bool) (int, int) {
	if hi-lo < minSize {
		if anchorLo {
			hi = lo + minSize
		} else {
			lo = hi - minSize
		}
	}
	lo = Clamp(lo, 0, limit)
	hi = Clamp(hi, 0, limit)
	if hi-lo < minSize && limit >= minSize {
		// pushed against a border, grow away from it
		if lo+minSize <= limit {
			hi = lo + minSize
		} else {
			hi = limit
			lo = limit - minSize
		}
	}
	return lo, hi
}

// Pin translates the box so that it lies inside the image while keeping its
// size. A box larger than the image is pinned to the top-left border and
// cropped.
func Pin(b domain.BBox, w, h int) domain.BBox {
	width, height := b.Width(), b.Height()
	x1 := Clamp(b.X1, 0, w-width)
	y1 := Clamp(b.Y1, 0, h-height)
	return domain.BBox{
		X1: x1,
		Y1: y1,
		X2: min(x1+width, w),
		Y2: min(y1+height, h),
	}
}

// MoveWithin shifts the box by (dx, dy) and keeps it inside the image
func MoveWithin(b domain.BBox, dx, dy, w, h, minSize int) domain.BBox {
	b = Normalize(b)
	b.X1 += dx
	b.X2 += dx
	b.Y1 += dy
	b.Y2 += dy
	b = Pin(b, w, h)
	b.X1, b.X2 = FitAxis(b.X1, b.X2, minSize, w, true)
	b.Y1, b.Y2 = FitAxis(b.Y1, b.Y2, minSize, h, true)
	return b
}
