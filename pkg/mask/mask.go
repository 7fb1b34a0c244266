// Package mask provides the per-slice boolean masks and the committed
// mask store at the heart of the ROI annotation engine. A mask covers one
// slice of the volume; the store maps ROI name and slice index to the
// committed mask for that pair and is the single source of truth for
// finished annotations.
package mask

import (
	"fmt"
	"image"
)

// Mask is a fixed-size 2D boolean grid matching the in-plane dimensions
// of the volume. The zero pixel value is false (background).
type Mask struct {
	width  int
	height int
	pix    []bool
}

// New returns an all-false mask of the given dimensions.
func New(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("mask: invalid dimensions %dx%d", width, height))
	}
	return &Mask{
		width:  width,
		height: height,
		pix:    make([]bool, width*height),
	}
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// In reports whether (x, y) lies inside the mask bounds.
func (m *Mask) In(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// At returns the pixel at (x, y). Out-of-bounds coordinates panic.
func (m *Mask) At(x, y int) bool {
	m.checkBounds(x, y)
	return m.pix[y*m.width+x]
}

// Set writes the pixel at (x, y). Out-of-bounds coordinates panic.
func (m *Mask) Set(x, y int, v bool) {
	m.checkBounds(x, y)
	m.pix[y*m.width+x] = v
}

// checkBounds panics when (x, y) is outside the mask. A row-local check
// is not enough: a negative x would silently alias into the previous
// row of the flat pixel slice.
func (m *Mask) checkBounds(x, y int) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		panic(fmt.Sprintf("mask: point (%d,%d) out of bounds %dx%d", x, y, m.width, m.height))
	}
}

// Any reports whether at least one pixel is true.
func (m *Mask) Any() bool {
	for _, v := range m.pix {
		if v {
			return true
		}
	}
	return false
}

// Area returns the number of true pixels.
func (m *Mask) Area() int {
	n := 0
	for _, v := range m.pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{
		width:  m.width,
		height: m.height,
		pix:    make([]bool, len(m.pix)),
	}
	copy(c.pix, m.pix)
	return c
}

// Equal reports whether two masks have identical dimensions and pixels.
func (m *Mask) Equal(o *Mask) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i, v := range m.pix {
		if v != o.pix[i] {
			return false
		}
	}
	return true
}

// SameSize reports whether the mask matches the given dimensions.
func (m *Mask) SameSize(width, height int) bool {
	return m.width == width && m.height == height
}

// Stamp sets every footprint offset around center to v, skipping points
// that fall outside the mask.
func (m *Mask) Stamp(center image.Point, footprint []image.Point, v bool) {
	for _, off := range footprint {
		x := center.X + off.X
		y := center.Y + off.Y
		if x >= 0 && x < m.width && y >= 0 && y < m.height {
			m.pix[y*m.width+x] = v
		}
	}
}

// checkSameSize panics unless the mask matches the given dimensions.
// Shape mismatch is a programming error, not a recoverable condition.
func (m *Mask) checkSameSize(width, height int) {
	if m.width != width || m.height != height {
		panic(fmt.Sprintf("mask: dimension mismatch: mask is %dx%d, expected %dx%d",
			m.width, m.height, width, height))
	}
}
