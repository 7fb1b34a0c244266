package mask

import (
	"image"
	"sync"
)

// maxDiskRadius bounds the footprint cache. Brush and eraser radii are
// clamped to this range by callers.
const maxDiskRadius = 30

var (
	diskOnce  sync.Once
	diskCache [maxDiskRadius + 1][]image.Point
)

// Disk returns the set of relative pixel offsets (dx, dy) with
// dx²+dy² <= r². Footprints for radii 1..30 are precomputed once and
// shared; the radius is clamped into that range. Radius 1 is the
// 4-connected cross used as the smallest structuring element.
func Disk(radius int) []image.Point {
	diskOnce.Do(func() {
		for r := 1; r <= maxDiskRadius; r++ {
			var pts []image.Point
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if dx*dx+dy*dy <= r*r {
						pts = append(pts, image.Point{X: dx, Y: dy})
					}
				}
			}
			diskCache[r] = pts
		}
	})
	if radius < 1 {
		radius = 1
	}
	if radius > maxDiskRadius {
		radius = maxDiskRadius
	}
	return diskCache[radius]
}

// Dilate returns the morphological dilation of m by the footprint: a
// pixel is set in the result when any footprint offset from a set input
// pixel reaches it.
func Dilate(m *Mask, footprint []image.Point) *Mask {
	out := New(m.width, m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.pix[y*m.width+x] {
				out.Stamp(image.Point{X: x, Y: y}, footprint, true)
			}
		}
	}
	return out
}

// Erode returns the morphological erosion of m by the footprint: a pixel
// survives only when every footprint offset lands on a set pixel. Pixels
// outside the grid count as background, so shapes shrink away from the
// border.
func Erode(m *Mask, footprint []image.Point) *Mask {
	out := New(m.width, m.height)
	for y := 0; y < m.height; y++ {
	pixels:
		for x := 0; x < m.width; x++ {
			if !m.pix[y*m.width+x] {
				continue
			}
			for _, off := range footprint {
				xx := x + off.X
				yy := y + off.Y
				if xx < 0 || xx >= m.width || yy < 0 || yy >= m.height {
					continue pixels
				}
				if !m.pix[yy*m.width+xx] {
					continue pixels
				}
			}
			out.pix[y*m.width+x] = true
		}
	}
	return out
}

// FillHoles returns m with all holes filled: background regions with no
// 4-connected path to the slice border become foreground.
func FillHoles(m *Mask) *Mask {
	out := m.Clone()
	holes := Holes(m)
	for i, v := range holes.pix {
		if v {
			out.pix[i] = true
		}
	}
	return out
}

// Holes returns the set of background pixels that are enclosed by m:
// every background pixel with no 4-connected path to the slice border.
func Holes(m *Mask) *Mask {
	w, h := m.width, m.height
	reach := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	push := func(idx int) {
		if !m.pix[idx] && !reach[idx] {
			reach[idx] = true
			queue = append(queue, idx)
		}
	}

	// Seed the flood fill from every border pixel.
	for x := 0; x < w; x++ {
		push(x)
		push((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		push(y * w)
		push(y*w + w - 1)
	}

	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x := idx % w
		y := idx / w
		if x > 0 {
			push(idx - 1)
		}
		if x < w-1 {
			push(idx + 1)
		}
		if y > 0 {
			push(idx - w)
		}
		if y < h-1 {
			push(idx + w)
		}
	}

	holes := New(w, h)
	for i := range holes.pix {
		holes.pix[i] = !m.pix[i] && !reach[i]
	}
	return holes
}

// Union sets every pixel of m that is set in o.
func Union(m, o *Mask) {
	o.checkSameSize(m.width, m.height)
	for i, v := range o.pix {
		if v {
			m.pix[i] = true
		}
	}
}

// Subtract clears every pixel of m that is set in o.
func Subtract(m, o *Mask) {
	o.checkSameSize(m.width, m.height)
	for i, v := range o.pix {
		if v {
			m.pix[i] = false
		}
	}
}
