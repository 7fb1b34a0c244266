package interp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"roicontour/pkg/mask"
)

// inf marks grid cells with no feature pixel yet during the distance
// transform passes.
const inf = math.MaxFloat64

// SignedDistanceField computes the signed Euclidean distance field of a
// mask: for foreground pixels the negated distance to the nearest
// background pixel, for background pixels the distance to the nearest
// foreground pixel. The zero level set therefore tracks the mask
// boundary, negative inside and positive outside.
func SignedDistanceField(m *mask.Mask) *mat.Dense {
	w, h := m.Width(), m.Height()

	// Distance of every pixel to the nearest background pixel.
	internal := distanceTo(m, false)
	// Distance of every pixel to the nearest foreground pixel.
	external := distanceTo(m, true)

	field := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) {
				field.Set(y, x, -internal.At(y, x))
			} else {
				field.Set(y, x, external.At(y, x))
			}
		}
	}
	return field
}

// distanceTo computes the exact Euclidean distance from every pixel to
// the nearest pixel whose mask value equals feature, using the
// Felzenszwalb-Huttenlocher two-pass squared distance transform. When
// the mask contains no feature pixel at all, every distance is +Inf.
func distanceTo(m *mask.Mask, feature bool) *mat.Dense {
	w, h := m.Width(), m.Height()

	// Squared distances, transformed first along rows then columns.
	sq := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) == feature {
				sq[y*w+x] = 0
			} else {
				sq[y*w+x] = inf
			}
		}
	}

	f := make([]float64, maxInt(w, h))
	d := make([]float64, maxInt(w, h))
	v := make([]int, maxInt(w, h))
	z := make([]float64, maxInt(w, h)+1)

	for y := 0; y < h; y++ {
		row := sq[y*w : (y+1)*w]
		copy(f[:w], row)
		dt1d(f[:w], d[:w], v, z)
		copy(row, d[:w])
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = sq[y*w+x]
		}
		dt1d(f[:h], d[:h], v, z)
		for y := 0; y < h; y++ {
			sq[y*w+x] = d[y]
		}
	}

	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := sq[y*w+x]
			if s >= inf {
				out.Set(y, x, math.Inf(1))
			} else {
				out.Set(y, x, math.Sqrt(s))
			}
		}
	}
	return out
}

// dt1d performs the 1D squared distance transform of sampled function f
// into d. v and z are scratch space of at least len(f) and len(f)+1.
func dt1d(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		s := intersect(f, v[k], q)
		for s <= z[k] {
			k--
			if k < 0 {
				break
			}
			s = intersect(f, v[k], q)
		}
		if k < 0 {
			k = 0
			v[0] = q
			z[0] = math.Inf(-1)
		} else {
			k++
			v[k] = q
			z[k] = s
		}
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		p := v[k]
		if f[p] >= inf {
			d[q] = inf
		} else {
			dq := float64(q - p)
			d[q] = dq*dq + f[p]
		}
	}
}

// intersect returns the abscissa where the distance parabola rooted at q
// overtakes the one rooted at p. Parabolas of infinite height never win:
// an infinite f[q] parks q's region at +Inf, an infinite f[p] lets q
// supersede p entirely.
func intersect(f []float64, p, q int) float64 {
	switch {
	case f[q] >= inf && f[p] >= inf:
		return float64(p+q) / 2
	case f[q] >= inf:
		return math.Inf(1)
	case f[p] >= inf:
		return math.Inf(-1)
	}
	return ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*q-2*p)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
