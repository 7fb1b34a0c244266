// Package interp reconstructs the masks of unannotated slices lying
// between two annotated seed slices of the same ROI. Each seed mask is
// converted to a signed Euclidean distance field; intermediate slices
// blend the two fields linearly and threshold the blend at zero, which
// morphs one contour into the other.
package interp

import (
	"gonum.org/v1/gonum/mat"

	"roicontour/pkg/mask"
)

// SliceResult is the interpolation outcome for one intermediate slice.
// A nil Mask is the explicit "became empty" signal: the blend produced
// no pixels there, and any stale committed mask at that index should be
// deleted. This is distinct from a pair being skipped outright, which
// produces no SliceResult at all.
type SliceResult struct {
	Index int
	Mask  *mask.Mask
}

// Interpolate morphs between the seed masks at slice indices s0 < s1,
// producing one result per intermediate slice. Both seeds must be
// non-empty and the gap must exceed one slice; otherwise the pair is
// skipped and ok is false. The seeds themselves are never touched.
func Interpolate(start, end *mask.Mask, s0, s1 int) (results []SliceResult, ok bool) {
	if s1-s0 <= 1 {
		return nil, false
	}
	if !start.Any() || !end.Any() {
		return nil, false
	}

	w, h := start.Width(), start.Height()
	startField := SignedDistanceField(start)
	endField := SignedDistanceField(end)

	blend := mat.NewDense(h, w, nil)
	scaled := mat.NewDense(h, w, nil)

	results = make([]SliceResult, 0, s1-s0-1)
	for z := s0 + 1; z < s1; z++ {
		alpha := float64(z-s0) / float64(s1-s0)
		blend.Scale(1-alpha, startField)
		scaled.Scale(alpha, endField)
		blend.Add(blend, scaled)

		m := threshold(blend)
		if m.Any() {
			// Light shape cleanup: one erosion then one dilation with
			// the smallest structuring element.
			cross := mask.Disk(1)
			m = mask.Dilate(mask.Erode(m, cross), cross)
		}
		if m.Any() {
			results = append(results, SliceResult{Index: z, Mask: m})
		} else {
			results = append(results, SliceResult{Index: z})
		}
	}
	return results, true
}

// threshold converts a blended distance field into a mask: pixels at or
// inside the zero level set become foreground.
func threshold(field *mat.Dense) *mask.Mask {
	h, w := field.Dims()
	m := mask.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if field.At(y, x) <= 0 {
				m.Set(x, y, true)
			}
		}
	}
	return m
}
