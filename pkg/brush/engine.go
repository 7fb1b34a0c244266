// Package brush turns raw pointer input into pixel edits on a working
// copy of the active slice's mask. A stroke is an explicit state
// machine: Begin seeds the working mask, Extend stamps disks (bridging
// fast pointer motion with a line of disks), End repairs accidental
// loops in brush mode and commits the result to the store.
package brush

import (
	"image"
	"math"

	"roicontour/pkg/history"
	"roicontour/pkg/mask"
)

// Mode selects what a stroke writes: brush sets pixels, eraser clears
// them.
type Mode int

const (
	ModeBrush Mode = iota
	ModeEraser
)

// Stroke is one in-progress pointer drag. Its lifecycle is
// Begin -> Extend* -> End; after End the stroke must be discarded.
type Stroke struct {
	store *mask.Store
	roi   string
	slice int
	mode  Mode

	radius    int
	footprint []image.Point

	// work is the uncommitted mask being edited.
	work *mask.Mask

	// prior is the committed mask snapshot at stroke start, nil when
	// the (roi, slice) pair had no entry. It becomes the undo record.
	prior *mask.Mask

	// prev is the pre-stroke mask as an all-false-defaulted grid, used
	// by the contour closer to recognize pre-existing holes.
	prev *mask.Mask

	last image.Point
	done bool
}

// Begin starts a stroke at p on (roi, slice), seeding the working mask
// from the committed mask or from an all-false grid. The first disk is
// stamped immediately and mirrored into the store. A pointer that starts
// outside the slice bounds yields no stroke.
func Begin(store *mask.Store, roi string, slice int, mode Mode, radius int, p image.Point) *Stroke {
	if p.X < 0 || p.X >= store.Width() || p.Y < 0 || p.Y >= store.Height() {
		return nil
	}

	s := &Stroke{
		store:     store,
		roi:       roi,
		slice:     slice,
		mode:      mode,
		radius:    radius,
		footprint: mask.Disk(radius),
	}

	if committed, ok := store.Mask(roi, slice); ok {
		s.prior = committed.Clone()
		s.work = committed.Clone()
		s.prev = committed.Clone()
	} else {
		s.work = mask.New(store.Width(), store.Height())
		s.prev = mask.New(store.Width(), store.Height())
	}

	s.stamp(p)
	s.last = p
	s.mirror()
	return s
}

// Extend continues the stroke to p. Points between the previous and the
// current position are bridged with max(1, round(distance)) disk stamps
// so fast motion does not leave gaps. Out-of-bounds points are ignored.
// The working mask is mirrored into the store for live feedback.
func (s *Stroke) Extend(p image.Point) {
	if s.done {
		return
	}
	if p.X < 0 || p.X >= s.store.Width() || p.Y < 0 || p.Y >= s.store.Height() {
		return
	}

	s.line(s.last, p)
	s.last = p
	s.mirror()
}

// End finalizes the stroke. Brush strokes run the contour closer so a
// hand-drawn loop gets its interior filled (without refilling holes that
// predate the stroke). The working mask is committed (deleting the entry
// when empty) and the pre-stroke state is returned for the undo stack.
func (s *Stroke) End() history.Change {
	if s.done {
		return history.Change{ROI: s.roi, Slice: s.slice, Prior: s.prior}
	}
	s.done = true

	if s.mode == ModeBrush {
		s.work = CloseContours(s.work, s.prev, s.radius)
	}
	s.store.SetMask(s.roi, s.slice, s.work)

	return history.Change{ROI: s.roi, Slice: s.slice, Prior: s.prior}
}

// Mode returns the stroke's draw mode.
func (s *Stroke) Mode() Mode { return s.mode }

// stamp draws one disk of the stroke radius at p.
func (s *Stroke) stamp(p image.Point) {
	s.work.Stamp(p, s.footprint, s.mode == ModeBrush)
}

// line stamps disks along the segment from a to b, endpoints included.
func (s *Stroke) line(a, b image.Point) {
	dist := math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	n := int(math.Round(dist))
	if n < 1 {
		n = 1
	}
	if n == 1 {
		s.stamp(b)
		return
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		s.stamp(image.Point{
			X: int(math.Round(float64(a.X) + t*float64(b.X-a.X))),
			Y: int(math.Round(float64(a.Y) + t*float64(b.Y-a.Y))),
		})
	}
}

// mirror writes the working mask into the store so the viewer can render
// the stroke as it happens. SetMask handles the delete-when-empty case.
func (s *Stroke) mirror() {
	s.store.SetMask(s.roi, s.slice, s.work)
}
