// Package preview maintains the ephemeral interpolation overlay: the
// slices the interpolator would synthesize for the active ROI, kept
// outside the committed store until the user promotes or discards them.
package preview

import (
	"sort"

	"roicontour/pkg/history"
	"roicontour/pkg/interp"
	"roicontour/pkg/mask"
)

// CommitResult reports the outcome of promoting previews into the
// committed store. Nothing-to-do is not a failure: Applied is simply
// zero.
type CommitResult struct {
	// Applied is the number of slices written to the store.
	Applied int

	// Skipped is the number of preview slices left uncommitted because
	// the store already held a non-empty mask there.
	Skipped int
}

// Engine holds the preview masks for one ROI at a time. It is fully
// recomputed from the ROI's seed slices, never incrementally updated,
// and cleared on ROI switch or volume reload.
type Engine struct {
	store *mask.Store
	roi   string
	masks map[int]*mask.Mask
}

// NewEngine creates an empty preview bound to the committed store.
func NewEngine(store *mask.Store) *Engine {
	return &Engine{
		store: store,
		masks: make(map[int]*mask.Mask),
	}
}

// ROI returns the ROI the current previews belong to, or "" when empty.
func (e *Engine) ROI() string { return e.roi }

// Clear discards every preview entry.
func (e *Engine) Clear() {
	e.roi = ""
	e.masks = make(map[int]*mask.Mask)
}

// MaskAt returns the preview mask for a slice, or nil when none exists.
func (e *Engine) MaskAt(slice int) *mask.Mask {
	return e.masks[slice]
}

// Slices returns the sorted slice indices holding a preview.
func (e *Engine) Slices() []int {
	idxs := make([]int, 0, len(e.masks))
	for z := range e.masks {
		idxs = append(idxs, z)
	}
	sort.Ints(idxs)
	return idxs
}

// Len returns the number of preview slices.
func (e *Engine) Len() int { return len(e.masks) }

// Recompute rebuilds the previews for the ROI from scratch: every
// consecutive pair of seed slices with a gap wider than one slice is
// interpolated, and each non-empty result is stored unless the slice
// already holds committed data for the ROI. Fewer than two seeds leave
// the preview empty and report false.
func (e *Engine) Recompute(roi string) bool {
	e.roi = roi
	e.masks = make(map[int]*mask.Mask)

	seeds := e.store.SeedSlices(roi)
	if len(seeds) < 2 {
		return false
	}

	for i := 0; i < len(seeds)-1; i++ {
		s0, s1 := seeds[i], seeds[i+1]
		if s1-s0 <= 1 {
			continue
		}
		start, _ := e.store.Mask(roi, s0)
		end, _ := e.store.Mask(roi, s1)
		results, ok := interp.Interpolate(start, end, s0, s1)
		if !ok {
			continue
		}
		for _, res := range results {
			if res.Mask == nil {
				continue
			}
			// Committed data always wins over a preview.
			if _, committed := e.store.Mask(roi, res.Index); committed {
				continue
			}
			e.masks[res.Index] = res.Mask
		}
	}
	return true
}

// Promote commits every preview slice into the store as one grouped
// undo entry, skipping slices that gained a committed mask since the
// preview was computed (no silent overwrite). The preview is cleared
// afterwards regardless of how much was applied.
func (e *Engine) Promote(roi string, hist *history.Stack) CommitResult {
	var res CommitResult
	var changes []history.Change

	for _, z := range e.Slices() {
		m := e.masks[z]
		if _, committed := e.store.Mask(roi, z); committed {
			res.Skipped++
			continue
		}
		changes = append(changes, history.Change{ROI: roi, Slice: z, Prior: nil})
		e.store.SetMask(roi, z, m)
		res.Applied++
	}

	if res.Applied > 0 {
		hist.Push(history.Group(changes))
	}
	e.Clear()
	return res
}

// PromoteSlice commits a single preview slice as an ungrouped undo
// entry. Unlike Promote it overwrites an existing committed mask at that
// slice; the one-slice confirm is an explicit override. Only that
// slice's preview entry is removed.
func (e *Engine) PromoteSlice(roi string, slice int, hist *history.Stack) CommitResult {
	m, ok := e.masks[slice]
	if !ok {
		return CommitResult{}
	}

	var prior *mask.Mask
	if committed, exists := e.store.Mask(roi, slice); exists {
		prior = committed.Clone()
	}
	hist.Push(history.Single(history.Change{ROI: roi, Slice: slice, Prior: prior}))
	e.store.SetMask(roi, slice, m)
	delete(e.masks, slice)
	return CommitResult{Applied: 1}
}
