// Package history implements the bounded undo/redo engine. Every entry
// records the prior state of one or more (ROI, slice) pairs; undoing an
// entry restores those priors and pushes the mirror entry onto the redo
// stack. Grouped entries bundle a multi-slice operation (for example an
// interpolation commit) into a single undo step.
package history

import "roicontour/pkg/mask"

// DefaultDepth is the history bound used when no depth is configured.
const DefaultDepth = 40

// Target is the committed-mask state that undo and redo operate on.
// *mask.Store satisfies it.
type Target interface {
	// Mask returns the committed mask for (roi, slice) and whether an
	// entry exists.
	Mask(roi string, slice int) (*mask.Mask, bool)

	// SetMask commits a mask for (roi, slice). An all-false mask
	// deletes the entry.
	SetMask(roi string, slice int, m *mask.Mask)

	// DeleteMask removes the (roi, slice) entry if present.
	DeleteMask(roi string, slice int)
}

// Change records the prior state of one (ROI, slice) pair. A nil Prior
// means the pair had no committed mask.
type Change struct {
	ROI   string
	Slice int
	Prior *mask.Mask
}

// Entry is one undo/redo step: a single change or an atomic group of
// changes that revert together.
type Entry struct {
	Changes []Change
	Grouped bool
}

// Single wraps one change as an ungrouped entry.
func Single(c Change) Entry {
	return Entry{Changes: []Change{c}}
}

// Group wraps multiple changes as one atomic entry.
func Group(changes []Change) Entry {
	return Entry{Changes: changes, Grouped: true}
}

// Stack holds the undo and redo stacks, each bounded to the same depth.
// Pushing beyond the bound evicts the oldest entry.
type Stack struct {
	depth int
	undo  []Entry
	redo  []Entry
}

// NewStack creates a history with the given depth. Depths below 1 fall
// back to DefaultDepth.
func NewStack(depth int) *Stack {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth}
}

// Push appends an entry to the undo stack, evicting the oldest entry
// beyond the depth bound, and clears the redo stack.
func (s *Stack) Push(e Entry) {
	s.undo = append(s.undo, e)
	if len(s.undo) > s.depth {
		s.undo = s.undo[len(s.undo)-s.depth:]
	}
	s.redo = nil
}

// CanUndo reports whether an undo step is available.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// UndoDepth returns the number of entries on the undo stack.
func (s *Stack) UndoDepth() int { return len(s.undo) }

// RedoDepth returns the number of entries on the redo stack.
func (s *Stack) RedoDepth() int { return len(s.redo) }

// Undo pops the most recent entry and restores every recorded prior on
// the target, pushing the mirror entry (the pre-restore state) onto the
// redo stack. It reports false when the undo stack is empty.
func (s *Stack) Undo(t Target) bool {
	if len(s.undo) == 0 {
		return false
	}
	e := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, restore(t, e))
	if len(s.redo) > s.depth {
		s.redo = s.redo[len(s.redo)-s.depth:]
	}
	return true
}

// Redo pops the most recent redo entry and reapplies it, pushing the
// mirror entry back onto the undo stack. It reports false when the redo
// stack is empty.
func (s *Stack) Redo(t Target) bool {
	if len(s.redo) == 0 {
		return false
	}
	e := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, restore(t, e))
	if len(s.undo) > s.depth {
		s.undo = s.undo[len(s.undo)-s.depth:]
	}
	return true
}

// restore applies every change of the entry to the target and returns
// the mirror entry capturing the state each pair held beforehand.
func restore(t Target, e Entry) Entry {
	mirror := Entry{
		Changes: make([]Change, 0, len(e.Changes)),
		Grouped: e.Grouped,
	}
	for _, c := range e.Changes {
		var current *mask.Mask
		if m, ok := t.Mask(c.ROI, c.Slice); ok {
			current = m.Clone()
		}
		mirror.Changes = append(mirror.Changes, Change{
			ROI:   c.ROI,
			Slice: c.Slice,
			Prior: current,
		})

		if c.Prior == nil {
			t.DeleteMask(c.ROI, c.Slice)
		} else {
			t.SetMask(c.ROI, c.Slice, c.Prior.Clone())
		}
	}
	return mirror
}
