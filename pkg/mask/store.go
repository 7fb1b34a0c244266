package mask

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for invalid ROI references. Operations that hit one of
// these leave the store unchanged.
var (
	// ErrROIExists is returned when creating or renaming to a name
	// that is already taken.
	ErrROIExists = errors.New("mask: ROI already exists")

	// ErrROINotFound is returned when operating on a nonexistent ROI.
	ErrROINotFound = errors.New("mask: ROI not found")
)

// roiMeta holds the display attributes of one ROI. An ROI can exist with
// no committed masks at all (freshly created, or fully erased).
type roiMeta struct {
	color   string
	visible bool
}

// Store owns every committed mask, keyed by ROI name and slice index.
// Absence of a (ROI, slice) entry is semantically an all-false mask, and
// the store never keeps an entry whose mask is all-false.
//
// The store is not safe for concurrent mutation; the engine has exactly
// one mutator (the input thread) and readers take snapshots between
// mutations.
type Store struct {
	width  int
	height int
	depth  int

	masks map[string]map[int]*Mask
	rois  map[string]*roiMeta
}

// NewStore creates an empty store for a volume with the given in-plane
// dimensions and slice count.
func NewStore(width, height, depth int) *Store {
	if width <= 0 || height <= 0 || depth <= 0 {
		panic(fmt.Sprintf("mask: invalid volume dimensions %dx%dx%d", width, height, depth))
	}
	return &Store{
		width:  width,
		height: height,
		depth:  depth,
		masks:  make(map[string]map[int]*Mask),
		rois:   make(map[string]*roiMeta),
	}
}

// Width returns the in-plane width in pixels.
func (s *Store) Width() int { return s.width }

// Height returns the in-plane height in pixels.
func (s *Store) Height() int { return s.height }

// Depth returns the number of slices.
func (s *Store) Depth() int { return s.depth }

// checkSlice panics when the slice index is outside [0, depth).
func (s *Store) checkSlice(slice int) {
	if slice < 0 || slice >= s.depth {
		panic(fmt.Sprintf("mask: slice index %d out of range [0,%d)", slice, s.depth))
	}
}

// CreateROI registers a new ROI with the given display color. It fails
// with ErrROIExists when the name is taken.
func (s *Store) CreateROI(name, color string) error {
	if _, ok := s.rois[name]; ok {
		return fmt.Errorf("%w: %q", ErrROIExists, name)
	}
	s.rois[name] = &roiMeta{color: color, visible: true}
	return nil
}

// NextROIName returns the first unused name of the form ROI_n, starting
// at ROI_<count+1>.
func (s *Store) NextROIName() string {
	n := len(s.rois) + 1
	for {
		name := fmt.Sprintf("ROI_%d", n)
		if _, ok := s.rois[name]; !ok {
			return name
		}
		n++
	}
}

// RenameROI transplants all masks, the color and the visibility flag of
// oldName to newName. It fails with ErrROIExists when newName is taken
// and ErrROINotFound when oldName does not exist; in both cases nothing
// changes.
func (s *Store) RenameROI(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	meta, ok := s.rois[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrROINotFound, oldName)
	}
	if _, ok := s.rois[newName]; ok {
		return fmt.Errorf("%w: %q", ErrROIExists, newName)
	}
	s.rois[newName] = meta
	delete(s.rois, oldName)
	if slices, ok := s.masks[oldName]; ok {
		s.masks[newName] = slices
		delete(s.masks, oldName)
	}
	return nil
}

// DeleteROI removes the ROI and every mask it owns.
func (s *Store) DeleteROI(name string) error {
	if _, ok := s.rois[name]; !ok {
		return fmt.Errorf("%w: %q", ErrROINotFound, name)
	}
	delete(s.rois, name)
	delete(s.masks, name)
	return nil
}

// HasROI reports whether the ROI is registered.
func (s *Store) HasROI(name string) bool {
	_, ok := s.rois[name]
	return ok
}

// ROIs returns the registered ROI names in sorted order.
func (s *Store) ROIs() []string {
	names := make([]string, 0, len(s.rois))
	for name := range s.rois {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Color returns the display color of the ROI, or "" when unknown.
func (s *Store) Color(name string) string {
	if meta, ok := s.rois[name]; ok {
		return meta.color
	}
	return ""
}

// SetColor updates the display color of the ROI.
func (s *Store) SetColor(name, color string) error {
	meta, ok := s.rois[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrROINotFound, name)
	}
	meta.color = color
	return nil
}

// Visible reports the visibility flag of the ROI. Unknown ROIs are
// reported as hidden.
func (s *Store) Visible(name string) bool {
	if meta, ok := s.rois[name]; ok {
		return meta.visible
	}
	return false
}

// SetVisible updates the visibility flag of the ROI.
func (s *Store) SetVisible(name string, visible bool) error {
	meta, ok := s.rois[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrROINotFound, name)
	}
	meta.visible = visible
	return nil
}

// Mask returns the committed mask for (roi, slice) and whether an entry
// exists. The returned mask is the stored one; callers that mutate it
// must clone first.
func (s *Store) Mask(roi string, slice int) (*Mask, bool) {
	s.checkSlice(slice)
	m, ok := s.masks[roi][slice]
	return m, ok
}

// SetMask commits a mask for (roi, slice), registering the ROI on first
// use. An all-false mask deletes the entry instead; a stored entry is
// always non-empty. The mask is cloned, so the caller keeps ownership of
// its copy. Dimension mismatch panics.
func (s *Store) SetMask(roi string, slice int, m *Mask) {
	s.checkSlice(slice)
	m.checkSameSize(s.width, s.height)
	if !m.Any() {
		s.DeleteMask(roi, slice)
		return
	}
	if _, ok := s.rois[roi]; !ok {
		s.rois[roi] = &roiMeta{visible: true}
	}
	slices, ok := s.masks[roi]
	if !ok {
		slices = make(map[int]*Mask)
		s.masks[roi] = slices
	}
	slices[slice] = m.Clone()
}

// DeleteMask removes the (roi, slice) entry if present.
func (s *Store) DeleteMask(roi string, slice int) {
	s.checkSlice(slice)
	slices, ok := s.masks[roi]
	if !ok {
		return
	}
	delete(slices, slice)
	if len(slices) == 0 {
		delete(s.masks, roi)
	}
}

// ClearSlice removes the committed mask at (roi, slice) and returns the
// prior mask for undo recording. ok is false when there was nothing to
// clear.
func (s *Store) ClearSlice(roi string, slice int) (prior *Mask, ok bool) {
	s.checkSlice(slice)
	m, ok := s.masks[roi][slice]
	if !ok {
		return nil, false
	}
	prior = m.Clone()
	s.DeleteMask(roi, slice)
	return prior, true
}

// SeedSlices returns the sorted slice indices holding a non-empty mask
// for the ROI. These are the interpolation endpoints.
func (s *Store) SeedSlices(roi string) []int {
	slices := s.masks[roi]
	idxs := make([]int, 0, len(slices))
	for z := range slices {
		idxs = append(idxs, z)
	}
	sort.Ints(idxs)
	return idxs
}

// HasAnyMask reports whether the ROI owns at least one non-empty mask.
func (s *Store) HasAnyMask(roi string) bool {
	return len(s.masks[roi]) > 0
}
