// Package annotate ties the mask store, brush engine, undo history and
// interpolation preview together into one editing session. It is the
// library-facing surface the viewer drives: it feeds pointer events and
// tool state in, and reads committed and preview masks back out for
// rendering.
package annotate

import (
	"fmt"
	"image"
	"sync"
	"time"

	"roicontour/pkg/brush"
	"roicontour/pkg/config"
	"roicontour/pkg/history"
	"roicontour/pkg/interp"
	"roicontour/pkg/mask"
	"roicontour/pkg/preview"

	"roicontour/internal/models"
)

// Tool is the persistent tool mode selected in the viewer.
type Tool int

const (
	ToolBrush Tool = iota
	ToolEraser
)

// InterpolateResult reports the outcome of a direct interpolation
// commit. Having too few seed slices is not a failure; it is flagged so
// the caller can tell the user there was nothing to interpolate.
type InterpolateResult struct {
	// Written is the number of intermediate slices that received a mask.
	Written int

	// Cleared is the number of stale intermediate entries deleted
	// because the blend came out empty there.
	Cleared int

	// InsufficientSeeds is set when the ROI had fewer than two
	// non-empty slices.
	InsufficientSeeds bool
}

// Session is one annotation session over a loaded volume. An internal
// mutex serializes every method against the debounced preview recompute,
// which fires on a timer goroutine; callers may treat the session as the
// single mutation entry point without further locking.
type Session struct {
	mu sync.Mutex

	cfg   *config.Config
	store *mask.Store
	hist  *history.Stack
	prev  *preview.Engine

	activeROI   string
	activeSlice int
	tool        Tool
	brushRad    int
	eraserRad   int
	autoPreview bool

	stroke    *brush.Stroke
	debouncer *preview.Debouncer
}

// NewSession creates a session for a volume with the given dimensions,
// with one initial ROI ready for drawing.
func NewSession(cfg *config.Config, width, height, depth int) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Session{
		cfg:         cfg,
		store:       mask.NewStore(width, height, depth),
		hist:        history.NewStack(cfg.History.Depth),
		brushRad:    clampRadius(cfg.Tools.BrushRadius),
		eraserRad:   clampRadius(cfg.Tools.EraserRadius),
		autoPreview: cfg.Preview.AutoRecompute,
	}
	s.prev = preview.NewEngine(s.store)
	s.debouncer = preview.NewDebouncer(
		time.Duration(cfg.Preview.DebounceMs)*time.Millisecond,
		func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.prev.Recompute(s.activeROI)
		},
	)
	s.mu.Lock()
	s.newROILocked()
	s.mu.Unlock()
	return s
}

// Store exposes the committed mask store. Mutate it only through the
// session; direct reads are safe between session operations.
func (s *Session) Store() *mask.Store { return s.store }

// History exposes the undo/redo stack for read-only consumers.
func (s *Session) History() *history.Stack { return s.hist }

// ActiveROI returns the ROI strokes currently edit.
func (s *Session) ActiveROI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeROI
}

// ActiveSlice returns the slice index strokes currently edit.
func (s *Session) ActiveSlice() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSlice
}

// SetActiveSlice moves editing to another slice.
func (s *Session) SetActiveSlice(slice int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slice < 0 || slice >= s.store.Depth() {
		return fmt.Errorf("annotate: slice %d out of range [0,%d)", slice, s.store.Depth())
	}
	s.activeSlice = slice
	return nil
}

// SetActiveROI switches editing to an existing ROI and recomputes the
// preview immediately, since the overlay must swap at once.
func (s *Session) SetActiveROI(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.HasROI(name) {
		return fmt.Errorf("%w: %q", mask.ErrROINotFound, name)
	}
	s.activeROI = name
	s.schedulePreviewLocked(true)
	return nil
}

// NewROI creates a fresh auto-named ROI with the next palette color,
// makes it active and returns its name.
func (s *Session) NewROI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newROILocked()
}

func (s *Session) newROILocked() string {
	name := s.store.NextROIName()
	palette := s.cfg.Display.Palette
	color := ""
	if len(palette) > 0 {
		color = palette[len(s.store.ROIs())%len(palette)]
	}
	// NextROIName guarantees the name is free.
	_ = s.store.CreateROI(name, color)
	s.activeROI = name
	s.schedulePreviewLocked(true)
	return name
}

// RenameROI renames an ROI, transplanting its masks, color and
// visibility. Renaming onto an existing name is rejected.
func (s *Session) RenameROI(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.RenameROI(oldName, newName); err != nil {
		return err
	}
	if s.activeROI == oldName {
		s.activeROI = newName
	}
	return nil
}

// DeleteROI removes an ROI and its masks. Deleting the active ROI
// switches to the first remaining ROI, or creates a fresh one when none
// are left.
func (s *Session) DeleteROI(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteROI(name); err != nil {
		return err
	}
	if s.activeROI == name {
		if rois := s.store.ROIs(); len(rois) > 0 {
			s.activeROI = rois[0]
		} else {
			s.newROILocked()
			return nil
		}
	}
	s.prev.Clear()
	s.schedulePreviewLocked(true)
	return nil
}

// Tool returns the persistent tool mode.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SetTool selects the persistent tool mode.
func (s *Session) SetTool(t Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = t
}

// BrushRadius returns the brush radius in pixels.
func (s *Session) BrushRadius() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brushRad
}

// SetBrushRadius sets the brush radius, clamped to 1..30.
func (s *Session) SetBrushRadius(r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brushRad = clampRadius(r)
}

// EraserRadius returns the eraser radius in pixels.
func (s *Session) EraserRadius() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eraserRad
}

// SetEraserRadius sets the eraser radius, clamped to 1..30.
func (s *Session) SetEraserRadius(r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eraserRad = clampRadius(r)
}

func clampRadius(r int) int {
	if r < 1 {
		return 1
	}
	if r > 30 {
		return 30
	}
	return r
}

// BeginStroke starts a stroke at p on the active (ROI, slice).
// shiftErase temporarily flips a brush stroke into an eraser stroke
// while keeping the brush radius, matching the shift-drag gesture. The
// mode and radius are fixed for the whole stroke at this point. It
// reports false when p is out of bounds or a stroke is already active.
func (s *Session) BeginStroke(p image.Point, shiftErase bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stroke != nil {
		return false
	}
	mode := brush.ModeBrush
	radius := s.brushRad
	if s.tool == ToolEraser {
		mode = brush.ModeEraser
		radius = s.eraserRad
	} else if shiftErase {
		mode = brush.ModeEraser
	}
	s.stroke = brush.Begin(s.store, s.activeROI, s.activeSlice, mode, radius, p)
	return s.stroke != nil
}

// ExtendStroke continues the active stroke; without one it is a no-op.
func (s *Session) ExtendStroke(p image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stroke != nil {
		s.stroke.Extend(p)
	}
}

// Drawing reports whether a stroke is in progress.
func (s *Session) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stroke != nil
}

// CancelStroke abandons an unfinished stroke without recording history.
// The store keeps whatever the live mirror last wrote; the next commit
// or undo supersedes it. Used when the pointer leaves valid territory.
func (s *Session) CancelStroke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stroke = nil
}

// EndStroke finalizes the active stroke: closes brush contours, commits
// the working mask, records the pre-stroke state for undo and schedules
// a preview recompute. It reports false when no stroke was active.
func (s *Session) EndStroke() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stroke == nil {
		return false
	}
	change := s.stroke.End()
	s.stroke = nil
	s.hist.Push(history.Single(change))
	s.schedulePreviewLocked(false)
	return true
}

// Undo reverts the most recent edit (one grouped commit counts as one
// step) and recomputes the preview. It reports false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Undo(s.store) {
		return false
	}
	s.schedulePreviewLocked(true)
	return true
}

// Redo reapplies the most recently undone edit and recomputes the
// preview. It reports false when there is nothing to redo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Redo(s.store) {
		return false
	}
	s.schedulePreviewLocked(true)
	return true
}

// ClearSlice deletes the committed mask of the active (ROI, slice) as an
// undoable edit. It reports false when the slice held nothing.
func (s *Session) ClearSlice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior, ok := s.store.ClearSlice(s.activeROI, s.activeSlice)
	if !ok {
		return false
	}
	s.stroke = nil
	s.hist.Push(history.Single(history.Change{
		ROI:   s.activeROI,
		Slice: s.activeSlice,
		Prior: prior,
	}))
	s.schedulePreviewLocked(true)
	return true
}

// InterpolateGaps commits interpolated masks for every gap between
// consecutive seed slices of the active ROI, directly into the store as
// one grouped, atomic undo step. Intermediate entries whose blend came
// out empty are deleted. With fewer than two seeds nothing happens and
// the result says so.
func (s *Session) InterpolateGaps() InterpolateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res InterpolateResult
	if len(s.store.SeedSlices(s.activeROI)) < 2 {
		res.InsufficientSeeds = true
		return res
	}

	changes := s.interpolateROILocked(s.activeROI, &res)
	if len(changes) > 0 {
		s.hist.Push(history.Group(changes))
	}
	s.schedulePreviewLocked(true)
	return res
}

// InterpolateAllROIs runs the gap interpolation over every ROI in one
// pass, typically right before export so no annotated structure ships
// with holes. All writes across all ROIs form a single grouped undo
// step. InsufficientSeeds is set only when no ROI had two seeds.
func (s *Session) InterpolateAllROIs() InterpolateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res InterpolateResult
	var changes []history.Change
	interpolable := 0
	for _, roi := range s.store.ROIs() {
		if len(s.store.SeedSlices(roi)) < 2 {
			continue
		}
		interpolable++
		changes = append(changes, s.interpolateROILocked(roi, &res)...)
	}
	res.InsufficientSeeds = interpolable == 0

	if len(changes) > 0 {
		s.hist.Push(history.Group(changes))
	}
	s.schedulePreviewLocked(true)
	return res
}

// interpolateROILocked fills every seed gap of one ROI directly in the
// store, accumulating written/cleared counts into res and returning the
// undo changes.
func (s *Session) interpolateROILocked(roi string, res *InterpolateResult) []history.Change {
	var changes []history.Change

	seeds := s.store.SeedSlices(roi)
	for i := 0; i < len(seeds)-1; i++ {
		s0, s1 := seeds[i], seeds[i+1]
		if s1-s0 <= 1 {
			continue
		}
		start, _ := s.store.Mask(roi, s0)
		end, _ := s.store.Mask(roi, s1)
		results, ok := interp.Interpolate(start, end, s0, s1)
		if !ok {
			continue
		}
		for _, r := range results {
			prior, exists := s.store.Mask(roi, r.Index)
			if r.Mask != nil {
				var priorCopy *mask.Mask
				if exists {
					priorCopy = prior.Clone()
				}
				changes = append(changes, history.Change{
					ROI: roi, Slice: r.Index, Prior: priorCopy,
				})
				s.store.SetMask(roi, r.Index, r.Mask)
				res.Written++
			} else if exists {
				// The blend is empty here; drop the stale entry.
				changes = append(changes, history.Change{
					ROI: roi, Slice: r.Index, Prior: prior.Clone(),
				})
				s.store.DeleteMask(roi, r.Index)
				res.Cleared++
			}
		}
	}
	return changes
}

// ConfirmPreview promotes every preview slice of the active ROI into the
// store as one grouped undo step, never overwriting committed slices,
// and recomputes the preview.
func (s *Session) ConfirmPreview() preview.CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.prev.Promote(s.activeROI, s.hist)
	s.schedulePreviewLocked(true)
	return res
}

// ConfirmPreviewSlice promotes only the active slice's preview as a
// single undo step, overwriting any committed mask there.
func (s *Session) ConfirmPreviewSlice() preview.CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev.PromoteSlice(s.activeROI, s.activeSlice, s.hist)
}

// AutoPreview reports whether previews recompute after edits.
func (s *Session) AutoPreview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPreview
}

// SetAutoPreview toggles automatic preview recomputation. Turning it off
// discards the current preview; turning it on recomputes at once.
func (s *Session) SetAutoPreview(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPreview = on
	if on {
		s.schedulePreviewLocked(true)
	} else {
		s.debouncer.Stop()
		s.prev.Clear()
	}
}

// SchedulePreview requests a preview recompute for the active ROI,
// coalesced within the configured delay, or synchronously when immediate
// is set (ROI switches and other actions that must show results at
// once).
func (s *Session) SchedulePreview(immediate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedulePreviewLocked(immediate)
}

// schedulePreviewLocked runs the immediate recompute inline under the
// held lock; the deferred path goes through the debouncer, whose
// callback takes the lock itself.
func (s *Session) schedulePreviewLocked(immediate bool) {
	if !s.autoPreview {
		s.prev.Clear()
		return
	}
	if immediate {
		s.debouncer.Stop()
		s.prev.Recompute(s.activeROI)
	} else {
		s.debouncer.Request()
	}
}

// RecomputePreview rebuilds the preview for the active ROI right now.
func (s *Session) RecomputePreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev.Recompute(s.activeROI)
}

// CommittedMask returns the committed mask for the active ROI at a
// slice, or nil when none exists.
func (s *Session) CommittedMask(slice int) *mask.Mask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.store.Mask(s.activeROI, slice); ok {
		return m
	}
	return nil
}

// PreviewMask returns the preview mask for a slice of the active ROI,
// or nil when none exists.
func (s *Session) PreviewMask(slice int) *mask.Mask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev.MaskAt(slice)
}

// PreviewSlices returns the sorted slice indices currently holding a
// preview mask.
func (s *Session) PreviewSlices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev.Slices()
}

// PreviewCount returns the number of preview slices.
func (s *Session) PreviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev.Len()
}

// ExportLabelVolume assembles the label volume and label records for the
// exporter, stamping ROIs in the given order (defaulting to sorted ROI
// names).
func (s *Session) ExportLabelVolume(order []string) (*models.LabelVolume, []models.LabelRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order == nil {
		order = s.store.ROIs()
	}
	return s.store.ExportLabelVolume(order)
}

// ImportLabelVolume replaces all committed masks from a label volume and
// its records, resetting history and preview. The first imported ROI
// (or a fresh one) becomes active.
func (s *Session) ImportLabelVolume(vol *models.LabelVolume, records []models.LabelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ImportLabelVolume(vol, records); err != nil {
		return err
	}
	s.stroke = nil
	s.hist = history.NewStack(s.cfg.History.Depth)
	s.prev.Clear()
	if rois := s.store.ROIs(); len(rois) > 0 {
		s.activeROI = rois[0]
		s.schedulePreviewLocked(true)
	} else {
		s.newROILocked()
	}
	return nil
}

// Close releases the debounce timer. The session must not be used
// afterwards.
func (s *Session) Close() {
	s.debouncer.Stop()
}
