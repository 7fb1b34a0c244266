package annotate

import (
	"image"
	"testing"
	"time"

	"roicontour/pkg/config"
)

func pt(x, y int) image.Point { return image.Point{X: x, Y: y} }

// newTestSession returns a session over a small volume with debouncing
// effectively disabled so tests drive recomputes synchronously.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Preview.DebounceMs = 1
	s := NewSession(cfg, 48, 48, 30)
	t.Cleanup(s.Close)
	return s
}

// paintDisk commits one full brush stroke around a center point.
func paintDisk(t *testing.T, s *Session, slice, cx, cy, radius int) {
	t.Helper()
	if err := s.SetActiveSlice(slice); err != nil {
		t.Fatalf("SetActiveSlice failed: %v", err)
	}
	s.SetBrushRadius(radius)
	if !s.BeginStroke(pt(cx, cy), false) {
		t.Fatalf("BeginStroke failed at slice %d", slice)
	}
	if !s.EndStroke() {
		t.Fatal("EndStroke failed")
	}
}

// TestSessionStartsWithROI verifies the initial auto-created ROI
func TestSessionStartsWithROI(t *testing.T) {
	s := newTestSession(t)
	if s.ActiveROI() != "ROI_1" {
		t.Errorf("Expected initial ROI_1, got %s", s.ActiveROI())
	}
	if s.Store().Color("ROI_1") == "" {
		t.Error("Initial ROI should get a palette color")
	}
}

// TestStrokeCommitAndUndo verifies the stroke -> commit -> undo -> redo
// round trip through the facade
func TestStrokeCommitAndUndo(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 10, 24, 24, 5)

	m := s.CommittedMask(10)
	if m == nil || !m.At(24, 24) {
		t.Fatal("Stroke should be committed")
	}

	if !s.Undo() {
		t.Fatal("Undo should succeed")
	}
	if s.CommittedMask(10) != nil {
		t.Error("Undo should remove the first stroke entirely")
	}

	if !s.Redo() {
		t.Fatal("Redo should succeed")
	}
	if m := s.CommittedMask(10); m == nil || !m.At(24, 24) {
		t.Error("Redo should restore the stroke")
	}

	if s.Redo() {
		t.Error("Second redo has nothing to do")
	}
}

// TestShiftEraseUsesBrushRadius verifies the temporary-eraser gesture
func TestShiftEraseUsesBrushRadius(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 5, 24, 24, 5)

	// Shift-erase with the brush tool selected: draws false with the
	// brush radius, so the whole blob disappears and the entry with it.
	s.SetBrushRadius(6)
	if !s.BeginStroke(pt(24, 24), true) {
		t.Fatal("BeginStroke failed")
	}
	s.EndStroke()

	if s.CommittedMask(5) != nil {
		t.Error("Shift-erasing the whole blob should delete the entry")
	}
}

// TestInterpolateGapsCommit verifies the full interpolation commit
// between two painted seeds
func TestInterpolateGapsCommit(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 10, 24, 24, 5)
	paintDisk(t, s, 20, 24, 24, 5)

	seed10 := s.CommittedMask(10).Clone()
	seed20 := s.CommittedMask(20).Clone()

	res := s.InterpolateGaps()
	if res.InsufficientSeeds {
		t.Fatal("Two seeds should be sufficient")
	}
	if res.Written != 9 {
		t.Errorf("Expected 9 interpolated slices, got %d", res.Written)
	}

	lo, hi := seed10.Area(), seed20.Area()
	if hi < lo {
		lo, hi = hi, lo
	}
	for z := 11; z <= 19; z++ {
		m := s.CommittedMask(z)
		if m == nil {
			t.Fatalf("Slice %d should hold an interpolated mask", z)
		}
		if a := m.Area(); a < lo || a > hi {
			t.Errorf("Slice %d area %d outside seed bounds [%d,%d]", z, a, lo, hi)
		}
	}

	// Endpoint invariance: the seeds themselves are untouched.
	if !s.CommittedMask(10).Equal(seed10) || !s.CommittedMask(20).Equal(seed20) {
		t.Error("Interpolation must not modify the seed slices")
	}

	// The whole commit is one undo step.
	if !s.Undo() {
		t.Fatal("Undo should succeed")
	}
	for z := 11; z <= 19; z++ {
		if s.CommittedMask(z) != nil {
			t.Errorf("Undo should remove interpolated slice %d", z)
		}
	}
	if !s.CommittedMask(10).Equal(seed10) {
		t.Error("Seeds should survive the grouped undo")
	}
}

// TestInterpolateInsufficientSeeds verifies the no-seed and single-seed
// no-ops
func TestInterpolateInsufficientSeeds(t *testing.T) {
	s := newTestSession(t)
	if res := s.InterpolateGaps(); !res.InsufficientSeeds {
		t.Error("No seeds should report insufficient seeds")
	}
	paintDisk(t, s, 10, 24, 24, 5)
	if res := s.InterpolateGaps(); !res.InsufficientSeeds {
		t.Error("One seed should report insufficient seeds")
	}
	if s.History().UndoDepth() != 1 {
		t.Error("Failed interpolation must not add history entries")
	}
}

// TestPreviewFlow verifies recompute-on-edit, promotion and the
// single-slice override through the facade
func TestPreviewFlow(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 4, 24, 24, 4)
	paintDisk(t, s, 8, 24, 24, 7)

	// Tests drive the recompute synchronously instead of waiting out
	// the debounce window.
	s.RecomputePreview()
	if s.PreviewMask(5) == nil || s.PreviewMask(6) == nil || s.PreviewMask(7) == nil {
		t.Fatal("Expected previews in the 5..7 gap")
	}
	if s.PreviewMask(4) != nil {
		t.Error("Seed slices hold no preview")
	}

	res := s.ConfirmPreview()
	if res.Applied != 3 {
		t.Errorf("Expected 3 promoted slices, got %+v", res)
	}
	for z := 5; z <= 7; z++ {
		if s.CommittedMask(z) == nil {
			t.Errorf("Slice %d should be committed after confirm", z)
		}
	}
	// After promotion the gap is closed, so the recomputed preview is
	// empty.
	if s.PreviewCount() != 0 {
		t.Error("Preview should be empty once the gap is committed")
	}

	// One undo reverts the whole confirmation.
	if !s.Undo() {
		t.Fatal("Undo should succeed")
	}
	for z := 5; z <= 7; z++ {
		if s.CommittedMask(z) != nil {
			t.Errorf("Slice %d should be gone after undo", z)
		}
	}

	// Single-slice override path.
	s.RecomputePreview()
	pm := s.PreviewMask(6)
	if pm == nil {
		t.Fatal("Expected a preview at slice 6")
	}
	if err := s.SetActiveSlice(6); err != nil {
		t.Fatalf("SetActiveSlice failed: %v", err)
	}
	if res := s.ConfirmPreviewSlice(); res.Applied != 1 {
		t.Errorf("Expected single-slice confirm, got %+v", res)
	}
	if m := s.CommittedMask(6); m == nil || !m.Equal(pm) {
		t.Error("Slice 6 should hold the promoted preview")
	}
}

// TestClearSlice verifies the undoable clear action
func TestClearSlice(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 3, 24, 24, 4)

	if !s.ClearSlice() {
		t.Fatal("ClearSlice should succeed on an annotated slice")
	}
	if s.CommittedMask(3) != nil {
		t.Error("ClearSlice should delete the entry")
	}
	if s.ClearSlice() {
		t.Error("Clearing an empty slice reports nothing to do")
	}
	if !s.Undo() {
		t.Fatal("Undo should succeed")
	}
	if s.CommittedMask(3) == nil {
		t.Error("Undo should restore the cleared mask")
	}
}

// TestROIManagement verifies create, switch, rename and delete through
// the facade
func TestROIManagement(t *testing.T) {
	s := newTestSession(t)
	first := s.ActiveROI()
	paintDisk(t, s, 2, 10, 10, 3)

	second := s.NewROI()
	if s.ActiveROI() != second || second == first {
		t.Fatal("NewROI should create and activate a distinct ROI")
	}
	paintDisk(t, s, 2, 30, 30, 3)

	// Each ROI keeps its own masks.
	if m := s.CommittedMask(2); !m.At(30, 30) || m.At(10, 10) {
		t.Error("Active ROI mask should be the second ROI's")
	}

	if err := s.RenameROI(second, "Liver"); err != nil {
		t.Fatalf("RenameROI failed: %v", err)
	}
	if s.ActiveROI() != "Liver" {
		t.Error("Renaming the active ROI should follow the name")
	}
	if err := s.RenameROI("Liver", first); err == nil {
		t.Error("Renaming onto an existing ROI should fail")
	}

	if err := s.DeleteROI("Liver"); err != nil {
		t.Fatalf("DeleteROI failed: %v", err)
	}
	if s.ActiveROI() != first {
		t.Errorf("Deletion should fall back to %s, got %s", first, s.ActiveROI())
	}

	if err := s.SetActiveROI("missing"); err == nil {
		t.Error("Switching to an unknown ROI should fail")
	}
}

// TestAutoPreviewToggle verifies that disabling auto-preview clears the
// overlay
func TestAutoPreviewToggle(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 4, 24, 24, 4)
	paintDisk(t, s, 8, 24, 24, 6)
	s.RecomputePreview()
	if s.PreviewCount() == 0 {
		t.Fatal("Expected previews before the toggle")
	}

	s.SetAutoPreview(false)
	if s.PreviewCount() != 0 {
		t.Error("Disabling auto-preview should clear the overlay")
	}

	s.SetAutoPreview(true)
	if s.PreviewCount() == 0 {
		t.Error("Re-enabling auto-preview should recompute at once")
	}
}

// TestExportImportThroughSession verifies the label volume round trip
// resets editing state
func TestExportImportThroughSession(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 3, 20, 20, 4)
	if err := s.RenameROI(s.ActiveROI(), "Liver"); err != nil {
		t.Fatalf("RenameROI failed: %v", err)
	}

	vol, records := s.ExportLabelVolume(nil)
	if len(records) != 1 || records[0].Name != "Liver" {
		t.Fatalf("Expected one Liver record, got %+v", records)
	}

	dst := newTestSession(t)
	if err := dst.ImportLabelVolume(vol, records); err != nil {
		t.Fatalf("ImportLabelVolume failed: %v", err)
	}
	if dst.ActiveROI() != "Liver" {
		t.Errorf("Imported ROI should become active, got %s", dst.ActiveROI())
	}
	want, _ := s.Store().Mask("Liver", 3)
	got, ok := dst.Store().Mask("Liver", 3)
	if !ok || !got.Equal(want) {
		t.Error("Masks should round trip through the label volume")
	}
	if dst.History().CanUndo() {
		t.Error("Import should reset history")
	}
}

// TestStrokeStateMachine verifies the Idle/Drawing transitions
func TestStrokeStateMachine(t *testing.T) {
	s := newTestSession(t)
	if s.Drawing() {
		t.Error("Session starts idle")
	}
	if s.EndStroke() {
		t.Error("EndStroke without a stroke reports false")
	}
	if !s.BeginStroke(pt(10, 10), false) {
		t.Fatal("BeginStroke failed")
	}
	if !s.Drawing() {
		t.Error("Session should be drawing")
	}
	if s.BeginStroke(pt(12, 12), false) {
		t.Error("Nested BeginStroke should be rejected")
	}
	s.CancelStroke()
	if s.Drawing() {
		t.Error("CancelStroke should return to idle")
	}
	if s.History().CanUndo() {
		t.Error("An abandoned stroke records no history")
	}

	// Out-of-bounds begin never enters Drawing.
	if s.BeginStroke(pt(-5, 10), false) {
		t.Error("Out-of-bounds begin should be rejected")
	}
	if s.Drawing() {
		t.Error("Session should stay idle")
	}
}

// TestEmptyMaskInvariantThroughFacade verifies that facade-level edits
// obey the never-store-empty rule
func TestEmptyMaskInvariantThroughFacade(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 7, 24, 24, 3)

	s.SetTool(ToolEraser)
	s.SetEraserRadius(8)
	if !s.BeginStroke(pt(24, 24), false) {
		t.Fatal("BeginStroke failed")
	}
	s.EndStroke()

	if _, ok := s.Store().Mask(s.ActiveROI(), 7); ok {
		t.Error("Fully erased slice must be absent, not empty")
	}
}

// TestDebouncedRecomputeDuringEdits verifies that timer-driven preview
// recomputes firing mid-edit never disturb in-flight strokes or leave
// the preview inconsistent
func TestDebouncedRecomputeDuringEdits(t *testing.T) {
	s := newTestSession(t)
	s.SetBrushRadius(4)

	// A burst of strokes with a 1ms debounce lets deferred recomputes
	// land between, and interleaved with, the edits.
	for i := 0; i < 25; i++ {
		if err := s.SetActiveSlice((i % 3) * 6); err != nil {
			t.Fatalf("SetActiveSlice failed: %v", err)
		}
		if !s.BeginStroke(pt(20+i%5, 20), false) {
			t.Fatal("BeginStroke should succeed")
		}
		s.ExtendStroke(pt(24, 24))
		if !s.EndStroke() {
			t.Fatal("EndStroke should succeed")
		}
		if i%5 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
	}

	s.RecomputePreview()
	if s.PreviewCount() == 0 {
		t.Error("Gaps between the painted slices should hold previews")
	}
	for _, z := range s.PreviewSlices() {
		if s.PreviewMask(z) == nil {
			t.Errorf("Listed preview slice %d should hold a mask", z)
		}
	}
}

// TestInterpolateAllROIs verifies the pre-export sweep fills every
// ROI's gaps as one atomic undo step
func TestInterpolateAllROIs(t *testing.T) {
	s := newTestSession(t)
	first := s.ActiveROI()
	paintDisk(t, s, 2, 20, 20, 4)
	paintDisk(t, s, 6, 20, 20, 4)

	second := s.NewROI()
	paintDisk(t, s, 10, 30, 30, 4)
	paintDisk(t, s, 14, 30, 30, 4)

	res := s.InterpolateAllROIs()
	if res.InsufficientSeeds {
		t.Fatal("Both ROIs had two seeds")
	}
	if res.Written != 6 {
		t.Errorf("Expected 6 written slices across both ROIs, got %+v", res)
	}
	for z := 3; z <= 5; z++ {
		if m, ok := s.Store().Mask(first, z); !ok || !m.Any() {
			t.Errorf("First ROI slice %d should be filled", z)
		}
	}
	for z := 11; z <= 13; z++ {
		if m, ok := s.Store().Mask(second, z); !ok || !m.Any() {
			t.Errorf("Second ROI slice %d should be filled", z)
		}
	}

	// One undo reverts the whole sweep across both ROIs.
	if !s.Undo() {
		t.Fatal("Undo should succeed")
	}
	for z := 3; z <= 5; z++ {
		if _, ok := s.Store().Mask(first, z); ok {
			t.Errorf("First ROI slice %d should be gone after undo", z)
		}
	}
	for z := 11; z <= 13; z++ {
		if _, ok := s.Store().Mask(second, z); ok {
			t.Errorf("Second ROI slice %d should be gone after undo", z)
		}
	}
}

// TestInterpolateAllROIsNoSeeds verifies the sweep reports when no ROI
// can interpolate
func TestInterpolateAllROIsNoSeeds(t *testing.T) {
	s := newTestSession(t)
	paintDisk(t, s, 3, 20, 20, 4)

	res := s.InterpolateAllROIs()
	if !res.InsufficientSeeds {
		t.Error("A single seed in a single ROI cannot interpolate")
	}
	if res.Written != 0 || res.Cleared != 0 {
		t.Errorf("Expected no writes, got %+v", res)
	}
	if s.History().UndoDepth() != 1 {
		t.Error("An empty sweep must not add history entries")
	}
}

// TestConfigRadiiClamped verifies out-of-range configured radii are
// clamped before the first stroke
func TestConfigRadiiClamped(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tools.BrushRadius = 99
	cfg.Tools.EraserRadius = 0
	s := NewSession(cfg, 16, 16, 4)
	t.Cleanup(s.Close)

	if s.BrushRadius() != 30 {
		t.Errorf("Expected brush radius clamped to 30, got %d", s.BrushRadius())
	}
	if s.EraserRadius() != 1 {
		t.Errorf("Expected eraser radius clamped to 1, got %d", s.EraserRadius())
	}
}
