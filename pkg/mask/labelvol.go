package mask

import (
	"fmt"
	"sort"

	"roicontour/internal/models"
)

// defaultPalette colors imported labels that arrive without a usable
// color record.
var defaultPalette = []string{
	"#e6194b", "#3cb44b", "#0082c8", "#f58231", "#911eb4", "#46f0f0",
	"#f032e6", "#d2f53c", "#fabebe", "#008080", "#e6beff", "#aa6e28",
}

// ExportLabelVolume assembles the full 3D label volume handed to the
// exporter. ROIs are stamped in the caller-specified order with 1-based
// label values; ROIs with no non-empty slices are skipped and names not
// present in the store are ignored. Later labels overwrite earlier ones
// where masks overlap. The side list records label, name and color per
// exported ROI.
func (s *Store) ExportLabelVolume(order []string) (*models.LabelVolume, []models.LabelRecord) {
	vol := models.NewLabelVolume(s.width, s.height, s.depth)
	var records []models.LabelRecord

	label := 0
	for _, roi := range order {
		if !s.HasROI(roi) || !s.HasAnyMask(roi) {
			continue
		}
		label++
		for z, m := range s.masks[roi] {
			for y := 0; y < s.height; y++ {
				for x := 0; x < s.width; x++ {
					if m.At(x, y) {
						vol.Set(x, y, z, uint16(label))
					}
				}
			}
		}
		records = append(records, models.LabelRecord{
			Label: label,
			Name:  roi,
			Color: s.Color(roi),
		})
	}
	return vol, records
}

// ImportLabelVolume rebuilds the store contents from a label volume and
// its label records. Existing ROIs and masks are discarded only once the
// records validate; dimension mismatches and duplicate ROI names are
// rejected with the store untouched. Labels with no matching record fall
// back to an ROI_<label> name and a palette color.
func (s *Store) ImportLabelVolume(vol *models.LabelVolume, records []models.LabelRecord) error {
	if vol.Width != s.width || vol.Height != s.height || vol.Depth != s.depth {
		return fmt.Errorf("mask: label volume is %dx%dx%d, store is %dx%dx%d",
			vol.Width, vol.Height, vol.Depth, s.width, s.height, s.depth)
	}

	meta := make(map[int]models.LabelRecord, len(records))
	for _, rec := range records {
		if rec.Label > 0 {
			meta[rec.Label] = rec
		}
	}

	// Collect the label values actually present, in ascending order.
	present := make(map[uint16]bool)
	for _, v := range vol.Data {
		if v > 0 {
			present[v] = true
		}
	}
	labels := make([]int, 0, len(present))
	for label := range present {
		labels = append(labels, int(label))
	}
	sort.Ints(labels)

	// Resolve every label's name and color up front, so a colliding
	// record set aborts before any existing state is discarded.
	names := make(map[int]string, len(labels))
	colors := make(map[int]string, len(labels))
	taken := make(map[string]int, len(labels))
	for _, label := range labels {
		rec, ok := meta[label]
		name := rec.Name
		color := rec.Color
		if !ok || name == "" {
			name = fmt.Sprintf("ROI_%d", label)
		}
		if color == "" {
			color = defaultPalette[(label-1)%len(defaultPalette)]
		}
		if prev, dup := taken[name]; dup {
			return fmt.Errorf("mask: labels %d and %d both map to ROI %q", prev, label, name)
		}
		taken[name] = label
		names[label] = name
		colors[label] = color
	}

	s.masks = make(map[string]map[int]*Mask)
	s.rois = make(map[string]*roiMeta)

	for _, l := range labels {
		label := uint16(l)
		name := names[l]
		s.rois[name] = &roiMeta{color: colors[l], visible: true}
		for z := 0; z < s.depth; z++ {
			var m *Mask
			for y := 0; y < s.height; y++ {
				for x := 0; x < s.width; x++ {
					if vol.At(x, y, z) == label {
						if m == nil {
							m = New(s.width, s.height)
						}
						m.Set(x, y, true)
					}
				}
			}
			if m != nil {
				s.SetMask(name, z, m)
			}
		}
	}
	return nil
}
