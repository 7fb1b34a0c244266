package brush

import "roicontour/pkg/mask"

// CloseContours repairs a finished brush stroke: when the stroke forms a
// self-intersecting loop, the enclosed interior is filled so a roughly
// closed outline becomes a solid region. Holes that already existed in
// the pre-stroke mask are left open.
//
// The working mask is dilated by a disk of half the tool radius so
// near-miss loop endpoints touch, holes are filled, holes inherited from
// the previous mask are subtracted back out, and the result is eroded by
// the same disk to restore the drawn width.
func CloseContours(work, prev *mask.Mask, toolRadius int) *mask.Mask {
	rad := toolRadius / 2
	if rad < 1 {
		rad = 1
	}
	disk := mask.Disk(rad)

	dilated := mask.Dilate(work, disk)

	prevHoles := mask.Holes(prev)
	filled := mask.FillHoles(dilated)

	// New holes are those created by this stroke: enclosed by the
	// dilated stroke but not inherited from the previous mask.
	newHoles := filled.Clone()
	mask.Subtract(newHoles, dilated)
	mask.Subtract(newHoles, prevHoles)

	mask.Union(dilated, newHoles)
	return mask.Erode(dilated, disk)
}
