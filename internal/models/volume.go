package models

// LabelVolume is a 3D integer label map exchanged with the file layer.
// Voxel (x, y, z) holds 0 for background or the 1-based label index of
// the ROI covering it. Data is stored in x-fastest order, one full
// Width×Height plane per slice.
type LabelVolume struct {
	// Data is the label data as a 1D array in x-fastest order
	Data []uint16

	// Width and Height are the in-plane dimensions in voxels
	Width  int
	Height int

	// Depth is the number of slices
	Depth int
}

// NewLabelVolume allocates an all-background label volume.
func NewLabelVolume(width, height, depth int) *LabelVolume {
	return &LabelVolume{
		Data:   make([]uint16, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// At returns the label at voxel (x, y, z).
func (v *LabelVolume) At(x, y, z int) uint16 {
	return v.Data[(z*v.Height+y)*v.Width+x]
}

// Set writes the label at voxel (x, y, z).
func (v *LabelVolume) Set(x, y, z int, label uint16) {
	v.Data[(z*v.Height+y)*v.Width+x] = label
}

// LabelRecord associates one label value of a LabelVolume with the ROI
// name and display color it was exported from.
type LabelRecord struct {
	// Label is the 1-based label value used in the volume
	Label int

	// Name is the ROI name
	Name string

	// Color is the ROI display color, either a "#rrggbb" value or a
	// color name such as "red"
	Color string
}
