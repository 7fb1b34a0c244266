// Package render produces the viewer-facing overlay images: committed
// masks as solid outlines and interpolation previews as dotted outlines,
// tinted with the ROI's display color.
package render

import (
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"roicontour/pkg/mask"
)

// ParseColor resolves an ROI color spec: "#rrggbb" or "#rrggbbaa" hex
// values, or an SVG 1.1 color name such as "red". Unresolvable specs
// fall back to red.
func ParseColor(spec string) color.RGBA {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "#") {
		if c, ok := parseHex(spec[1:]); ok {
			return c
		}
	} else if c, ok := colornames.Map[strings.ToLower(spec)]; ok {
		return c
	}
	return colornames.Red
}

func parseHex(s string) (color.RGBA, bool) {
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return color.RGBA{}, false
	}
	if len(s) == 8 {
		return color.RGBA{
			R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v),
		}, true
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// Outline returns the border band of a mask: the mask minus thickness
// rounds of 8-neighbor erosion.
func Outline(m *mask.Mask, thickness int) *mask.Mask {
	if thickness < 1 {
		thickness = 1
	}
	inner := m.Clone()
	for i := 0; i < thickness; i++ {
		inner = erode8(inner)
	}
	border := m.Clone()
	mask.Subtract(border, inner)
	return border
}

// erode8 is one 8-neighborhood erosion pass. Unlike the disk erosion in
// package mask it treats out-of-bounds neighbors as foreground, so a
// region flush against the slice border keeps its flat side thin.
func erode8(m *mask.Mask) *mask.Mask {
	w, h := m.Width(), m.Height()
	out := mask.New(w, h)
	for y := 0; y < h; y++ {
	pixels:
		for x := 0; x < w; x++ {
			if !m.At(x, y) {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					xx, yy := x+dx, y+dy
					if xx < 0 || xx >= w || yy < 0 || yy >= h {
						continue
					}
					if !m.At(xx, yy) {
						continue pixels
					}
				}
			}
			out.Set(x, y, true)
		}
	}
	return out
}

// OutlineImage renders the mask's border as an RGBA image in the given
// color with the given alpha, transparent elsewhere.
func OutlineImage(m *mask.Mask, colorSpec string, alpha uint8, thickness int) *image.RGBA {
	return tint(Outline(m, thickness), colorSpec, alpha)
}

// DottedOutlineImage renders the mask's border as a dotted line: border
// pixels are ordered by angle about the border centroid and dots are
// kept at least spacing pixels apart, which reads as a dashed preview
// contour in the viewer.
func DottedOutlineImage(m *mask.Mask, colorSpec string, alpha uint8, spacing int) *image.RGBA {
	border := Outline(m, 1)
	if spacing < 1 {
		spacing = 1
	}

	type pt struct {
		x, y  int
		angle float64
	}
	var pts []pt
	var sumX, sumY, n float64
	for y := 0; y < border.Height(); y++ {
		for x := 0; x < border.Width(); x++ {
			if border.At(x, y) {
				pts = append(pts, pt{x: x, y: y})
				sumX += float64(x)
				sumY += float64(y)
				n++
			}
		}
	}
	dots := mask.New(m.Width(), m.Height())
	if n == 0 {
		return tint(dots, colorSpec, alpha)
	}

	cx, cy := sumX/n, sumY/n
	for i := range pts {
		pts[i].angle = math.Atan2(float64(pts[i].y)-cy, float64(pts[i].x)-cx)
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].angle < pts[j].angle })

	lastX, lastY := math.MinInt32, math.MinInt32
	for _, p := range pts {
		if abs(p.x-lastX)+abs(p.y-lastY) >= spacing {
			dots.Set(p.x, p.y, true)
			lastX, lastY = p.x, p.y
		}
	}
	return tint(dots, colorSpec, alpha)
}

// tint converts a mask into an RGBA image: set pixels take the color,
// the rest stay fully transparent.
func tint(m *mask.Mask, colorSpec string, alpha uint8) *image.RGBA {
	c := ParseColor(colorSpec)
	c.A = alpha
	img := image.NewRGBA(image.Rect(0, 0, m.Width(), m.Height()))
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(x, y) {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
