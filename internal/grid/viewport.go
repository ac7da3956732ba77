package grid

import "math"

// Rect is an axis-aligned rectangle in widget units.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether a point lies inside r, edges included.
func (r Rect) Contains(px, py float64) bool {
	if r.Empty() {
		return false
	}
	return px >= r.X && px <= r.X+r.W && py >= r.Y && py <= r.Y+r.H
}

// Viewport is where an image lands inside a widget after a contain-fit.
type Viewport struct {
	Rect
	// Zoom is widget units per image pixel.
	Zoom float64
}

// Fit scales an imgW x imgH image to fit a boxW x boxH widget, preserving
// aspect ratio, and centers it. Degenerate inputs give an empty viewport.
func Fit(imgW, imgH int, boxW, boxH float64) Viewport {
	if imgW <= 0 || imgH <= 0 || boxW <= 0 || boxH <= 0 {
		return Viewport{}
	}

	zoom := math.Min(boxW/float64(imgW), boxH/float64(imgH))
	w := float64(imgW) * zoom
	h := float64(imgH) * zoom

	return Viewport{
		Rect: Rect{
			X: (boxW - w) / 2,
			Y: (boxH - h) / 2,
			W: w,
			H: h,
		},
		Zoom: zoom,
	}
}

// Normalize maps a widget position to 0..1 image coordinates. inside is
// false when the position falls in the letterbox margins.
func (v Viewport) Normalize(px, py float64) (nx, ny float64, inside bool) {
	if v.Empty() {
		return 0, 0, false
	}
	nx = (px - v.X) / v.W
	ny = (py - v.Y) / v.H
	return nx, ny, v.Contains(px, py)
}

// Denormalize maps 0..1 image coordinates to a widget position.
func (v Viewport) Denormalize(nx, ny float64) (px, py float64) {
	return v.X + nx*v.W, v.Y + ny*v.H
}

// ToImage maps a widget position to pixel coordinates of the displayed
// imgW x imgH image.
func (v Viewport) ToImage(px, py float64, imgW, imgH int) (ix, iy float64, inside bool) {
	nx, ny, inside := v.Normalize(px, py)
	return nx * float64(imgW), ny * float64(imgH), inside
}

// Scale converts between display-thumbnail pixels and source pixels. The
// axes are independent: thumbnails are rounded to whole pixels, so SX and
// SY differ slightly even for a uniform resize.
type Scale struct {
	SX, SY float64
}

// ScaleBetween returns the display-to-source factors.
func ScaleBetween(srcW, srcH, dispW, dispH int) Scale {
	s := Scale{SX: 1, SY: 1}
	if dispW > 0 {
		s.SX = float64(srcW) / float64(dispW)
	}
	if dispH > 0 {
		s.SY = float64(srcH) / float64(dispH)
	}
	return s
}

func (s Scale) ToSource(x, y float64) (float64, float64) {
	return x * s.SX, y * s.SY
}

func (s Scale) ToDisplay(x, y float64) (float64, float64) {
	if s.SX == 0 || s.SY == 0 {
		return 0, 0
	}
	return x / s.SX, y / s.SY
}
