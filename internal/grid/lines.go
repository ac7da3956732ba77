package grid

import (
	"fmt"
	"math"
)

// DefaultTolerance is the normalized distance within which a press grabs a line.
const DefaultTolerance = 0.02

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "h"
	case Vertical:
		return "v"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// LineRef identifies one guide line.
type LineRef struct {
	Orientation Orientation
	Index       int
}

// Lines holds normalized guide-line positions. H are horizontal lines
// (fractions of the image height), V are vertical lines (fractions of the
// width).
type Lines struct {
	H []float64
	V []float64
}

// DefaultLines returns three lines per axis at quarter positions.
func DefaultLines() Lines {
	return Lines{
		H: []float64{0.25, 0.5, 0.75},
		V: []float64{0.25, 0.5, 0.75},
	}
}

func (l Lines) Clone() Lines {
	return Lines{
		H: append([]float64(nil), l.H...),
		V: append([]float64(nil), l.V...),
	}
}

// Reset puts the lines back at their defaults.
func (l *Lines) Reset() {
	*l = DefaultLines()
}

// Rows and Cols count the grid cells before empty cells are dropped.
func (l Lines) Rows() int { return len(l.H) + 1 }
func (l Lines) Cols() int { return len(l.V) + 1 }

// Position returns the normalized position of a line.
func (l Lines) Position(ref LineRef) (float64, bool) {
	positions := l.axis(ref.Orientation)
	if ref.Index < 0 || ref.Index >= len(positions) {
		return 0, false
	}
	return positions[ref.Index], true
}

// HitTest finds the line under a normalized point. Horizontal lines are
// checked before vertical ones, so at a crossing the horizontal line wins.
func (l Lines) HitTest(nx, ny, tolerance float64) (LineRef, bool) {
	for i, h := range l.H {
		if math.Abs(ny-h) < tolerance {
			return LineRef{Orientation: Horizontal, Index: i}, true
		}
	}
	for i, v := range l.V {
		if math.Abs(nx-v) < tolerance {
			return LineRef{Orientation: Vertical, Index: i}, true
		}
	}
	return LineRef{}, false
}

// Move places a line at pos, clamped to [0, 1]. It reports false for an
// unknown line.
func (l *Lines) Move(ref LineRef, pos float64) bool {
	positions := l.axis(ref.Orientation)
	if ref.Index < 0 || ref.Index >= len(positions) {
		return false
	}
	positions[ref.Index] = Clamp01(pos)
	return true
}

// MoveTo moves the referenced line to the matching coordinate of a
// normalized point: y for horizontal lines, x for vertical ones.
func (l *Lines) MoveTo(ref LineRef, nx, ny float64) bool {
	if ref.Orientation == Horizontal {
		return l.Move(ref, ny)
	}
	return l.Move(ref, nx)
}

func (l Lines) axis(o Orientation) []float64 {
	if o == Horizontal {
		return l.H
	}
	return l.V
}

// Label is the coordinate caption drawn beside a line, in source pixels.
func Label(ref LineRef, l Lines, srcW, srcH int) string {
	pos, ok := l.Position(ref)
	if !ok {
		return ""
	}
	if ref.Orientation == Horizontal {
		return fmt.Sprintf("y: %d", int(pos*float64(srcH)))
	}
	return fmt.Sprintf("x: %d", int(pos*float64(srcW)))
}

func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
