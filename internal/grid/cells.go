package grid

import (
	"image"
	"sort"
)

// Cell is one tile of the grid in source pixels. Row and Col index the
// full grid, so they stay stable when neighbouring cells are empty.
type Cell struct {
	Row, Col int
	Bounds   image.Rectangle
}

// Boundaries converts normalized positions into pixel cut points along an
// axis of the given extent: 0, every line, then extent. Positions are
// sorted first so crossed lines never yield negative spans.
func Boundaries(positions []float64, extent int) []int {
	return scaledBoundaries(positions, float64(extent), 1, extent)
}

// scaledBoundaries computes int(p * dispExtent * scale) for each position,
// bracketed by 0 and srcExtent.
func scaledBoundaries(positions []float64, dispExtent, scale float64, srcExtent int) []int {
	sorted := append([]float64(nil), positions...)
	sort.Float64s(sorted)

	out := make([]int, 0, len(sorted)+2)
	out = append(out, 0)
	for _, p := range sorted {
		px := int(Clamp01(p) * dispExtent * scale)
		if px > srcExtent {
			px = srcExtent
		}
		out = append(out, px)
	}
	return append(out, srcExtent)
}

// Cells returns the row-major tiles of a w x h source image cut along l.
// Zero-area cells, from coincident lines, are dropped.
func (l Lines) Cells(w, h int) []Cell {
	return CellsFrom(Boundaries(l.V, w), Boundaries(l.H, h))
}

// SourceBoundaries computes cut points for a source image from lines
// edited over a dispW x dispH thumbnail, going through the thumbnail's
// pixel extent and the independent width and height scales. The result
// agrees with Boundaries(l, srcExtent) to within one pixel.
func (l Lines) SourceBoundaries(dispW, dispH, srcW, srcH int) (xs, ys []int) {
	s := ScaleBetween(srcW, srcH, dispW, dispH)
	xs = scaledBoundaries(l.V, float64(dispW), s.SX, srcW)
	ys = scaledBoundaries(l.H, float64(dispH), s.SY, srcH)
	return xs, ys
}

// CellsFrom builds row-major cells from vertical (xs) and horizontal (ys)
// cut points.
func CellsFrom(xs, ys []int) []Cell {
	var cells []Cell
	for i := 0; i+1 < len(ys); i++ {
		for j := 0; j+1 < len(xs); j++ {
			r := image.Rect(xs[j], ys[i], xs[j+1], ys[i+1])
			if r.Empty() {
				continue
			}
			cells = append(cells, Cell{Row: i, Col: j, Bounds: r})
		}
	}
	return cells
}

// GroupRows splits row-major cells into rows, keeping order.
func GroupRows(cells []Cell) [][]Cell {
	var rows [][]Cell
	for i, c := range cells {
		if i == 0 || c.Row != cells[i-1].Row {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], c)
	}
	return rows
}
