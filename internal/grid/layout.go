package grid

import "image"

// DefaultGap is the spacing between tiles in the cut composite.
const DefaultGap = 5

// CutLayout places tiles row by row with a fixed gap, as shown after a cut.
// Each row is as tall as its tallest tile; the composite is as wide as its
// widest row.
type CutLayout struct {
	gap   int
	rects [][]image.Rectangle
	size  image.Point
}

// NewCutLayout lays out tiles given their sizes, row-major.
func NewCutLayout(sizes [][]image.Point, gap int) CutLayout {
	if gap < 0 {
		gap = 0
	}

	layout := CutLayout{gap: gap, rects: make([][]image.Rectangle, len(sizes))}

	y := 0
	for i, row := range sizes {
		x, rowH := 0, 0
		layout.rects[i] = make([]image.Rectangle, len(row))
		for j, sz := range row {
			layout.rects[i][j] = image.Rect(x, y, x+sz.X, y+sz.Y)
			x += sz.X + gap
			if sz.Y > rowH {
				rowH = sz.Y
			}
		}
		if w := x - gap; len(row) > 0 && w > layout.size.X {
			layout.size.X = w
		}
		y += rowH + gap
	}
	if len(sizes) > 0 {
		layout.size.Y = y - gap
	}

	return layout
}

// LayoutCells builds the cut layout for cells.
func LayoutCells(cells []Cell, gap int) CutLayout {
	rows := GroupRows(cells)
	sizes := make([][]image.Point, len(rows))
	for i, row := range rows {
		sizes[i] = make([]image.Point, len(row))
		for j, c := range row {
			sizes[i][j] = c.Bounds.Size()
		}
	}
	return NewCutLayout(sizes, gap)
}

// Size is the composite size in pixels.
func (c CutLayout) Size() image.Point { return c.size }

func (c CutLayout) Gap() int { return c.gap }

// Rects returns tile placements, row-major.
func (c CutLayout) Rects() [][]image.Rectangle { return c.rects }

// TileAt returns the tile under a composite pixel. Points in a gap or
// outside the composite match nothing.
func (c CutLayout) TileAt(x, y int) (row, col int, ok bool) {
	p := image.Pt(x, y)
	for i, r := range c.rects {
		for j, rect := range r {
			if p.In(rect) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// Index converts a layout position to the 0-based row-major tile index.
func (c CutLayout) Index(row, col int) int {
	idx := 0
	for i := 0; i < row && i < len(c.rects); i++ {
		idx += len(c.rects[i])
	}
	return idx + col
}
