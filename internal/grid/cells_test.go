package grid

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaries(t *testing.T) {
	assert.Equal(t, []int{0, 250, 500, 750, 1000}, Boundaries([]float64{0.25, 0.5, 0.75}, 1000))
	assert.Equal(t, []int{0, 25, 75, 100}, Boundaries([]float64{0.75, 0.25}, 100))
	assert.Equal(t, []int{0, 100}, Boundaries(nil, 100))
}

func TestCellsCoverImage(t *testing.T) {
	cells := DefaultLines().Cells(400, 200)
	require.Len(t, cells, 16)

	assert.Equal(t, image.Rect(0, 0, 100, 50), cells[0].Bounds)
	assert.Equal(t, image.Rect(300, 150, 400, 200), cells[15].Bounds)
	assert.Equal(t, 1, cells[5].Row)
	assert.Equal(t, 1, cells[5].Col)

	area := 0
	for _, c := range cells {
		area += c.Bounds.Dx() * c.Bounds.Dy()
	}
	assert.Equal(t, 400*200, area)
}

func TestCellsDropEmpty(t *testing.T) {
	l := Lines{V: []float64{0.5, 0.5}}
	cells := l.Cells(100, 10)

	require.Len(t, cells, 2)
	assert.Equal(t, image.Rect(0, 0, 50, 10), cells[0].Bounds)
	assert.Equal(t, image.Rect(50, 0, 100, 10), cells[1].Bounds)
	assert.Equal(t, 2, cells[1].Col)
}

func TestCellsWithLinesAtEdges(t *testing.T) {
	l := Lines{H: []float64{0}, V: []float64{1}}
	cells := l.Cells(100, 50)

	require.Len(t, cells, 1)
	assert.Equal(t, image.Rect(0, 0, 100, 50), cells[0].Bounds)
}

func TestSourceBoundariesMatchDirectMapping(t *testing.T) {
	l := Lines{H: []float64{0.1, 0.333, 0.8}, V: []float64{0.25, 0.5, 0.9}}

	xs, ys := l.SourceBoundaries(900, 676, 4000, 3000)
	direct := Boundaries(l.V, 4000)
	directY := Boundaries(l.H, 3000)

	require.Len(t, xs, len(direct))
	require.Len(t, ys, len(directY))
	for i := range xs {
		assert.InDelta(t, direct[i], xs[i], 1, "x boundary %d", i)
	}
	for i := range ys {
		assert.InDelta(t, directY[i], ys[i], 1, "y boundary %d", i)
	}
	assert.Equal(t, 4000, xs[len(xs)-1])
	assert.Equal(t, 3000, ys[len(ys)-1])
}

func TestGroupRows(t *testing.T) {
	cells := Lines{H: []float64{0.5}, V: []float64{0.5}}.Cells(10, 10)
	rows := GroupRows(cells)

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 2)
	assert.Nil(t, GroupRows(nil))
}
