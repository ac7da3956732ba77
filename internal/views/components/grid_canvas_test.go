package components

import (
	"image"
	"testing"

	"grid-splitter/internal/grid"
	"grid-splitter/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y, dx, dy float32) *fyne.DragEvent {
	return &fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Dragged:    fyne.NewDelta(dx, dy),
	}
}

// newPreviewCanvas puts a 400x200 image in an 800x600 widget: zoom 2,
// image rect (0,100)-(800,500).
func newPreviewCanvas(t *testing.T) *GridCanvas {
	t.Helper()
	test.NewTempApp(t)

	c := NewGridCanvas()
	c.SetPreview(image.NewNRGBA(image.Rect(0, 0, 400, 200)), 1600, 800, grid.DefaultLines())
	c.Resize(fyne.NewSize(800, 600))
	return c
}

func TestGridCanvasViewport(t *testing.T) {
	c := newPreviewCanvas(t)

	vp := c.Viewport()
	assert.InDelta(t, 0, vp.X, 1e-6)
	assert.InDelta(t, 100, vp.Y, 1e-6)
	assert.InDelta(t, 800, vp.W, 1e-6)
	assert.InDelta(t, 400, vp.H, 1e-6)
	assert.InDelta(t, 2, vp.Zoom, 1e-6)
}

func TestGridCanvasDragHorizontalLine(t *testing.T) {
	c := newPreviewCanvas(t)

	var got []grid.Lines
	c.OnLinesChanged = func(l grid.Lines) { got = append(got, l) }
	ended := false
	c.OnDragEnd = func() { ended = true }

	c.MouseDown(press(400, 200))
	ref, ok := c.Grabbed()
	require.True(t, ok)
	assert.Equal(t, grid.LineRef{Orientation: grid.Horizontal, Index: 0}, ref)

	c.Dragged(drag(400, 300, 0, 100))
	require.Len(t, got, 1)
	assert.InDelta(t, 0.5, got[0].H[0], 1e-6)
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, got[0].V)

	c.DragEnd()
	_, ok = c.Grabbed()
	assert.False(t, ok)
	assert.True(t, ended)
}

func TestGridCanvasDragOutsideImageKeepsLine(t *testing.T) {
	c := newPreviewCanvas(t)

	changes := 0
	c.OnLinesChanged = func(grid.Lines) { changes++ }

	c.MouseDown(press(400, 200))
	ref, ok := c.Grabbed()
	require.True(t, ok)
	assert.Equal(t, grid.LineRef{Orientation: grid.Horizontal, Index: 0}, ref)

	// y=50 is in the top margin.
	c.Dragged(drag(400, 50, 0, -150))
	assert.Equal(t, 0.25, c.Lines().H[0])
	assert.Zero(t, changes)

	// Back inside, the line follows again and stays held.
	c.Dragged(drag(400, 140, 0, 90))
	assert.InDelta(t, 0.1, c.Lines().H[0], 1e-6)
	assert.Equal(t, 1, changes)
}

func TestGridCanvasDragVerticalLineStopsAtImageEdge(t *testing.T) {
	c := newPreviewCanvas(t)

	c.MouseDown(press(600, 150))
	ref, ok := c.Grabbed()
	require.True(t, ok)
	assert.Equal(t, grid.LineRef{Orientation: grid.Vertical, Index: 2}, ref)

	c.Dragged(drag(800, 150, 200, 0))
	assert.Equal(t, 1.0, c.Lines().V[2])

	c.Dragged(drag(700, 550, -100, 400))
	assert.Equal(t, 1.0, c.Lines().V[2])

	c.Dragged(drag(0, 150, -800, 0))
	assert.Equal(t, 0.0, c.Lines().V[2])
}

func TestGridCanvasPressInMarginGrabsNothing(t *testing.T) {
	c := newPreviewCanvas(t)

	// y=50 is above the image; x=200 would otherwise hit V[0].
	c.MouseDown(press(200, 50))
	_, ok := c.Grabbed()
	assert.False(t, ok)

	c.MouseDown(press(100, 150))
	_, ok = c.Grabbed()
	assert.False(t, ok)
}

func TestGridCanvasTouchDragGrabsAtStart(t *testing.T) {
	c := newPreviewCanvas(t)

	c.Dragged(drag(400, 210, 0, 10))
	ref, ok := c.Grabbed()
	require.True(t, ok)
	assert.Equal(t, grid.Horizontal, ref.Orientation)
	assert.InDelta(t, 0.275, c.Lines().H[0], 1e-6)
}

func TestGridCanvasMouseUpReleases(t *testing.T) {
	c := newPreviewCanvas(t)

	c.MouseDown(press(400, 200))
	c.MouseUp(press(400, 200))
	_, ok := c.Grabbed()
	assert.False(t, ok)
}

func TestGridCanvasPreviewObjects(t *testing.T) {
	c := newPreviewCanvas(t)

	r := test.WidgetRenderer(c)
	// background, image, six lines and six captions
	assert.Len(t, r.Objects(), 14)
}

func newCutCanvas(t *testing.T) *GridCanvas {
	t.Helper()
	test.NewTempApp(t)

	layout := grid.NewCutLayout([][]image.Point{{{X: 10, Y: 10}, {X: 10, Y: 10}}}, 5)
	c := NewGridCanvas()
	c.SetCut(image.NewNRGBA(image.Rect(0, 0, 25, 10)), layout)
	c.Resize(fyne.NewSize(250, 100))
	return c
}

func TestGridCanvasTapTile(t *testing.T) {
	c := newCutCanvas(t)

	tapped := -1
	c.OnTileTapped = func(i int) { tapped = i }

	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(200, 50)})
	assert.Equal(t, 1, tapped)

	tapped = -1
	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(120, 50)})
	assert.Equal(t, -1, tapped, "gap between tiles")

	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(20, 50)})
	assert.Equal(t, 0, tapped)
}

func TestGridCanvasCutModeIgnoresLines(t *testing.T) {
	c := newCutCanvas(t)

	c.MouseDown(press(62, 25))
	_, ok := c.Grabbed()
	assert.False(t, ok)
	assert.True(t, c.IsCut())
}

func TestGridCanvasBadges(t *testing.T) {
	c := newCutCanvas(t)
	r := test.WidgetRenderer(c)
	assert.Len(t, r.Objects(), 2)

	c.SetTileStatuses(map[int]models.TileStatus{0: models.TileDone, 1: models.TileFailed})
	assert.Len(t, r.Objects(), 6)

	c.SetTileStatuses(nil)
	assert.Len(t, r.Objects(), 2)
}

func TestGridCanvasClear(t *testing.T) {
	c := newPreviewCanvas(t)
	c.Clear()

	assert.False(t, c.HasImage())
	assert.True(t, c.Viewport().Empty())

	c.MouseDown(press(400, 200))
	_, ok := c.Grabbed()
	assert.False(t, ok)
}
