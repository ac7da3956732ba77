package components

import (
	"image"
	"image/color"

	"grid-splitter/internal/grid"
	"grid-splitter/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	CanvasMinWidth  = 600
	CanvasMinHeight = 450

	lineStrokeWidth = 2
	labelTextSize   = 12
	badgeTextSize   = 11
)

var (
	lineColor       = color.NRGBA{R: 255, A: 160}
	labelColor      = color.NRGBA{R: 255, A: 255}
	backgroundColor = color.NRGBA{R: 252, G: 252, B: 252, A: 255}
	badgeBackground = color.NRGBA{A: 150}
)

// GridCanvas shows the display image letterboxed inside the widget with
// draggable guide lines over it, or the cut composite with per-tile status
// badges.
type GridCanvas struct {
	widget.BaseWidget

	img        image.Image
	srcW, srcH int
	lines      grid.Lines
	cut        bool
	layout     grid.CutLayout
	statuses   map[int]models.TileStatus

	grabbed     *grid.LineRef
	dragStarted bool

	// OnLinesChanged receives a copy of the lines after every move.
	OnLinesChanged func(grid.Lines)
	// OnTileTapped receives the 0-based row-major tile position.
	OnTileTapped func(index int)
	// OnDragEnd fires when a grabbed line is released.
	OnDragEnd func()
}

var (
	_ fyne.Draggable    = (*GridCanvas)(nil)
	_ fyne.Tappable     = (*GridCanvas)(nil)
	_ desktop.Mouseable = (*GridCanvas)(nil)
)

func NewGridCanvas() *GridCanvas {
	c := &GridCanvas{lines: grid.DefaultLines()}
	c.ExtendBaseWidget(c)
	return c
}

// SetPreview shows a display image with editable lines. srcW and srcH are
// the source dimensions used for line captions.
func (c *GridCanvas) SetPreview(display image.Image, srcW, srcH int, lines grid.Lines) {
	c.img = display
	c.srcW, c.srcH = srcW, srcH
	c.lines = lines.Clone()
	c.cut = false
	c.layout = grid.CutLayout{}
	c.statuses = nil
	c.release()
	c.Refresh()
}

// SetCut shows the cut composite. Lines are not drawn in this mode.
func (c *GridCanvas) SetCut(composite image.Image, layout grid.CutLayout) {
	c.img = composite
	c.cut = true
	c.layout = layout
	c.release()
	c.Refresh()
}

// SetTileStatuses sets badges keyed by 0-based tile position. A nil map
// removes them.
func (c *GridCanvas) SetTileStatuses(statuses map[int]models.TileStatus) {
	c.statuses = statuses
	c.Refresh()
}

func (c *GridCanvas) Clear() {
	c.img = nil
	c.cut = false
	c.statuses = nil
	c.lines = grid.DefaultLines()
	c.release()
	c.Refresh()
}

func (c *GridCanvas) Lines() grid.Lines { return c.lines.Clone() }

func (c *GridCanvas) IsCut() bool { return c.cut }

func (c *GridCanvas) HasImage() bool { return c.img != nil }

// Viewport is the rectangle the image occupies inside the widget.
func (c *GridCanvas) Viewport() grid.Viewport {
	if c.img == nil {
		return grid.Viewport{}
	}
	b := c.img.Bounds()
	size := c.Size()
	return grid.Fit(b.Dx(), b.Dy(), float64(size.Width), float64(size.Height))
}

func (c *GridCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.grab(ev.Position)
}

func (c *GridCanvas) MouseUp(*desktop.MouseEvent) {
	if !c.dragStarted {
		c.release()
	}
}

func (c *GridCanvas) Dragged(ev *fyne.DragEvent) {
	if !c.dragStarted {
		c.dragStarted = true
		// Touch input has no MouseDown; grab where the drag began.
		if c.grabbed == nil {
			c.grab(ev.Position.Subtract(ev.Dragged))
		}
	}
	if c.grabbed == nil {
		return
	}

	vp := c.Viewport()
	if vp.Empty() {
		return
	}
	// The line stays put while the pointer is over the margins.
	nx, ny, inside := vp.Normalize(float64(ev.Position.X), float64(ev.Position.Y))
	if !inside {
		return
	}
	if !c.lines.MoveTo(*c.grabbed, nx, ny) {
		return
	}
	c.Refresh()
	if c.OnLinesChanged != nil {
		c.OnLinesChanged(c.lines.Clone())
	}
}

func (c *GridCanvas) DragEnd() {
	held := c.grabbed != nil
	c.release()
	if held && c.OnDragEnd != nil {
		c.OnDragEnd()
	}
}

func (c *GridCanvas) Tapped(ev *fyne.PointEvent) {
	if !c.cut || c.OnTileTapped == nil {
		return
	}
	size := c.layout.Size()
	ix, iy, inside := c.Viewport().ToImage(float64(ev.Position.X), float64(ev.Position.Y), size.X, size.Y)
	if !inside {
		return
	}
	row, col, ok := c.layout.TileAt(int(ix), int(iy))
	if !ok {
		return
	}
	c.OnTileTapped(c.layout.Index(row, col))
}

func (c *GridCanvas) grab(pos fyne.Position) {
	c.grabbed = nil
	if c.cut || c.img == nil {
		return
	}
	nx, ny, inside := c.Viewport().Normalize(float64(pos.X), float64(pos.Y))
	if !inside {
		return
	}
	if ref, ok := c.lines.HitTest(nx, ny, grid.DefaultTolerance); ok {
		c.grabbed = &ref
	}
}

func (c *GridCanvas) release() {
	c.grabbed = nil
	c.dragStarted = false
}

// Grabbed reports the line currently held, if any.
func (c *GridCanvas) Grabbed() (grid.LineRef, bool) {
	if c.grabbed == nil {
		return grid.LineRef{}, false
	}
	return *c.grabbed, true
}

func (c *GridCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &gridCanvasRenderer{
		canvas:     c,
		background: canvas.NewRectangle(backgroundColor),
		image:      canvas.NewImageFromImage(nil),
	}
	r.image.FillMode = canvas.ImageFillStretch
	r.image.ScaleMode = canvas.ImageScaleSmooth
	r.rebuild()
	return r
}

type gridCanvasRenderer struct {
	canvas     *GridCanvas
	background *canvas.Rectangle
	image      *canvas.Image
	overlay    []fyne.CanvasObject
	objects    []fyne.CanvasObject
}

func (r *gridCanvasRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.background.Move(fyne.NewPos(0, 0))
	r.rebuild()
}

func (r *gridCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(CanvasMinWidth, CanvasMinHeight)
}

func (r *gridCanvasRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.canvas)
}

func (r *gridCanvasRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *gridCanvasRenderer) Destroy() {}

// rebuild positions the image in its viewport and regenerates the overlay.
func (r *gridCanvasRenderer) rebuild() {
	c := r.canvas
	vp := c.Viewport()

	r.image.Image = c.img
	if c.img == nil || vp.Empty() {
		r.image.Hide()
	} else {
		r.image.Show()
		r.image.Move(fyne.NewPos(float32(vp.X), float32(vp.Y)))
		r.image.Resize(fyne.NewSize(float32(vp.W), float32(vp.H)))
	}
	r.image.Refresh()

	r.overlay = r.overlay[:0]
	if c.img != nil && !vp.Empty() {
		if c.cut {
			r.buildBadges(vp)
		} else {
			r.buildLines(vp)
		}
	}

	r.objects = append([]fyne.CanvasObject{r.background, r.image}, r.overlay...)
}

func (r *gridCanvasRenderer) buildLines(vp grid.Viewport) {
	c := r.canvas
	for i := range c.lines.H {
		ref := grid.LineRef{Orientation: grid.Horizontal, Index: i}
		pos, _ := c.lines.Position(ref)
		_, y := vp.Denormalize(0, pos)
		r.addLine(fyne.NewPos(float32(vp.X), float32(y)), fyne.NewPos(float32(vp.X+vp.W), float32(y)))
		r.addLabel(grid.Label(ref, c.lines, c.srcW, c.srcH), fyne.NewPos(float32(vp.X)+4, float32(y)-labelTextSize-4))
	}
	for i := range c.lines.V {
		ref := grid.LineRef{Orientation: grid.Vertical, Index: i}
		pos, _ := c.lines.Position(ref)
		x, _ := vp.Denormalize(pos, 0)
		r.addLine(fyne.NewPos(float32(x), float32(vp.Y)), fyne.NewPos(float32(x), float32(vp.Y+vp.H)))
		r.addLabel(grid.Label(ref, c.lines, c.srcW, c.srcH), fyne.NewPos(float32(x)+4, float32(vp.Y)+4))
	}
}

func (r *gridCanvasRenderer) addLine(from, to fyne.Position) {
	line := canvas.NewLine(lineColor)
	line.StrokeWidth = lineStrokeWidth
	line.Position1 = from
	line.Position2 = to
	r.overlay = append(r.overlay, line)
}

func (r *gridCanvasRenderer) addLabel(text string, pos fyne.Position) {
	label := canvas.NewText(text, labelColor)
	label.TextSize = labelTextSize
	label.TextStyle = fyne.TextStyle{Bold: true}
	label.Move(pos)
	label.Resize(label.MinSize())
	r.overlay = append(r.overlay, label)
}

func (r *gridCanvasRenderer) buildBadges(vp grid.Viewport) {
	c := r.canvas
	if len(c.statuses) == 0 {
		return
	}

	idx := 0
	for _, row := range c.layout.Rects() {
		for _, rect := range row {
			status, ok := c.statuses[idx]
			idx++
			if !ok {
				continue
			}

			text := canvas.NewText(status.String(), badgeColor(status))
			text.TextSize = badgeTextSize
			text.TextStyle = fyne.TextStyle{Bold: true}
			textSize := text.MinSize()

			x := float32(vp.X + float64(rect.Min.X)*vp.Zoom + 4)
			y := float32(vp.Y + float64(rect.Min.Y)*vp.Zoom + 4)

			bg := canvas.NewRectangle(badgeBackground)
			bg.CornerRadius = 3
			bg.Move(fyne.NewPos(x-2, y-1))
			bg.Resize(fyne.NewSize(textSize.Width+4, textSize.Height+2))

			text.Move(fyne.NewPos(x, y))
			text.Resize(textSize)

			r.overlay = append(r.overlay, bg, text)
		}
	}
}

func badgeColor(s models.TileStatus) color.Color {
	switch s {
	case models.TileDone:
		return theme.Color(theme.ColorNameSuccess)
	case models.TileFailed:
		return theme.Color(theme.ColorNameError)
	case models.TileCancelled:
		return theme.Color(theme.ColorNameWarning)
	default:
		return color.White
	}
}
