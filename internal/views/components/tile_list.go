package components

import (
	"fmt"

	"grid-splitter/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

const tileListWidth = 240

// TileList shows one row per tile of the current upscale run
type TileList struct {
	list  *widget.List
	tiles []models.TileProgress

	OnSelected func(index int)
}

func NewTileList() *TileList {
	tl := &TileList{}
	tl.list = widget.NewList(
		func() int { return len(tl.tiles) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("Tile 00: Downloading")
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(tl.tiles) {
				return
			}
			obj.(*widget.Label).SetText(FormatTileProgress(tl.tiles[id]))
		},
	)
	tl.list.OnSelected = func(id widget.ListItemID) {
		if tl.OnSelected != nil && id >= 0 && id < len(tl.tiles) {
			tl.OnSelected(tl.tiles[id].Index)
		}
	}
	return tl
}

// SetTiles replaces the rows. Must run on the UI thread.
func (tl *TileList) SetTiles(tiles []models.TileProgress) {
	tl.tiles = tiles
	tl.list.Refresh()
}

func (tl *TileList) Len() int { return len(tl.tiles) }

func (tl *TileList) Widget() fyne.CanvasObject { return tl.list }

func (tl *TileList) MinWidth() float32 { return tileListWidth }

// FormatTileProgress is the text of one row.
func FormatTileProgress(p models.TileProgress) string {
	text := fmt.Sprintf("Tile %d: %s", p.Index, p.Status)
	if p.Status == models.TileFailed && p.Message != "" {
		text += " (" + p.Message + ")"
	}
	return text
}
