package views

import (
	"fmt"
	"image"

	"grid-splitter/internal/grid"
	"grid-splitter/internal/models"
	"grid-splitter/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

const (
	WindowTitle  = "Image Splitter"
	WindowWidth  = 1000
	WindowHeight = 800
)

// MainView is the splitter window: toolbar, grid canvas, tile list and
// status area. Exported methods may be called from any goroutine.
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	toolbar       *components.Toolbar
	gridCanvas    *components.GridCanvas
	tileList      *components.TileList
	tilePanel     *fyne.Container
	statusBar     *components.StatusBar
	progressBar   *components.ProgressBar

	linesChangedHandler func(grid.Lines)
	dragEndHandler      func()
	tileTappedHandler   func(int)
}

// NewMainView creates a new main view
func NewMainView(window fyne.Window) *MainView {
	view := &MainView{
		window: window,
	}

	view.initializeComponents()
	view.buildLayout()
	view.setupEventHandlers()

	return view
}

func (mv *MainView) initializeComponents() {
	mv.toolbar = components.NewToolbar()
	mv.gridCanvas = components.NewGridCanvas()
	mv.tileList = components.NewTileList()
	mv.statusBar = components.NewStatusBar()
	mv.progressBar = components.NewProgressBar()
}

func (mv *MainView) buildLayout() {
	mv.tilePanel = container.NewGridWrap(
		fyne.NewSize(mv.tileList.MinWidth(), components.CanvasMinHeight),
		mv.tileList.Widget(),
	)
	mv.tilePanel.Hide()

	topArea := container.NewVBox(
		mv.toolbar.GetContainer(),
		mv.progressBar.GetContainer(),
	)

	mv.mainContainer = container.NewBorder(
		topArea,
		mv.statusBar.GetContainer(),
		nil,
		mv.tilePanel,
		mv.gridCanvas,
	)

	mv.window.SetContent(mv.mainContainer)
}

// setupEventHandlers forwards canvas events; canvas callbacks already run
// on the UI thread.
func (mv *MainView) setupEventHandlers() {
	mv.gridCanvas.OnLinesChanged = func(lines grid.Lines) {
		if mv.linesChangedHandler != nil {
			mv.linesChangedHandler(lines)
		}
	}
	mv.gridCanvas.OnDragEnd = func() {
		if mv.dragEndHandler != nil {
			mv.dragEndHandler()
		}
	}
	mv.gridCanvas.OnTileTapped = func(index int) {
		if mv.tileTappedHandler != nil {
			mv.tileTappedHandler(index)
		}
	}
	mv.tileList.OnSelected = func(tileIndex int) {
		if mv.tileTappedHandler != nil {
			mv.tileTappedHandler(tileIndex - 1)
		}
	}
}

// Event handler setters - called by controller

func (mv *MainView) SetSelectImageHandler(handler func()) { mv.toolbar.SetSelectHandler(handler) }
func (mv *MainView) SetCutHandler(handler func())         { mv.toolbar.SetCutHandler(handler) }
func (mv *MainView) SetUndoHandler(handler func())        { mv.toolbar.SetUndoHandler(handler) }
func (mv *MainView) SetSaveHandler(handler func())        { mv.toolbar.SetSaveHandler(handler) }
func (mv *MainView) SetUpscaleHandler(handler func())     { mv.toolbar.SetUpscaleHandler(handler) }
func (mv *MainView) SetCancelHandler(handler func())      { mv.toolbar.SetCancelHandler(handler) }

func (mv *MainView) SetLinesChangedHandler(handler func(grid.Lines)) {
	mv.linesChangedHandler = handler
}

func (mv *MainView) SetDragEndHandler(handler func()) {
	mv.dragEndHandler = handler
}

// SetTileTappedHandler receives 0-based tile positions
func (mv *MainView) SetTileTappedHandler(handler func(int)) {
	mv.tileTappedHandler = handler
}

// UI update methods - called by controller

// ShowPreview displays the thumbnail with editable lines
func (mv *MainView) ShowPreview(data *models.ImageData, lines grid.Lines) {
	fyne.Do(func() {
		mv.gridCanvas.SetPreview(data.Display, data.Width, data.Height, lines)
		mv.statusBar.SetImageInfo(data.Width, data.Height, data.Format)
		mv.statusBar.SetLines(lines, data.Width, data.Height)
	})
}

// ShowCut displays the cut composite
func (mv *MainView) ShowCut(composite image.Image, layout grid.CutLayout) {
	fyne.Do(func() {
		mv.gridCanvas.SetCut(composite, layout)
	})
}

func (mv *MainView) UpdateLinesInfo(lines grid.Lines, srcW, srcH int) {
	fyne.Do(func() {
		mv.statusBar.SetLines(lines, srcW, srcH)
	})
}

func (mv *MainView) UpdateStatus(status string) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(status)
	})
}

func (mv *MainView) ApplyToolbarState(state components.ToolbarState) {
	fyne.Do(func() {
		mv.toolbar.Apply(state)
	})
}

// UpdateUpscaleState refreshes progress, the tile list and canvas badges
func (mv *MainView) UpdateUpscaleState(state models.UpscaleState) {
	fyne.Do(func() {
		total := len(state.Tiles)
		counts := state.Counts()
		finished := counts[models.TileDone] + counts[models.TileFailed] + counts[models.TileCancelled]

		mv.progressBar.SetProgress(state.Progress())
		mv.progressBar.SetStage(fmt.Sprintf("%s %d/%d", state.Stage, finished, total))
		mv.progressBar.SetVisible(state.IsActive)

		mv.tileList.SetTiles(state.Tiles)
		if total > 0 {
			mv.tilePanel.Show()
		} else {
			mv.tilePanel.Hide()
		}

		// Run tiles are in display order, so list position is badge position.
		var badges map[int]models.TileStatus
		if total > 0 && mv.gridCanvas.IsCut() {
			badges = make(map[int]models.TileStatus, total)
			for i, t := range state.Tiles {
				badges[i] = t.Status
			}
		}
		mv.gridCanvas.SetTileStatuses(badges)
	})
}

func (mv *MainView) ShowError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, mv.window)
	})
}

func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

// ShowOpenDialog asks for an image file, starting in folder when it exists
func (mv *MainView) ShowOpenDialog(folder string, extensions []string, callback func(fyne.URIReadCloser, error)) {
	fyne.Do(func() {
		d := dialog.NewFileOpen(callback, mv.window)
		d.SetFilter(storage.NewExtensionFileFilter(extensions))
		if lister := listableFolder(folder); lister != nil {
			d.SetLocation(lister)
		}
		d.Resize(fyne.NewSize(WindowWidth*0.8, WindowHeight*0.8))
		d.Show()
	})
}

// ShowFolderDialog asks for the directory tiles are saved into
func (mv *MainView) ShowFolderDialog(folder string, callback func(fyne.ListableURI, error)) {
	fyne.Do(func() {
		d := dialog.NewFolderOpen(callback, mv.window)
		if lister := listableFolder(folder); lister != nil {
			d.SetLocation(lister)
		}
		d.Resize(fyne.NewSize(WindowWidth*0.8, WindowHeight*0.8))
		d.Show()
	})
}

func listableFolder(folder string) fyne.ListableURI {
	if folder == "" {
		return nil
	}
	lister, err := storage.ListerForURI(storage.NewFileURI(folder))
	if err != nil {
		return nil
	}
	return lister
}

func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

func (mv *MainView) GridCanvas() *components.GridCanvas {
	return mv.gridCanvas
}

// ResetView resets the view to initial state
func (mv *MainView) ResetView() {
	fyne.Do(func() {
		mv.gridCanvas.Clear()
		mv.statusBar.Reset()
		mv.progressBar.Reset()
		mv.tileList.SetTiles(nil)
		mv.tilePanel.Hide()
		mv.toolbar.Apply(components.ToolbarState{})
	})
}
