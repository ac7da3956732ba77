package controllers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"grid-splitter/internal/grid"
	"grid-splitter/internal/logger"
	"grid-splitter/internal/models"
	"grid-splitter/internal/services"
	"grid-splitter/internal/storage"
	"grid-splitter/internal/views"
	"grid-splitter/internal/views/components"

	"fyne.io/fyne/v2"
)

const (
	loadTimeout = 30 * time.Second
	saveTimeout = 5 * time.Minute
)

// SinkFactory builds the destination for files written into a chosen local
// folder. kind is "split" for saved tiles and "upscaled" for upscale results.
type SinkFactory func(ctx context.Context, dir, kind string) (storage.Sink, error)

// MainController wires view events to the image and upscale services
type MainController struct {
	ctx context.Context

	imageService   *services.ImageService
	upscaleService *services.UpscaleService

	imageRepo   *models.ImageRepository
	upscaleRepo *models.UpscaleStateRepository

	sinkFactory SinkFactory
	logger      logger.Logger

	mainView *views.MainView
	// confirm asks a yes/no question; set from the view.
	confirm func(title, message string, callback func(bool))

	mu   sync.RWMutex
	busy bool
}

// NewMainController creates a new main controller. ctx bounds background
// work and is cancelled on shutdown.
func NewMainController(
	ctx context.Context,
	imageService *services.ImageService,
	upscaleService *services.UpscaleService,
	imageRepo *models.ImageRepository,
	upscaleRepo *models.UpscaleStateRepository,
	sinkFactory SinkFactory,
	log logger.Logger,
) *MainController {
	mc := &MainController{
		ctx:            ctx,
		imageService:   imageService,
		upscaleService: upscaleService,
		imageRepo:      imageRepo,
		upscaleRepo:    upscaleRepo,
		sinkFactory:    sinkFactory,
		logger:         log,
	}

	upscaleService.OnUpdate(mc.onUpscaleUpdate)
	return mc
}

// SetMainView associates the main view with this controller
func (mc *MainController) SetMainView(view *views.MainView) {
	mc.mainView = view
	mc.confirm = view.ShowConfirm
	mc.setupViewEventHandlers()
	mc.refreshToolbar()
}

func (mc *MainController) setupViewEventHandlers() {
	mc.mainView.SetSelectImageHandler(mc.SelectImage)
	mc.mainView.SetCutHandler(mc.Cut)
	mc.mainView.SetUndoHandler(mc.Undo)
	mc.mainView.SetSaveHandler(mc.Save)
	mc.mainView.SetUpscaleHandler(mc.Upscale)
	mc.mainView.SetCancelHandler(mc.CancelUpscale)
	mc.mainView.SetLinesChangedHandler(mc.LinesChanged)
	mc.mainView.SetDragEndHandler(mc.DragEnded)
	mc.mainView.SetTileTappedHandler(mc.TileTapped)
}

// SelectImage opens the file dialog at the last used folder
func (mc *MainController) SelectImage() {
	mc.mainView.ShowOpenDialog(mc.imageRepo.LastFolder(), services.SupportedExtensions, func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mc.handleError("File selection failed", err)
			return
		}
		if reader == nil {
			return
		}
		go mc.loadFromReader(reader)
	})
}

// OpenPath loads an image given on the command line
func (mc *MainController) OpenPath(path string) {
	go func() {
		ctx, cancel := context.WithTimeout(mc.ctx, loadTimeout)
		defer cancel()

		if err := mc.LoadPath(ctx, path); err != nil {
			mc.handleError("Image load failed", err)
		}
	}()
}

// LoadPath loads an image file and shows it in preview mode
func (mc *MainController) LoadPath(ctx context.Context, path string) error {
	mc.mainView.UpdateStatus("Loading image...")
	data, err := mc.imageService.LoadImage(ctx, path)
	if err != nil {
		mc.mainView.UpdateStatus("Ready")
		return err
	}
	mc.imageLoaded(data)
	return nil
}

func (mc *MainController) loadFromReader(reader fyne.URIReadCloser) {
	ctx, cancel := context.WithTimeout(mc.ctx, loadTimeout)
	defer cancel()

	mc.mainView.UpdateStatus("Loading image...")
	data, err := mc.imageService.LoadImageFromReader(ctx, reader)
	if err != nil {
		mc.mainView.UpdateStatus("Ready")
		mc.handleError("Image load failed", err)
		return
	}
	mc.imageLoaded(data)
}

func (mc *MainController) imageLoaded(data *models.ImageData) {
	mc.upscaleRepo.Reset()
	mc.mainView.UpdateUpscaleState(mc.upscaleRepo.GetState())
	mc.mainView.ShowPreview(data, mc.imageRepo.Lines())
	mc.mainView.UpdateStatus(fmt.Sprintf("Loaded %s", filepath.Base(data.Path)))
	mc.refreshToolbar()
}

// Cut crops the image along the lines and shows the tiles
func (mc *MainController) Cut() {
	tiles, err := mc.imageService.Cut(mc.ctx)
	if err != nil {
		mc.handleError("Cut failed", err)
		return
	}

	composite, layout := mc.imageService.ComposeCut(tiles, grid.DefaultGap)
	if composite == nil {
		mc.imageService.Undo()
		mc.handleError("Cut failed", errors.New("the grid produced no tiles"))
		return
	}

	mc.upscaleRepo.Reset()
	mc.mainView.UpdateUpscaleState(mc.upscaleRepo.GetState())
	mc.mainView.ShowCut(composite, layout)
	mc.mainView.UpdateStatus(fmt.Sprintf("Cut into %d tiles", len(tiles)))
	mc.refreshToolbar()
}

// Undo returns from the cut view to line editing
func (mc *MainController) Undo() {
	if mc.upscaleService.IsRunning() {
		return
	}

	mc.imageService.Undo()
	mc.upscaleRepo.Reset()
	mc.mainView.UpdateUpscaleState(mc.upscaleRepo.GetState())

	if original := mc.imageRepo.GetOriginalImage(); original != nil {
		mc.mainView.ShowPreview(original, mc.imageRepo.Lines())
	}
	mc.mainView.UpdateStatus("Cut undone")
	mc.refreshToolbar()
}

// Save asks for a folder and writes every tile as split_image_N.jpg
func (mc *MainController) Save() {
	if mc.imageRepo.GetOriginalImage() == nil {
		mc.mainView.ShowInfo("Error", "No image loaded. Please select an image first.")
		return
	}

	mc.mainView.ShowFolderDialog(mc.imageRepo.LastFolder(), func(dir fyne.ListableURI, err error) {
		if err != nil {
			mc.handleError("Folder selection failed", err)
			return
		}
		if dir == nil {
			mc.mainView.UpdateStatus("Saving cancelled")
			return
		}
		go mc.SaveTo(dir.Path())
	})
}

// SaveTo writes the tiles into dir and reports the result in a dialog
func (mc *MainController) SaveTo(dir string) error {
	mc.imageRepo.SetLastFolder(dir)
	mc.setBusy(true)
	defer mc.setBusy(false)

	ctx, cancel := context.WithTimeout(mc.ctx, saveTimeout)
	defer cancel()

	mc.mainView.UpdateStatus("Saving tiles...")
	err := mc.saveTiles(ctx, dir)
	if err != nil {
		message := SaveErrorMessage(err)
		mc.logger.Error("MainController", err, map[string]interface{}{"dir": dir})
		mc.mainView.UpdateStatus("Save failed")
		mc.mainView.ShowError(errors.New(message))
		return err
	}

	message := SaveSuccessMessage(dir)
	mc.mainView.UpdateStatus(message)
	mc.mainView.ShowInfo("Success", message)
	return nil
}

func (mc *MainController) saveTiles(ctx context.Context, dir string) error {
	tiles, err := mc.imageService.TilesToSave(ctx)
	if err != nil {
		return err
	}
	sink, err := mc.sinkFactory(ctx, dir, "split")
	if err != nil {
		return err
	}
	_, err = mc.imageService.SaveTiles(ctx, sink, tiles)
	return err
}

func SaveSuccessMessage(dir string) string {
	return fmt.Sprintf("Images successfully saved to %s", dir)
}

func SaveErrorMessage(err error) string {
	return fmt.Sprintf("Error saving images: %v", err)
}

// Upscale asks for an output folder and starts a run over the cut tiles
func (mc *MainController) Upscale() {
	if !mc.imageRepo.IsCut() || mc.upscaleService.IsRunning() {
		return
	}

	mc.mainView.ShowFolderDialog(mc.imageRepo.LastFolder(), func(dir fyne.ListableURI, err error) {
		if err != nil {
			mc.handleError("Folder selection failed", err)
			return
		}
		if dir == nil {
			return
		}
		go func() {
			if err := mc.StartUpscale(dir.Path()); err != nil {
				mc.handleError("Upscale failed", err)
			}
		}()
	})
}

// StartUpscale begins upscaling the cut tiles into dir
func (mc *MainController) StartUpscale(dir string) error {
	mc.imageRepo.SetLastFolder(dir)

	sink, err := mc.sinkFactory(mc.ctx, dir, "upscaled")
	if err != nil {
		return err
	}

	tiles := mc.imageRepo.Tiles()
	if _, err := mc.upscaleService.Start(mc.ctx, tiles, sink); err != nil {
		return err
	}

	mc.mainView.UpdateStatus(fmt.Sprintf("Upscaling %d tiles...", len(tiles)))
	mc.refreshToolbar()
	return nil
}

// CancelUpscale stops the active run
func (mc *MainController) CancelUpscale() {
	if !mc.upscaleService.IsRunning() {
		return
	}
	mc.upscaleService.Cancel()
	mc.mainView.UpdateStatus("Cancelling upscale...")
}

// onUpscaleUpdate runs on the upscale worker goroutine
func (mc *MainController) onUpscaleUpdate(state models.UpscaleState) {
	mc.mainView.UpdateUpscaleState(state)
	if state.IsActive {
		return
	}

	counts := state.Counts()
	mc.mainView.UpdateStatus(fmt.Sprintf("Upscale %s: %d done, %d failed, %d cancelled",
		state.Stage, counts[models.TileDone], counts[models.TileFailed], counts[models.TileCancelled]))
	mc.refreshToolbar()
}

// LinesChanged stores lines moved on the canvas
func (mc *MainController) LinesChanged(lines grid.Lines) {
	mc.imageRepo.UpdateLines(func(l *grid.Lines) {
		*l = lines.Clone()
	})

	if original := mc.imageRepo.GetOriginalImage(); original != nil {
		mc.mainView.UpdateLinesInfo(lines, original.Width, original.Height)
	}
}

func (mc *MainController) DragEnded() {
	lines := mc.imageRepo.Lines()
	mc.logger.Debug("MainController", "lines moved", map[string]interface{}{
		"h": lines.H,
		"v": lines.V,
	})
}

// TileTapped shows the source rectangle and upscale status of a tile
func (mc *MainController) TileTapped(index int) {
	tiles := mc.imageRepo.Tiles()
	if index < 0 || index >= len(tiles) {
		return
	}
	tile := tiles[index]

	message := fmt.Sprintf("Row %d, column %d\nSource: (%d, %d) to (%d, %d)\nSize: %dx%d",
		tile.Row+1, tile.Col+1,
		tile.Bounds.Min.X, tile.Bounds.Min.Y, tile.Bounds.Max.X, tile.Bounds.Max.Y,
		tile.Bounds.Dx(), tile.Bounds.Dy())

	for _, p := range mc.upscaleRepo.GetState().Tiles {
		if p.Index != tile.Index {
			continue
		}
		message += "\nUpscale: " + p.Status.String()
		if p.Output != "" {
			message += "\nOutput: " + p.Output
		}
		if p.Status == models.TileFailed && p.Message != "" {
			message += "\nError: " + p.Message
		}
	}

	mc.mainView.ShowInfo(fmt.Sprintf("Tile %d", tile.Index), message)
}

// HandleCloseRequest asks before quitting while an upscale is active
func (mc *MainController) HandleCloseRequest(closeWindow func()) {
	if !mc.upscaleService.IsRunning() {
		closeWindow()
		return
	}

	mc.confirm("Upscale in progress",
		"An upscale run is still active. Cancel it and quit?",
		func(ok bool) {
			if !ok {
				return
			}
			mc.upscaleService.Cancel()
			closeWindow()
		})
}

// ToolbarState derives button enabling from the current session
func (mc *MainController) ToolbarState() components.ToolbarState {
	mc.mu.RLock()
	busy := mc.busy
	mc.mu.RUnlock()

	return components.ToolbarState{
		HasImage:       mc.imageRepo.GetOriginalImage() != nil,
		IsCut:          mc.imageRepo.IsCut(),
		UpscaleEnabled: mc.upscaleService.Enabled(),
		Upscaling:      mc.upscaleService.IsRunning(),
		Busy:           busy,
	}
}

func (mc *MainController) refreshToolbar() {
	if mc.mainView != nil {
		mc.mainView.ApplyToolbarState(mc.ToolbarState())
	}
}

func (mc *MainController) setBusy(busy bool) {
	mc.mu.Lock()
	mc.busy = busy
	mc.mu.Unlock()
	mc.refreshToolbar()
}

// handleError logs the error and shows it in a dialog
func (mc *MainController) handleError(title string, err error) {
	mc.logger.Error("MainController", err, map[string]interface{}{"context": title})
	if mc.mainView != nil {
		mc.mainView.ShowError(fmt.Errorf("%s: %w", title, err))
	}
}

// Shutdown stops the upscale worker and releases session state
func (mc *MainController) Shutdown() {
	mc.upscaleService.Shutdown()
	mc.imageService.Cleanup()
}
