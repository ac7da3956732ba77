package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"grid-splitter/internal/grid"
	"grid-splitter/internal/logger"
	"grid-splitter/internal/models"
	"grid-splitter/internal/opencv/codec"
	"grid-splitter/internal/opencv/memory"
	"grid-splitter/internal/storage"

	"fyne.io/fyne/v2"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	DisplayMaxWidth  = 900
	DisplayMaxHeight = 700

	saveConcurrency = 4
	jpegContentType = "image/jpeg"
)

var (
	ErrNoImage = errors.New("no image loaded")
	ErrNoTiles = errors.New("no tiles to save")
)

// SupportedExtensions lists the file types offered in the open dialog
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

// ImageService handles image loading, cutting and saving
type ImageService struct {
	memoryManager *memory.Manager
	repository    *models.ImageRepository
	encoder       *codec.JPEGEncoder
	logger        logger.Logger
}

// NewImageService creates a new image service
func NewImageService(memMgr *memory.Manager, repo *models.ImageRepository, jpegQuality int, log logger.Logger) *ImageService {
	return &ImageService{
		memoryManager: memMgr,
		repository:    repo,
		encoder:       codec.NewJPEGEncoder(jpegQuality, memMgr),
		logger:        log,
	}
}

// LoadImage loads an image from a file path
func (is *ImageService) LoadImage(ctx context.Context, path string) (*models.ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return is.load(ctx, f, path)
}

// LoadImageFromReader loads an image from a URI reader and closes it
func (is *ImageService) LoadImageFromReader(ctx context.Context, reader fyne.URIReadCloser) (*models.ImageData, error) {
	defer reader.Close()
	return is.load(ctx, reader, reader.URI().Path())
}

func (is *ImageService) load(ctx context.Context, r io.Reader, path string) (*models.ImageData, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	startTime := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Fit never enlarges, so small images display at their own size.
	display := imaging.Fit(img, DisplayMaxWidth, DisplayMaxHeight, imaging.Lanczos)

	bounds := img.Bounds()
	imageData := &models.ImageData{
		Image:    img,
		Display:  display,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   determineFormat(filepath.Ext(path), format),
		Path:     path,
		LoadTime: time.Now(),
	}

	is.repository.SetOriginalImage(imageData)
	is.repository.ResetLines()
	if path != "" {
		is.repository.SetLastFolder(filepath.Dir(path))
	}

	dw, dh := imageData.DisplaySize()
	is.logger.Info("ImageService", "image loaded", map[string]interface{}{
		"path":        path,
		"format":      imageData.Format,
		"width":       imageData.Width,
		"height":      imageData.Height,
		"display_w":   dw,
		"display_h":   dh,
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return imageData, nil
}

// Cut crops the source image along the current lines and enters cut mode
func (is *ImageService) Cut(ctx context.Context) ([]models.Tile, error) {
	original := is.repository.GetOriginalImage()
	if original == nil {
		return nil, ErrNoImage
	}

	cells := is.repository.Lines().Cells(original.Width, original.Height)
	tiles, err := cropCells(ctx, original.Image, cells)
	if err != nil {
		return nil, err
	}

	is.repository.SetTiles(tiles)
	is.logger.Debug("ImageService", "image cut", map[string]interface{}{
		"tiles": len(tiles),
	})
	return tiles, nil
}

// Undo drops the cut tiles and returns to line editing
func (is *ImageService) Undo() {
	is.repository.ClearTiles()
}

// ComposeCut pastes tiles row by row onto a white canvas with gap pixels
// between them. It returns nil when there is nothing to draw.
func (is *ImageService) ComposeCut(tiles []models.Tile, gap int) (image.Image, grid.CutLayout) {
	cells := make([]grid.Cell, len(tiles))
	for i, t := range tiles {
		cells[i] = grid.Cell{Row: t.Row, Col: t.Col, Bounds: t.Bounds}
	}

	layout := grid.LayoutCells(cells, gap)
	size := layout.Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, layout
	}

	canvas := imaging.New(size.X, size.Y, color.White)
	rects := layout.Rects()
	k := 0
	for _, row := range rects {
		for _, r := range row {
			canvas = imaging.Paste(canvas, tiles[k].Image, r.Min)
			k++
		}
	}

	return canvas, layout
}

// TilesToSave returns the cut tiles, or when the image has not been cut,
// crops fresh tiles from the lines as edited over the display thumbnail.
func (is *ImageService) TilesToSave(ctx context.Context) ([]models.Tile, error) {
	original := is.repository.GetOriginalImage()
	if original == nil {
		return nil, ErrNoImage
	}

	if is.repository.IsCut() {
		return is.repository.Tiles(), nil
	}

	dw, dh := original.DisplaySize()
	xs, ys := is.repository.Lines().SourceBoundaries(dw, dh, original.Width, original.Height)
	return cropCells(ctx, original.Image, grid.CellsFrom(xs, ys))
}

// SaveTiles encodes every tile as JPEG and writes split_image_N.jpg to the
// sink. Names are returned in tile order.
func (is *ImageService) SaveTiles(ctx context.Context, sink storage.Sink, tiles []models.Tile) ([]string, error) {
	if len(tiles) == 0 {
		return nil, ErrNoTiles
	}

	startTime := time.Now()
	locations := make([]string, len(tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(saveConcurrency)

	for i, tile := range tiles {
		name := TileFileName(i + 1)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := is.encoder.Encode(tile.Image, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			loc, err := sink.Put(gctx, name, jpegContentType, data)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			locations[i] = loc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	is.logger.Info("ImageService", "tiles saved", map[string]interface{}{
		"count":       len(tiles),
		"destination": sink.String(),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})
	return locations, nil
}

// Stats returns session statistics for periodic logging
func (is *ImageService) Stats() models.ImageStats {
	return is.repository.GetImageStats()
}

// Cleanup releases resources
func (is *ImageService) Cleanup() {
	if is.repository != nil {
		is.repository.Shutdown()
	}
}

// TileFileName is the saved name of the 1-based tile n
func TileFileName(n int) string {
	return fmt.Sprintf("split_image_%d.jpg", n)
}

func cropCells(ctx context.Context, src image.Image, cells []grid.Cell) ([]models.Tile, error) {
	origin := src.Bounds().Min
	tiles := make([]models.Tile, 0, len(cells))
	for i, c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tiles = append(tiles, models.Tile{
			Index:  i + 1,
			Row:    c.Row,
			Col:    c.Col,
			Bounds: c.Bounds,
			Image:  imaging.Crop(src, c.Bounds.Add(origin)),
		})
	}
	return tiles, nil
}

func determineFormat(extension, detectedFormat string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".tiff", ".tif":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		if detectedFormat != "" {
			return detectedFormat
		}
		return "png"
	}
}
