package models

import (
	"image"
	"sync"
	"time"

	"grid-splitter/internal/grid"
)

// ImageData represents a loaded source image with its display thumbnail
type ImageData struct {
	Image    image.Image
	Display  image.Image
	Width    int
	Height   int
	Format   string
	Path     string
	LoadTime time.Time
}

// DisplaySize returns the thumbnail dimensions
func (d *ImageData) DisplaySize() (int, int) {
	if d == nil || d.Display == nil {
		return 0, 0
	}
	b := d.Display.Bounds()
	return b.Dx(), b.Dy()
}

// Tile is one cut piece of the source image
type Tile struct {
	Index  int // 1-based, row-major; used in file names
	Row    int
	Col    int
	Bounds image.Rectangle
	Image  image.Image
}

// ImageRepository manages the editing session: source image, guide lines
// and cut tiles
type ImageRepository struct {
	mu         sync.RWMutex
	original   *ImageData
	lines      grid.Lines
	tiles      []Tile
	isCut      bool
	lastFolder string
}

// NewImageRepository creates a repository with default lines
func NewImageRepository(startFolder string) *ImageRepository {
	return &ImageRepository{
		lines:      grid.DefaultLines(),
		lastFolder: startFolder,
	}
}

// SetOriginalImage stores a newly loaded image and leaves cut mode
func (r *ImageRepository) SetOriginalImage(img *ImageData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.original = img
	r.tiles = nil
	r.isCut = false
}

// GetOriginalImage retrieves the source image
func (r *ImageRepository) GetOriginalImage() *ImageData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.original
}

// Lines returns a copy of the current guide lines
func (r *ImageRepository) Lines() grid.Lines {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lines.Clone()
}

// UpdateLines applies fn to the guide lines under the write lock
func (r *ImageRepository) UpdateLines(fn func(*grid.Lines)) grid.Lines {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(&r.lines)
	return r.lines.Clone()
}

// ResetLines restores the default grid
func (r *ImageRepository) ResetLines() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines.Reset()
}

// SetTiles stores cut tiles and enters cut mode
func (r *ImageRepository) SetTiles(tiles []Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tiles = tiles
	r.isCut = true
}

// Tiles returns the cut tiles
func (r *ImageRepository) Tiles() []Tile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tiles := make([]Tile, len(r.tiles))
	copy(tiles, r.tiles)
	return tiles
}

// ClearTiles leaves cut mode, keeping the lines as they were
func (r *ImageRepository) ClearTiles() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tiles = nil
	r.isCut = false
}

// IsCut reports whether the image is displayed as cut tiles
func (r *ImageRepository) IsCut() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isCut
}

// LastFolder is where file dialogs open
func (r *ImageRepository) LastFolder() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastFolder
}

func (r *ImageRepository) SetLastFolder(folder string) {
	if folder == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFolder = folder
}

// ClearAll removes the image, tiles and line edits
func (r *ImageRepository) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.original = nil
	r.tiles = nil
	r.isCut = false
	r.lines.Reset()
}

// GetImageStats returns statistics about the session
func (r *ImageRepository) GetImageStats() ImageStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := ImageStats{
		HasOriginal: r.original != nil,
		IsCut:       r.isCut,
		TileCount:   len(r.tiles),
	}
	if r.original != nil {
		stats.SourcePixels = int64(r.original.Width) * int64(r.original.Height)
	}
	return stats
}

// ImageStats contains statistics about the image repository
type ImageStats struct {
	HasOriginal  bool
	IsCut        bool
	TileCount    int
	SourcePixels int64
}

// Shutdown releases all resources
func (r *ImageRepository) Shutdown() {
	r.ClearAll()
}
