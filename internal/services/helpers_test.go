package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"grid-splitter/internal/logger"
	"grid-splitter/internal/models"
	"grid-splitter/internal/opencv/memory"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// memSink keeps written objects in memory.
type memSink struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newMemSink() *memSink {
	return &memSink{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memSink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	m.objects[name] = append([]byte(nil), data...)
	m.types[name] = contentType
	return "mem://" + name, nil
}

func (m *memSink) String() string { return "memory" }

func (m *memSink) get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	return data, ok
}

var errSinkDown = errors.New("sink unavailable")

// gradient colours each pixel by its coordinates so crops can be checked.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.png")
	require.NoError(t, imaging.Save(gradient(w, h), path))
	return path
}

func newTestImageService(t *testing.T) (*ImageService, *models.ImageRepository) {
	t.Helper()
	log := logger.Nop()
	repo := models.NewImageRepository("")
	mgr := memory.NewManager(log)
	t.Cleanup(mgr.Shutdown)
	return NewImageService(mgr, repo, 100, log), repo
}

func testTiles(n int) []models.Tile {
	tiles := make([]models.Tile, n)
	for i := range tiles {
		tiles[i] = models.Tile{
			Index:  i + 1,
			Col:    i,
			Bounds: image.Rect(i*4, 0, i*4+4, 4),
			Image:  gradient(4, 4),
		}
	}
	return tiles
}
