package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"grid-splitter/internal/grid"
	"grid-splitter/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImage(t *testing.T) {
	svc, repo := newTestImageService(t)
	path := writeTestImage(t, 1200, 800)

	data, err := svc.LoadImage(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1200, data.Width)
	assert.Equal(t, 800, data.Height)
	assert.Equal(t, "png", data.Format)

	dw, dh := data.DisplaySize()
	assert.Equal(t, 900, dw)
	assert.Equal(t, 600, dh)

	assert.Same(t, data, repo.GetOriginalImage())
	assert.Equal(t, filepath.Dir(path), repo.LastFolder())
	assert.Equal(t, grid.DefaultLines(), repo.Lines())
	assert.False(t, repo.IsCut())
}

func TestLoadImageKeepsSmallImagesAtSize(t *testing.T) {
	svc, _ := newTestImageService(t)

	data, err := svc.LoadImage(context.Background(), writeTestImage(t, 300, 200))
	require.NoError(t, err)

	dw, dh := data.DisplaySize()
	assert.Equal(t, 300, dw)
	assert.Equal(t, 200, dh)
}

func TestLoadImageErrors(t *testing.T) {
	svc, repo := newTestImageService(t)

	_, err := svc.LoadImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = svc.LoadImage(context.Background(), garbage)
	assert.Error(t, err)

	assert.Nil(t, repo.GetOriginalImage())
}

func TestLoadImageCancelled(t *testing.T) {
	svc, _ := newTestImageService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.LoadImage(ctx, writeTestImage(t, 10, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCutDefaultGrid(t *testing.T) {
	svc, repo := newTestImageService(t)
	_, err := svc.LoadImage(context.Background(), writeTestImage(t, 1200, 800))
	require.NoError(t, err)

	tiles, err := svc.Cut(context.Background())
	require.NoError(t, err)
	require.Len(t, tiles, 16)

	assert.Equal(t, image.Rect(0, 0, 300, 200), tiles[0].Bounds)
	assert.Equal(t, image.Rect(900, 600, 1200, 800), tiles[15].Bounds)
	for i, tile := range tiles {
		assert.Equal(t, i+1, tile.Index)
		assert.Equal(t, tile.Bounds.Size(), tile.Image.Bounds().Size())
	}

	// Crops carry the source pixels.
	r, g, _, _ := tiles[5].Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(300%256), r>>8)
	assert.Equal(t, uint32(200), g>>8)

	assert.True(t, repo.IsCut())
	assert.Len(t, repo.Tiles(), 16)
}

func TestCutWithoutImage(t *testing.T) {
	svc, _ := newTestImageService(t)
	_, err := svc.Cut(context.Background())
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestUndo(t *testing.T) {
	svc, repo := newTestImageService(t)
	_, err := svc.LoadImage(context.Background(), writeTestImage(t, 100, 100))
	require.NoError(t, err)

	repo.UpdateLines(func(l *grid.Lines) { l.H[0] = 0.1 })
	_, err = svc.Cut(context.Background())
	require.NoError(t, err)

	svc.Undo()
	assert.False(t, repo.IsCut())
	assert.Empty(t, repo.Tiles())
	assert.Equal(t, 0.1, repo.Lines().H[0])
}

func TestComposeCut(t *testing.T) {
	svc, _ := newTestImageService(t)
	_, err := svc.LoadImage(context.Background(), writeTestImage(t, 1200, 800))
	require.NoError(t, err)
	tiles, err := svc.Cut(context.Background())
	require.NoError(t, err)

	composite, layout := svc.ComposeCut(tiles, grid.DefaultGap)
	require.NotNil(t, composite)

	assert.Equal(t, image.Pt(1215, 815), composite.Bounds().Size())
	assert.Equal(t, layout.Size(), composite.Bounds().Size())

	// Gap pixels stay white.
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, color.NRGBAModel.Convert(composite.At(302, 10)))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, color.NRGBAModel.Convert(composite.At(10, 202)))

	// Tile (0,1) starts after one tile and one gap.
	got := color.NRGBAModel.Convert(composite.At(305, 0)).(color.NRGBA)
	assert.Equal(t, uint8(300%256), got.R)
	assert.Equal(t, uint8(0), got.G)

	row, col, ok := layout.TileAt(305, 0)
	require.True(t, ok)
	assert.Equal(t, 0, row)
	assert.Equal(t, 1, col)
}

func TestComposeCutEmpty(t *testing.T) {
	svc, _ := newTestImageService(t)
	composite, _ := svc.ComposeCut(nil, grid.DefaultGap)
	assert.Nil(t, composite)
}

func TestTilesToSavePreviewMatchesCut(t *testing.T) {
	svc, _ := newTestImageService(t)
	_, err := svc.LoadImage(context.Background(), writeTestImage(t, 1200, 800))
	require.NoError(t, err)

	preview, err := svc.TilesToSave(context.Background())
	require.NoError(t, err)

	cut, err := svc.Cut(context.Background())
	require.NoError(t, err)
	require.Len(t, preview, len(cut))

	for i := range cut {
		p, c := preview[i].Bounds, cut[i].Bounds
		assert.InDelta(t, c.Min.X, p.Min.X, 1)
		assert.InDelta(t, c.Min.Y, p.Min.Y, 1)
		assert.InDelta(t, c.Max.X, p.Max.X, 1)
		assert.InDelta(t, c.Max.Y, p.Max.Y, 1)
	}

	// Once cut, the stored tiles are returned.
	saved, err := svc.TilesToSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cut, saved)
}

func TestTilesToSaveWithoutImage(t *testing.T) {
	svc, _ := newTestImageService(t)
	_, err := svc.TilesToSave(context.Background())
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestSaveTilesToDirectory(t *testing.T) {
	svc, _ := newTestImageService(t)
	_, err := svc.LoadImage(context.Background(), writeTestImage(t, 400, 200))
	require.NoError(t, err)
	tiles, err := svc.Cut(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	sink, err := storage.NewDirSink(dir)
	require.NoError(t, err)

	locations, err := svc.SaveTiles(context.Background(), sink, tiles)
	require.NoError(t, err)
	require.Len(t, locations, 16)

	for i := range tiles {
		assert.Equal(t, filepath.Join(dir, TileFileName(i+1)), locations[i])
	}

	data, err := os.ReadFile(filepath.Join(dir, "split_image_1.jpg"))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestSaveTilesErrors(t *testing.T) {
	svc, _ := newTestImageService(t)

	_, err := svc.SaveTiles(context.Background(), newMemSink(), nil)
	assert.ErrorIs(t, err, ErrNoTiles)

	sink := newMemSink()
	sink.fail = errSinkDown
	_, err = svc.SaveTiles(context.Background(), sink, testTiles(3))
	assert.ErrorIs(t, err, errSinkDown)
}

func TestSaveTilesContentType(t *testing.T) {
	svc, _ := newTestImageService(t)
	sink := newMemSink()

	_, err := svc.SaveTiles(context.Background(), sink, testTiles(2))
	require.NoError(t, err)

	_, ok := sink.get("split_image_2.jpg")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", sink.types["split_image_1.jpg"])
}
