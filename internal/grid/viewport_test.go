package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitLetterboxesWideImage(t *testing.T) {
	v := Fit(800, 400, 1000, 800)

	assert.Equal(t, 1.25, v.Zoom)
	assert.Equal(t, Rect{X: 0, Y: 150, W: 1000, H: 500}, v.Rect)
}

func TestFitPillarboxesTallImage(t *testing.T) {
	v := Fit(300, 600, 1000, 800)

	assert.InDelta(t, 400.0, v.W, 1e-9)
	assert.InDelta(t, 800.0, v.H, 1e-9)
	assert.InDelta(t, 300.0, v.X, 1e-9)
	assert.InDelta(t, 0.0, v.Y, 1e-9)
}

func TestFitDegenerate(t *testing.T) {
	assert.True(t, Fit(0, 10, 100, 100).Empty())
	assert.True(t, Fit(10, 10, 0, 100).Empty())
}

func TestNormalizeRoundTrip(t *testing.T) {
	v := Fit(800, 400, 1000, 800)

	nx, ny, inside := v.Normalize(500, 400)
	assert.True(t, inside)
	assert.InDelta(t, 0.5, nx, 1e-9)
	assert.InDelta(t, 0.5, ny, 1e-9)

	px, py := v.Denormalize(0.25, 0.75)
	assert.InDelta(t, 250.0, px, 1e-9)
	assert.InDelta(t, 525.0, py, 1e-9)

	nx, ny, _ = v.Normalize(px, py)
	assert.InDelta(t, 0.25, nx, 1e-9)
	assert.InDelta(t, 0.75, ny, 1e-9)
}

func TestNormalizeOutsideLetterbox(t *testing.T) {
	v := Fit(800, 400, 1000, 800)

	_, ny, inside := v.Normalize(500, 100)
	assert.False(t, inside)
	assert.InDelta(t, -0.1, ny, 1e-9)

	_, _, inside = Viewport{}.Normalize(1, 1)
	assert.False(t, inside)
}

func TestToImage(t *testing.T) {
	v := Fit(35, 18, 350, 180)

	ix, iy, inside := v.ToImage(200, 120, 35, 18)
	assert.True(t, inside)
	assert.InDelta(t, 20.0, ix, 1e-9)
	assert.InDelta(t, 12.0, iy, 1e-9)
}

func TestScaleIndependentAxes(t *testing.T) {
	s := ScaleBetween(4000, 3000, 900, 676)

	assert.InDelta(t, 4000.0/900.0, s.SX, 1e-12)
	assert.InDelta(t, 3000.0/676.0, s.SY, 1e-12)
	assert.NotEqual(t, s.SX, s.SY)

	x, y := s.ToSource(450, 338)
	assert.InDelta(t, 2000.0, x, 1e-9)
	assert.InDelta(t, 1500.0, y, 1e-9)

	dx, dy := s.ToDisplay(x, y)
	assert.InDelta(t, 450.0, dx, 1e-9)
	assert.InDelta(t, 338.0, dy, 1e-9)
}

func TestScaleBetweenZeroDisplay(t *testing.T) {
	assert.Equal(t, Scale{SX: 1, SY: 1}, ScaleBetween(10, 10, 0, 0))
}
