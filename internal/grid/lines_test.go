package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLines(t *testing.T) {
	l := DefaultLines()
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, l.H)
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, l.V)
	assert.Equal(t, 4, l.Rows())
	assert.Equal(t, 4, l.Cols())
}

func TestCloneIsIndependent(t *testing.T) {
	l := DefaultLines()
	c := l.Clone()
	c.Move(LineRef{Horizontal, 0}, 0.1)
	assert.Equal(t, 0.25, l.H[0])
	assert.Equal(t, 0.1, c.H[0])
}

func TestResetRestoresDefaults(t *testing.T) {
	l := DefaultLines()
	l.Move(LineRef{Orientation: Vertical, Index: 1}, 0.9)
	l.H = l.H[:1]

	l.Reset()
	assert.Equal(t, DefaultLines(), l)
}

func TestHitTest(t *testing.T) {
	l := DefaultLines()

	tests := []struct {
		name   string
		nx, ny float64
		want   LineRef
		hit    bool
	}{
		{"near horizontal", 0.9, 0.51, LineRef{Horizontal, 1}, true},
		{"near vertical", 0.26, 0.9, LineRef{Vertical, 0}, true},
		{"crossing prefers horizontal", 0.5, 0.5, LineRef{Horizontal, 1}, true},
		{"far from all lines", 0.9, 0.9, LineRef{}, false},
		{"just outside tolerance", 0.9, 0.25 + DefaultTolerance, LineRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.HitTest(tt.nx, tt.ny, DefaultTolerance)
			assert.Equal(t, tt.hit, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoveClamps(t *testing.T) {
	l := DefaultLines()

	require.True(t, l.Move(LineRef{Horizontal, 0}, 1.3))
	require.True(t, l.Move(LineRef{Vertical, 2}, -0.2))
	assert.Equal(t, 1.0, l.H[0])
	assert.Equal(t, 0.0, l.V[2])

	assert.False(t, l.Move(LineRef{Vertical, 3}, 0.5))
	assert.False(t, l.Move(LineRef{Horizontal, -1}, 0.5))
}

func TestMoveToUsesMatchingAxis(t *testing.T) {
	l := DefaultLines()

	l.MoveTo(LineRef{Horizontal, 1}, 0.1, 0.6)
	l.MoveTo(LineRef{Vertical, 1}, 0.4, 0.9)

	assert.Equal(t, 0.6, l.H[1])
	assert.Equal(t, 0.4, l.V[1])
}

func TestLabel(t *testing.T) {
	l := DefaultLines()
	assert.Equal(t, "y: 750", Label(LineRef{Horizontal, 0}, l, 4000, 3000))
	assert.Equal(t, "x: 2000", Label(LineRef{Vertical, 1}, l, 4000, 3000))
	assert.Equal(t, "", Label(LineRef{Vertical, 9}, l, 4000, 3000))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(2))
	assert.Equal(t, 0.3, Clamp01(0.3))
}
