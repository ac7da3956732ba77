package memory

import (
	"testing"

	"grid-splitter/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestManagerTracksUsage(t *testing.T) {
	m := NewManager(logger.Nop())

	m.TrackAllocation(1, 300, "tile_1")
	m.TrackAllocation(2, 500, "tile_2")
	m.TrackDeallocation(1, "tile_1")

	allocs, deallocs, used := m.GetStats()
	assert.Equal(t, int64(2), allocs)
	assert.Equal(t, int64(1), deallocs)
	assert.Equal(t, int64(500), used)
	assert.Equal(t, int64(800), m.Snapshot().PeakMemory)
}

func TestUntrackedReleaseIsIgnored(t *testing.T) {
	m := NewManager(logger.Nop())
	m.TrackDeallocation(42, "ghost")

	_, deallocs, used := m.GetStats()
	assert.Zero(t, deallocs)
	assert.Zero(t, used)
	m.Shutdown()
}
