package memory

import (
	"sync"
	"time"

	"grid-splitter/internal/logger"
)

// Manager tracks native OpenCV allocations made while encoding tiles.
type Manager struct {
	allocations map[uint64]*AllocationRecord
	mu          sync.RWMutex
	stats       Stats
	logger      logger.Logger
}

type AllocationRecord struct {
	Tag       string
	CreatedAt time.Time
	Size      int64
}

type Stats struct {
	AllocCount   int64
	DeallocCount int64
	UsedMemory   int64
	PeakMemory   int64
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		allocations: make(map[uint64]*AllocationRecord),
		logger:      log,
	}
}

func (m *Manager) TrackAllocation(id uint64, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[id] = &AllocationRecord{Tag: tag, CreatedAt: time.Now(), Size: size}
	m.stats.AllocCount++
	m.stats.UsedMemory += size
	if m.stats.UsedMemory > m.stats.PeakMemory {
		m.stats.PeakMemory = m.stats.UsedMemory
	}
}

func (m *Manager) TrackDeallocation(id uint64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.allocations[id]
	if !exists {
		m.logger.Warning("MemoryManager", "release of untracked Mat", map[string]interface{}{
			"tag": tag,
		})
		return
	}

	delete(m.allocations, id)
	m.stats.DeallocCount++
	m.stats.UsedMemory -= record.Size
}

// GetStats returns allocation count, deallocation count and bytes in use.
func (m *Manager) GetStats() (int64, int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.AllocCount, m.stats.DeallocCount, m.stats.UsedMemory
}

func (m *Manager) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Shutdown reports Mats that were never closed.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.allocations) > 0 {
		m.logger.Warning("MemoryManager", "unreleased Mats at shutdown", map[string]interface{}{
			"count": len(m.allocations),
			"bytes": m.stats.UsedMemory,
		})
	}
}
