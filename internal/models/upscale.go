package models

import (
	"sync"
	"time"
)

// TileStatus is the upscale stage of a single tile
type TileStatus int

const (
	TileQueued TileStatus = iota
	TileUploading
	TileProcessing
	TileDownloading
	TileDone
	TileFailed
	TileCancelled
)

func (s TileStatus) String() string {
	switch s {
	case TileQueued:
		return "Queued"
	case TileUploading:
		return "Uploading"
	case TileProcessing:
		return "Processing"
	case TileDownloading:
		return "Downloading"
	case TileDone:
		return "Done"
	case TileFailed:
		return "Failed"
	case TileCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the tile will not change again in this run
func (s TileStatus) Terminal() bool {
	return s == TileDone || s == TileFailed || s == TileCancelled
}

// TileProgress tracks one tile through the upscale run
type TileProgress struct {
	Index     int
	Status    TileStatus
	Message   string
	Output    string
	UpdatedAt time.Time
}

// UpscaleState represents the current upscale run
type UpscaleState struct {
	RunID     string
	IsActive  bool
	Stage     string
	StartTime time.Time
	Tiles     []TileProgress
}

// Progress is the fraction of tiles in a terminal state
func (s UpscaleState) Progress() float64 {
	if len(s.Tiles) == 0 {
		return 0
	}
	done := 0
	for _, t := range s.Tiles {
		if t.Status.Terminal() {
			done++
		}
	}
	return float64(done) / float64(len(s.Tiles))
}

// Counts returns how many tiles are in each status
func (s UpscaleState) Counts() map[TileStatus]int {
	counts := make(map[TileStatus]int)
	for _, t := range s.Tiles {
		counts[t.Status]++
	}
	return counts
}

// CancellationToken provides a way to cancel an ongoing run
type CancellationToken struct {
	cancelled bool
	mu        sync.RWMutex
}

// NewCancellationToken creates a new cancellation token
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// Cancel marks the token as cancelled
func (ct *CancellationToken) Cancel() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.cancelled = true
}

// IsCancelled returns true if the token has been cancelled
func (ct *CancellationToken) IsCancelled() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.cancelled
}

// UpscaleStateRepository manages upscale run state
type UpscaleStateRepository struct {
	mu    sync.RWMutex
	state UpscaleState
	token *CancellationToken
	now   func() time.Time
}

// NewUpscaleStateRepository creates a new upscale state repository
func NewUpscaleStateRepository() *UpscaleStateRepository {
	return &UpscaleStateRepository{
		token: NewCancellationToken(),
		now:   time.Now,
	}
}

// GetState returns a snapshot of the current run
func (r *UpscaleStateRepository) GetState() UpscaleState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := r.state
	state.Tiles = make([]TileProgress, len(r.state.Tiles))
	copy(state.Tiles, r.state.Tiles)
	return state
}

// StartRun marks a run active with every tile queued. indices are the
// 1-based tile indices in processing order.
func (r *UpscaleStateRepository) StartRun(runID string, indices []int) *CancellationToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	tiles := make([]TileProgress, len(indices))
	for i, idx := range indices {
		tiles[i] = TileProgress{Index: idx, Status: TileQueued, UpdatedAt: now}
	}

	r.token = NewCancellationToken()
	r.state = UpscaleState{
		RunID:     runID,
		IsActive:  true,
		Stage:     "Starting",
		StartTime: now,
		Tiles:     tiles,
	}
	return r.token
}

// UpdateTile sets the status of the tile with the given 1-based index.
// Terminal tiles are left alone.
func (r *UpscaleStateRepository) UpdateTile(index int, status TileStatus, message string) (TileProgress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.state.Tiles {
		t := &r.state.Tiles[i]
		if t.Index != index {
			continue
		}
		if t.Status.Terminal() {
			return *t, false
		}
		t.Status = status
		t.Message = message
		t.UpdatedAt = r.now()
		if r.state.IsActive {
			r.state.Stage = status.String()
		}
		return *t, true
	}
	return TileProgress{}, false
}

// SetOutput records where an upscaled tile was written
func (r *UpscaleStateRepository) SetOutput(index int, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.state.Tiles {
		if r.state.Tiles[i].Index == index {
			r.state.Tiles[i].Output = output
			return
		}
	}
}

// CompleteRun marks the run finished; tiles that never reached a terminal
// state are marked cancelled.
func (r *UpscaleStateRepository) CompleteRun() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for i := range r.state.Tiles {
		if !r.state.Tiles[i].Status.Terminal() {
			r.state.Tiles[i].Status = TileCancelled
			r.state.Tiles[i].UpdatedAt = now
		}
	}
	r.state.IsActive = false
	if r.token.IsCancelled() {
		r.state.Stage = "Cancelled"
	} else {
		r.state.Stage = "Complete"
	}
}

// CancelRun flags the run as cancelled; the worker observes the token
func (r *UpscaleStateRepository) CancelRun() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token.Cancel()
	if r.state.IsActive {
		r.state.Stage = "Cancelling"
	}
}

// IsActive returns true if a run is in progress
func (r *UpscaleStateRepository) IsActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.IsActive
}

// Reset forgets the last run
func (r *UpscaleStateRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.IsActive {
		return
	}
	r.state = UpscaleState{}
}

// GetCancellationToken returns the token of the current run
func (r *UpscaleStateRepository) GetCancellationToken() *CancellationToken {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}
