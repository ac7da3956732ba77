package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"grid-splitter/internal/config"
	"grid-splitter/internal/logger"
	"grid-splitter/internal/models"
	"grid-splitter/internal/storage"
	"grid-splitter/internal/upscale"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const pngContentType = "image/png"

var ErrAlreadyRunning = errors.New("an upscale run is already active")

// UpscaleService sends tiles to the remote upscaler one at a time on a
// background goroutine.
type UpscaleService struct {
	client       upscale.Client
	stateRepo    *models.UpscaleStateRepository
	pollInterval time.Duration
	timeout      time.Duration
	logger       logger.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	onUpdate func(models.UpscaleState)
}

// NewUpscaleService creates the service. A nil client leaves upscaling
// disabled.
func NewUpscaleService(client upscale.Client, stateRepo *models.UpscaleStateRepository, cfg config.Upscale, log logger.Logger) *UpscaleService {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = config.DefaultUpscalePollInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultUpscaleTimeout
	}

	return &UpscaleService{
		client:       client,
		stateRepo:    stateRepo,
		pollInterval: poll,
		timeout:      timeout,
		logger:       log,
	}
}

func (us *UpscaleService) Enabled() bool {
	return us.client != nil
}

// OnUpdate registers a callback invoked from the worker goroutine after
// every state change.
func (us *UpscaleService) OnUpdate(fn func(models.UpscaleState)) {
	us.mu.Lock()
	defer us.mu.Unlock()
	us.onUpdate = fn
}

// Start begins a run over tiles and returns its id without waiting.
func (us *UpscaleService) Start(ctx context.Context, tiles []models.Tile, sink storage.Sink) (string, error) {
	if us.client == nil {
		return "", upscale.ErrDisabled
	}
	if len(tiles) == 0 {
		return "", ErrNoTiles
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	if us.stateRepo.IsActive() {
		return "", ErrAlreadyRunning
	}

	runID := uuid.NewString()
	indices := make([]int, len(tiles))
	for i, t := range tiles {
		indices[i] = t.Index
	}

	token := us.stateRepo.StartRun(runID, indices)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	us.cancel = cancel
	us.done = done

	us.logger.Info("UpscaleService", "upscale run started", map[string]interface{}{
		"run_id": runID,
		"tiles":  len(tiles),
		"sink":   sink.String(),
	})

	go us.run(runCtx, cancel, done, runID, tiles, sink, token)
	return runID, nil
}

func (us *UpscaleService) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, runID string, tiles []models.Tile, sink storage.Sink, token *models.CancellationToken) {
	defer close(done)
	defer cancel()

	startTime := time.Now()
	us.notify()

	for _, tile := range tiles {
		if ctx.Err() != nil || token.IsCancelled() {
			break
		}

		err := us.processTile(ctx, tile, sink)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			us.setStatus(tile.Index, models.TileCancelled, "cancelled")
		default:
			us.setStatus(tile.Index, models.TileFailed, err.Error())
			us.logger.Error("UpscaleService", err, map[string]interface{}{
				"run_id": runID,
				"tile":   tile.Index,
			})
		}
	}

	us.stateRepo.CompleteRun()
	us.notify()

	state := us.stateRepo.GetState()
	counts := state.Counts()
	us.logger.Info("UpscaleService", "upscale run finished", map[string]interface{}{
		"run_id":      runID,
		"stage":       state.Stage,
		"done":        counts[models.TileDone],
		"failed":      counts[models.TileFailed],
		"cancelled":   counts[models.TileCancelled],
		"duration_ms": time.Since(startTime).Milliseconds(),
	})
}

func (us *UpscaleService) processTile(ctx context.Context, tile models.Tile, sink storage.Sink) error {
	us.setStatus(tile.Index, models.TileUploading, "")

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, tile.Image, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode tile: %w", err)
	}

	id, err := us.client.Submit(ctx, fmt.Sprintf("tile_%d.png", tile.Index), buf.Bytes())
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	us.setStatus(tile.Index, models.TileProcessing, string(id))

	pollCtx, cancel := context.WithTimeout(ctx, us.timeout)
	job, err := upscale.Poll(pollCtx, us.client, id, us.pollInterval, nil)
	cancel()
	if err != nil {
		return err
	}

	us.setStatus(tile.Index, models.TileDownloading, string(id))

	data, err := us.client.Fetch(ctx, job)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	loc, err := sink.Put(ctx, UpscaledFileName(tile.Index), pngContentType, data)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	us.stateRepo.SetOutput(tile.Index, loc)
	us.setStatus(tile.Index, models.TileDone, loc)
	return nil
}

func (us *UpscaleService) setStatus(index int, status models.TileStatus, message string) {
	if _, changed := us.stateRepo.UpdateTile(index, status, message); changed {
		us.notify()
	}
}

func (us *UpscaleService) notify() {
	us.mu.Lock()
	fn := us.onUpdate
	us.mu.Unlock()

	if fn != nil {
		fn(us.stateRepo.GetState())
	}
}

// Cancel stops the active run. The tile in flight aborts and the rest are
// marked cancelled.
func (us *UpscaleService) Cancel() {
	us.mu.Lock()
	defer us.mu.Unlock()

	if !us.stateRepo.IsActive() {
		return
	}
	us.stateRepo.CancelRun()
	if us.cancel != nil {
		us.cancel()
	}
	us.logger.Info("UpscaleService", "upscale run cancelled", nil)
}

func (us *UpscaleService) IsRunning() bool {
	return us.stateRepo.IsActive()
}

func (us *UpscaleService) Snapshot() models.UpscaleState {
	return us.stateRepo.GetState()
}

// Wait blocks until the last started run has finished.
func (us *UpscaleService) Wait() {
	us.mu.Lock()
	done := us.done
	us.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Shutdown cancels any active run and waits for the worker to exit
func (us *UpscaleService) Shutdown() {
	us.Cancel()
	us.Wait()
}

// UpscaledFileName is the stored name of the upscaled 1-based tile n
func UpscaledFileName(n int) string {
	return fmt.Sprintf("upscaled_image_%d.png", n)
}
