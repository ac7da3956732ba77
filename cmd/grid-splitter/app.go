package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"time"

	"grid-splitter/internal/config"
	"grid-splitter/internal/controllers"
	"grid-splitter/internal/logger"
	"grid-splitter/internal/models"
	"grid-splitter/internal/opencv/memory"
	"grid-splitter/internal/services"
	"grid-splitter/internal/shutdown"
	"grid-splitter/internal/storage"
	"grid-splitter/internal/upscale"
	"grid-splitter/internal/views"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/google/uuid"
)

const (
	AppID      = "com.gridsplitter.app"
	AppVersion = "1.0.0"

	statsInterval = 30 * time.Second
)

// Application owns the window and the wired MVC components
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger
	logFile io.Closer

	controller *controllers.MainController
	view       *views.MainView

	imageRepo     *models.ImageRepository
	memoryManager *memory.Manager
	bucket        *storage.S3Sink

	shutdown *shutdown.Manager
}

// NewApplication builds every component from cfg
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	appLogger, logFile, err := logger.New(logger.Options{Level: level, FilePath: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	appLogger.Info("Application", "starting", map[string]interface{}{
		"version":   AppVersion,
		"env_file":  cfg.EnvPath,
		"log_level": level.String(),
		"upscale":   cfg.Upscale.Enabled(),
		"bucket":    cfg.Bucket.Name,
	})

	shutdownMgr := shutdown.NewManager(appLogger)
	appCtx := shutdownMgr.Context()
	if ctx != nil {
		context.AfterFunc(ctx, shutdownMgr.Shutdown)
	}

	imageRepo := models.NewImageRepository(startFolder())
	upscaleRepo := models.NewUpscaleStateRepository()
	memManager := memory.NewManager(appLogger)

	client, err := newUpscaleClient(cfg.Upscale)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	a := &Application{
		logger:        appLogger,
		logFile:       logFile,
		imageRepo:     imageRepo,
		memoryManager: memManager,
		shutdown:      shutdownMgr,
	}

	if cfg.Bucket.Enabled() {
		s3Client, err := storage.NewS3Client(appCtx, storage.BucketConfig{
			Endpoint:  cfg.Bucket.Endpoint,
			Region:    cfg.Bucket.Region,
			AccessKey: cfg.Bucket.AccessKey,
			SecretKey: cfg.Bucket.SecretKey,
			Bucket:    cfg.Bucket.Name,
		})
		if err != nil {
			logFile.Close()
			return nil, err
		}
		a.bucket = storage.NewS3Sink(s3Client, cfg.Bucket.Name, "", appLogger)
	}

	imageService := services.NewImageService(memManager, imageRepo, cfg.JPEGQuality, appLogger)
	upscaleService := services.NewUpscaleService(client, upscaleRepo, cfg.Upscale, appLogger)

	a.fyneApp = app.NewWithID(AppID)
	a.window = a.fyneApp.NewWindow(views.WindowTitle)
	a.window.Resize(fyne.NewSize(views.WindowWidth, views.WindowHeight))
	a.window.CenterOnScreen()

	a.controller = controllers.NewMainController(appCtx, imageService, upscaleService,
		imageRepo, upscaleRepo, a.newSink, appLogger)
	a.view = views.NewMainView(a.window)
	a.controller.SetMainView(a.view)

	a.window.SetCloseIntercept(func() {
		a.controller.HandleCloseRequest(a.window.Close)
	})

	shutdownMgr.Register("memory manager", memManager)
	shutdownMgr.Register("controller", a.controller)

	return a, nil
}

// newUpscaleClient returns a nil client when upscaling is not configured
// startFolder is where the first file dialog opens: the home directory
// when it can be resolved.
func startFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func newUpscaleClient(cfg config.Upscale) (upscale.Client, error) {
	client, err := upscale.NewHTTPClient(cfg)
	if errors.Is(err, upscale.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newSink writes into dir and, when a bucket is configured, mirrors the
// files under kind/<timestamp>-<id> in the bucket.
func (a *Application) newSink(ctx context.Context, dir, kind string) (storage.Sink, error) {
	local, err := storage.NewDirSink(dir)
	if err != nil {
		return nil, err
	}
	if a.bucket == nil {
		return local, nil
	}

	run := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	return storage.Multi{local, a.bucket.WithPrefix(path.Join(kind, run))}, nil
}

// Run shows the window and blocks until it is closed
func (a *Application) Run(initialImage string) error {
	defer a.logFile.Close()

	stopSignals := a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})
	defer stopSignals()

	go a.monitorStats()

	if initialImage != "" {
		a.controller.OpenPath(initialImage)
	}

	a.window.ShowAndRun()

	a.shutdown.Shutdown()
	a.logger.Info("Application", "terminated", nil)
	return nil
}

func (a *Application) monitorStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	ctx := a.shutdown.Context()
	for {
		select {
		case <-ticker.C:
			a.logStats()
		case <-ctx.Done():
			return
		}
	}
}

func (a *Application) logStats() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	mats := a.memoryManager.Snapshot()
	imageStats := a.imageRepo.GetImageStats()

	a.logger.Debug("Application", "stats", map[string]interface{}{
		"go_memory_mb":    memStats.Alloc / 1024 / 1024,
		"go_gc_runs":      memStats.NumGC,
		"mats_allocated":  mats.AllocCount,
		"mats_released":   mats.DeallocCount,
		"mat_memory_mb":   mats.UsedMemory / 1024 / 1024,
		"has_image":       imageStats.HasOriginal,
		"is_cut":          imageStats.IsCut,
		"tiles":           imageStats.TileCount,
		"goroutine_count": runtime.NumGoroutine(),
	})
}
