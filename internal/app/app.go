package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"westwise/internal/config"
	"westwise/internal/logger"
	"westwise/internal/model"
	"westwise/internal/repository"
	"westwise/internal/route"
	"westwise/internal/service"
	"westwise/internal/service/ai"
	"westwise/internal/service/ai/onnx"
	"westwise/internal/service/ai/opencv"
	"westwise/internal/service/preprocess"
	"westwise/internal/service/storage"
	"westwise/internal/service/websocket"
)

type App struct {
	config        *config.Config
	logger        *logger.Logger
	engine        *ai.Engine
	repo          repository.PredictionRepository
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
}

// NewApp loads the model and opens the history store. Everything opened
// here is released by Run.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg.LogDirectory, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	normalization, err := preprocess.ParseNormalization(cfg.Normalization)
	if err != nil {
		log.Close()
		return nil, err
	}

	backend, err := newBackend(cfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}

	engine, err := ai.NewEngine(backend, log)
	if err != nil {
		backend.Close()
		log.Close()
		return nil, err
	}
	if err := engine.HealthCheck(); err != nil {
		log.Warning("Model smoke test failed: %v", err)
	}

	a := &App{
		config:     cfg,
		logger:     log,
		engine:     engine,
		hubService: websocket.NewHubService(log),
	}

	if cfg.DBDriver != "none" {
		repo, err := repository.Open(ctx, repository.Options{
			Driver:       cfg.DBDriver,
			DatabasePath: cfg.DatabasePath,
			DatabaseURL:  cfg.DatabaseURL,
		})
		if err != nil {
			engine.Close()
			log.Close()
			return nil, fmt.Errorf("failed to open prediction history: %w", err)
		}
		a.repo = repo
		a.bufferService = storage.NewBufferService(cfg, log, repo)
	} else {
		log.Info("Prediction history disabled")
	}

	a.manager = service.NewManager(
		preprocess.New(cfg.MaxFileSize, normalization).WithMaxPixels(cfg.MaxImagePixels),
		engine, a.bufferService, a.hubService, a.repo, cfg, log,
	)
	return a, nil
}

func newBackend(cfg *config.Config) (ai.Backend, error) {
	kind, err := ai.ResolveBackend(cfg.ModelBackend, cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	outputShape := []int64{1, model.NumCategories}

	if kind == ai.BackendONNX {
		b, err := onnx.New(onnx.Options{
			ModelPath:   cfg.ModelPath,
			LibraryPath: cfg.ONNXLibraryPath,
			InputName:   cfg.ONNXInputName,
			OutputName:  cfg.ONNXOutputName,
			InputShape:  preprocess.Shape[:],
			OutputShape: outputShape,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	b, err := opencv.New(cfg.ModelPath, preprocess.Shape[:], outputShape)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// down gracefully and releases every resource.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background services
	var wg sync.WaitGroup
	if a.bufferService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bufferService.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()

	server := &http.Server{
		Addr:              a.config.Addr(),
		Handler:           route.SetupRoutes(a.manager, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("🚀 WestWise Waste Classification API")
	a.logger.Info("📍 URL: http://%s", a.config.Addr())
	a.logger.Info("🤖 Model: %s (%s, %s)", a.config.ModelPath, a.engine.BackendName(), a.config.Normalization)
	a.logger.Info("🗄️  History: %s", a.config.DBDriver)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error shutting down server: %v", err)
	}

	cancel()
	wg.Wait()

	a.close()
	return runErr
}

func (a *App) close() {
	if err := a.engine.Close(); err != nil {
		a.logger.Error("Error closing model: %v", err)
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Error("Error closing database: %v", err)
		}
	}
	a.logger.Close()
}
