package storage

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"westwise/internal/config"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/metrics"
	"westwise/internal/model"
	"westwise/internal/repository"
)

const (
	// finalFlushTimeout bounds the flush performed when Run is cancelled.
	finalFlushTimeout = 5 * time.Second
	// maxFlushAttempts is how often a record may fail to flush before it is dropped.
	maxFlushAttempts = 3
)

// BufferService buffers predictions in memory and periodically writes them
// to the history repository, together with the uploads when enabled.
type BufferService struct {
	imagesDir   string
	saveUploads bool
	limit       int
	interval    time.Duration
	records     []dto.BufferedPrediction
	mu          sync.Mutex
	logger      *logger.Logger
	repo        repository.PredictionRepository
}

// NewBufferService creates a BufferService flushing into repo.
func NewBufferService(config *config.Config, logger *logger.Logger, repo repository.PredictionRepository) *BufferService {
	limit := config.HistoryBufferLimit
	if limit <= 0 {
		limit = 1
	}
	interval := config.HistoryFlushInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &BufferService{
		imagesDir:   config.ImageDirectory,
		saveUploads: config.SaveUploads,
		limit:       limit,
		interval:    interval,
		records:     make([]dto.BufferedPrediction, 0, limit),
		logger:      logger,
		repo:        repo,
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			s.Flush(flushCtx)
			cancel()
			return
		}
	}
}

// Add queues p. It never blocks; when the buffer is full the record is
// dropped and false is returned.
func (s *BufferService) Add(p model.Prediction, imageData []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) >= s.limit {
		metrics.HistoryDropped.Inc()
		s.logger.Warning("History buffer full (%d), dropping prediction %s", s.limit, p.RequestID)
		return false
	}

	record := dto.BufferedPrediction{Prediction: p}
	if s.saveUploads && len(imageData) > 0 {
		record.Data = append([]byte(nil), imageData...)
	}
	s.records = append(s.records, record)
	s.logger.Debug("History buffer size: %d/%d", len(s.records), s.limit)
	return true
}

// Len returns the number of buffered records.
func (s *BufferService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush writes buffered uploads to disk and the predictions to the
// repository. It returns the number of predictions stored.
func (s *BufferService) Flush(ctx context.Context) int {
	s.mu.Lock()
	if len(s.records) == 0 {
		s.mu.Unlock()
		return 0
	}
	records := s.records
	s.records = make([]dto.BufferedPrediction, 0, s.limit)
	s.mu.Unlock()

	if s.saveUploads {
		s.saveImages(records)
	}

	records = s.dropUnstorable(records)
	if len(records) == 0 {
		return 0
	}

	predictions := make([]model.Prediction, len(records))
	for i, r := range records {
		predictions[i] = r.Prediction
	}

	if err := s.repo.InsertBatch(ctx, predictions); err != nil {
		s.logger.Error("Error saving %d predictions to database: %v", len(predictions), err)
		s.requeue(records)
		return 0
	}

	s.logger.Info("Flushed %d predictions to history", len(predictions))
	return len(predictions)
}

// dropUnstorable removes records whose scores cannot be encoded.
func (s *BufferService) dropUnstorable(records []dto.BufferedPrediction) []dto.BufferedPrediction {
	kept := records[:0]
	for _, r := range records {
		if !finite(&r.Prediction) {
			metrics.HistoryDropped.Inc()
			s.logger.Warning("Dropping prediction %s with non-finite scores", r.Prediction.RequestID)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func finite(p *model.Prediction) bool {
	if !finite32(p.Confidence) {
		return false
	}
	for _, v := range p.Probabilities {
		if !finite32(v) {
			return false
		}
	}
	return true
}

func finite32(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// requeue puts failed records back in front of anything added meanwhile,
// keeping at most limit records. Records that already failed
// maxFlushAttempts times are dropped.
func (s *BufferService) requeue(records []dto.BufferedPrediction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	retry := records[:0]
	expired := 0
	for _, r := range records {
		r.Data = nil
		r.Attempts++
		if r.Attempts >= maxFlushAttempts {
			expired++
			continue
		}
		retry = append(retry, r)
	}
	if expired > 0 {
		metrics.HistoryDropped.Add(float64(expired))
		s.logger.Warning("Dropping %d predictions after %d failed flushes", expired, maxFlushAttempts)
	}

	merged := append(retry, s.records...)
	if dropped := len(merged) - s.limit; dropped > 0 {
		metrics.HistoryDropped.Add(float64(dropped))
		s.logger.Warning("Dropping %d predictions after failed flush", dropped)
		merged = merged[:s.limit]
	}
	s.records = merged
}

func (s *BufferService) saveImages(records []dto.BufferedPrediction) {
	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return
	}

	saved := 0
	for _, r := range records {
		if len(r.Data) == 0 {
			continue
		}
		filename := UploadFilename(&r.Prediction)
		if err := os.WriteFile(filepath.Join(s.imagesDir, filename), r.Data, 0644); err != nil {
			s.logger.Error("Error saving image %s: %v", filename, err)
			continue
		}
		saved++
	}
	if saved > 0 {
		s.logger.Info("Saved %d uploads to %s", saved, s.imagesDir)
	}
}

// UploadFilename names a saved upload after its time, label and request id,
// keeping the original extension.
func UploadFilename(p *model.Prediction) string {
	ext := strings.ToLower(filepath.Ext(p.Filename))
	if ext == "" {
		ext = ".img"
	}
	return fmt.Sprintf("%s_%s_%s%s", p.CreatedAt.Format("2006-01-02_15-04-05.000"), p.Label, p.RequestID, ext)
}
