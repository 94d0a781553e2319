package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"westwise/internal/config"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/metrics"
	"westwise/internal/model"
	"westwise/internal/repository"
	"westwise/internal/service/ai"
	"westwise/internal/service/preprocess"
	"westwise/internal/service/storage"
	"westwise/internal/service/websocket"
)

// Upload is an accepted image file waiting for classification.
type Upload struct {
	Filename   string
	Data       []byte
	ReceivedAt time.Time
}

// Result is the outcome of one classification.
type Result struct {
	RequestID      string
	Label          model.Category
	Confidence     float32
	Scores         model.Scores
	Instruction    string
	ProcessingTime time.Duration
}

// Manager runs the classification pipeline and feeds the optional
// history buffer and live feed. The buffer, hub and repository may be nil.
type Manager struct {
	preprocessor  *preprocess.Preprocessor
	engine        *ai.Engine
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	repo          repository.PredictionRepository
	config        *config.Config
	logger        *logger.Logger
}

func NewManager(preprocessor *preprocess.Preprocessor, engine *ai.Engine, bufferService *storage.BufferService,
	hubService *websocket.HubService, repo repository.PredictionRepository, config *config.Config, logger *logger.Logger) *Manager {
	return &Manager{
		preprocessor:  preprocessor,
		engine:        engine,
		bufferService: bufferService,
		hubService:    hubService,
		repo:          repo,
		config:        config,
		logger:        logger,
	}
}

// Classify preprocesses the upload, runs inference and records the result.
// Errors are apperror types carrying their HTTP status.
func (m *Manager) Classify(ctx context.Context, upload Upload) (*Result, error) {
	start := upload.ReceivedAt
	if start.IsZero() {
		start = time.Now()
	}

	prepStart := time.Now()
	tensor, err := m.preprocessor.Process(upload.Data)
	metrics.PreprocessDuration.Observe(time.Since(prepStart).Seconds())
	if err != nil {
		return nil, err
	}

	// Client disconnected during decode.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("client gone before inference: %w", err)
	}

	scores, err := m.engine.Classify(tensor)
	if err != nil {
		return nil, err
	}

	label, confidence := scores.Top()
	result := &Result{
		RequestID:      uuid.NewString(),
		Label:          label,
		Confidence:     confidence,
		Scores:         scores,
		Instruction:    m.config.Handling.Lookup(label),
		ProcessingTime: time.Since(start),
	}

	metrics.Predictions.WithLabelValues(label.String()).Inc()
	m.logger.Info("Prediction: %s (%.4f) - File: %s - Time: %.3fs",
		label, confidence, upload.Filename, result.ProcessingTime.Seconds())

	m.record(upload, result)
	return result, nil
}

// record hands the result to the history buffer and the live feed.
// Neither call blocks.
func (m *Manager) record(upload Upload, result *Result) {
	if m.bufferService != nil {
		m.bufferService.Add(model.Prediction{
			RequestID:      result.RequestID,
			Filename:       upload.Filename,
			FileSize:       int64(len(upload.Data)),
			Label:          result.Label,
			Confidence:     result.Confidence,
			Probabilities:  result.Scores,
			ProcessingTime: result.ProcessingTime,
			ModelVersion:   m.config.ModelVersion,
			CreatedAt:      time.Now(),
		}, upload.Data)
	}

	if m.hubService != nil {
		prediction, metadata := m.Describe(upload, result)
		m.hubService.Broadcast(dto.LiveEvent{
			Type:       "prediction",
			Prediction: prediction,
			Metadata:   metadata,
			Timestamp:  dto.Now(),
		})
	}
}

// Describe shapes result into the response blocks.
func (m *Manager) Describe(upload Upload, result *Result) (dto.PredictionBlock, dto.Metadata) {
	return dto.PredictionBlock{
			Label:               result.Label.String(),
			Confidence:          dto.Round(float64(result.Confidence), 4),
			ClassProbabilities:  dto.NewClassProbabilities(result.Scores),
			HandlingInstruction: result.Instruction,
		}, dto.Metadata{
			Filename:       upload.Filename,
			FileSize:       int64(len(upload.Data)),
			ProcessingTime: dto.Round(result.ProcessingTime.Seconds(), 3),
			ModelVersion:   m.config.ModelVersion,
			RequestID:      result.RequestID,
		}
}

// Health runs a smoke-test inference.
func (m *Manager) Health() error {
	return m.engine.HealthCheck()
}

// ModelInfo describes the loaded classifier.
func (m *Manager) ModelInfo() dto.ModelInfo {
	return dto.ModelInfo{
		Type:          modelType(m.config.ModelPath),
		Backend:       m.engine.BackendName(),
		InputShape:    append([]int64(nil), preprocess.Shape[:]...),
		Classes:       model.CategoryNames(),
		NumClasses:    model.NumCategories,
		Normalization: m.preprocessor.Normalization().String(),
		Version:       m.config.ModelVersion,
	}
}

// History returns the prediction repository, or nil when history is disabled.
func (m *Manager) History() repository.PredictionRepository {
	return m.repo
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hubService
}

func (m *Manager) Config() *config.Config {
	return m.config
}

func modelType(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".onnx":
		return "ONNX"
	case ".tflite":
		return "TensorFlow Lite"
	case ".pb":
		return "TensorFlow"
	default:
		return fmt.Sprintf("unknown (%s)", ext)
	}
}
