package ai

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"westwise/internal/apperror"
	"westwise/internal/logger"
	"westwise/internal/metrics"
	"westwise/internal/model"
	"westwise/internal/service/preprocess"
)

// Backend runs a forward pass of a loaded model.
// Implementations are not required to be safe for concurrent use.
type Backend interface {
	// Name identifies the runtime, e.g. "onnxruntime".
	Name() string
	InputShape() []int64
	OutputShape() []int64
	// Run feeds one NHWC input and returns the flat output. The returned
	// slice may be reused by the next call.
	Run(input []float32) ([]float32, error)
	Close() error
}

// Engine owns a Backend and serializes access to it.
type Engine struct {
	mu      sync.Mutex
	backend Backend
	logger  *logger.Logger
}

// NewEngine checks that backend matches the classifier contract:
// input (1, 224, 224, 3) and one score per category.
func NewEngine(backend Backend, logger *logger.Logger) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("nil backend")
	}

	in := backend.InputShape()
	if !shapeEqual(in, preprocess.Shape[:]) {
		return nil, fmt.Errorf("model input shape %v, expected %v", in, preprocess.Shape)
	}
	out := backend.OutputShape()
	if shapeLen(out) != model.NumCategories {
		return nil, fmt.Errorf("model output shape %v, expected %d scores", out, model.NumCategories)
	}

	logger.Info("🤖 Inference engine ready (%s, input %v, output %v)", backend.Name(), in, out)
	return &Engine{backend: backend, logger: logger}, nil
}

// BackendName reports the runtime behind the engine.
func (e *Engine) BackendName() string {
	return e.backend.Name()
}

// Classify runs the model on t. Only one call executes at a time; other
// callers wait for the lock.
func (e *Engine) Classify(t *preprocess.Tensor) (model.Scores, error) {
	var scores model.Scores

	if t == nil {
		return scores, &apperror.InferenceError{Err: errors.New("nil tensor")}
	}
	if t.Shape != preprocess.Shape || len(t.Data) != t.Len() {
		return scores, &apperror.InferenceError{
			Err: fmt.Errorf("tensor shape %v with %d values does not match model input %v", t.Shape, len(t.Data), preprocess.Shape),
		}
	}

	waitStart := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	metrics.InferenceLockWait.Observe(time.Since(waitStart).Seconds())

	runStart := time.Now()
	out, err := e.run(t.Data)
	metrics.InferenceDuration.Observe(time.Since(runStart).Seconds())
	if err != nil {
		metrics.InferenceFailures.Inc()
		return scores, &apperror.InferenceError{Err: err}
	}
	if len(out) != model.NumCategories {
		metrics.InferenceFailures.Inc()
		return scores, &apperror.InferenceError{
			Err: fmt.Errorf("backend returned %d scores, expected %d", len(out), model.NumCategories),
		}
	}

	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			metrics.InferenceFailures.Inc()
			return scores, &apperror.InferenceError{
				Err: fmt.Errorf("backend returned non-finite score %v for %s", v, model.Category(i)),
			}
		}
	}

	// Copy while holding the lock; the backend owns out.
	copy(scores[:], out)
	return scores, nil
}

// run calls the backend and converts a panic into an error.
func (e *Engine) run(input []float32) (out []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s backend panicked: %v", e.backend.Name(), r)
		}
	}()
	return e.backend.Run(input)
}

// HealthCheck classifies an all-zero tensor.
func (e *Engine) HealthCheck() error {
	if _, err := e.Classify(preprocess.NewTensor()); err != nil {
		return &apperror.UnavailableError{Err: err}
	}
	return nil
}

// Close releases the backend. The engine must not be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend.Close()
}

func shapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shapeLen(s []int64) int {
	if len(s) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return int(n)
}
