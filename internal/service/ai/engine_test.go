package ai

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"westwise/internal/apperror"
	"westwise/internal/logger"
	"westwise/internal/model"
	"westwise/internal/service/preprocess"
)

// echoBackend derives every score from the first input value and reuses its
// output buffer, like the real runtimes do.
type echoBackend struct {
	in, out  []int64
	active   int32
	overlaps int32
	calls    int32
	buf      []float32
	delay    time.Duration
	err      error
	panicMsg string
}

func newEchoBackend() *echoBackend {
	return &echoBackend{
		in:  []int64{1, 224, 224, 3},
		out: []int64{1, 10},
		buf: make([]float32, model.NumCategories),
	}
}

func (b *echoBackend) Name() string         { return "echo" }
func (b *echoBackend) InputShape() []int64  { return b.in }
func (b *echoBackend) OutputShape() []int64 { return b.out }
func (b *echoBackend) Close() error         { return nil }

func (b *echoBackend) Run(input []float32) ([]float32, error) {
	atomic.AddInt32(&b.calls, 1)
	if atomic.AddInt32(&b.active, 1) > 1 {
		atomic.AddInt32(&b.overlaps, 1)
	}
	defer atomic.AddInt32(&b.active, -1)

	if b.panicMsg != "" {
		panic(b.panicMsg)
	}
	if b.err != nil {
		return nil, b.err
	}

	for i := range b.buf {
		b.buf[i] = input[0]
		if b.delay > 0 {
			time.Sleep(b.delay)
		}
		b.buf[i] += float32(i) / 100
	}
	return b.buf, nil
}

func tensorWith(first float32) *preprocess.Tensor {
	t := preprocess.NewTensor()
	t.Data[0] = first
	return t
}

func newTestEngine(t *testing.T, b Backend) *Engine {
	t.Helper()
	e, err := NewEngine(b, logger.Discard())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngine_RejectsWrongShapes(t *testing.T) {
	tests := []struct {
		name string
		in   []int64
		out  []int64
	}{
		{"nchw input", []int64{1, 3, 224, 224}, []int64{1, 10}},
		{"small input", []int64{1, 128, 128, 3}, []int64{1, 10}},
		{"1000 classes", []int64{1, 224, 224, 3}, []int64{1, 1000}},
		{"no output", []int64{1, 224, 224, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newEchoBackend()
			b.in, b.out = tt.in, tt.out
			if _, err := NewEngine(b, logger.Discard()); err == nil {
				t.Error("expected error for mismatched backend")
			}
		})
	}
}

func TestNewEngine_AcceptsFlatOutput(t *testing.T) {
	b := newEchoBackend()
	b.out = []int64{10}
	if _, err := NewEngine(b, logger.Discard()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClassify_ReturnsBackendScores(t *testing.T) {
	e := newTestEngine(t, newEchoBackend())

	scores, err := e.Classify(tensorWith(0.5))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	for i, s := range scores {
		want := 0.5 + float32(i)/100
		if s != want {
			t.Errorf("score %d = %f, expected %f", i, s, want)
		}
	}
	if top, _ := scores.Top(); top != model.Trash {
		t.Errorf("top = %v, expected Trash", top)
	}
}

func TestClassify_ShapeMismatchIsInferenceError(t *testing.T) {
	b := newEchoBackend()
	e := newTestEngine(t, b)

	bad := []*preprocess.Tensor{
		nil,
		{Shape: [4]int64{1, 224, 224, 3}, Data: make([]float32, 10)},
		{Shape: [4]int64{1, 3, 224, 224}, Data: make([]float32, 3*224*224)},
	}

	for i, tensor := range bad {
		_, err := e.Classify(tensor)
		var infErr *apperror.InferenceError
		if !errors.As(err, &infErr) {
			t.Errorf("case %d: expected InferenceError, got %v", i, err)
		}
	}
	if calls := atomic.LoadInt32(&b.calls); calls != 0 {
		t.Errorf("backend should not be invoked for bad tensors, got %d calls", calls)
	}
}

func TestClassify_BackendErrorIsInferenceError(t *testing.T) {
	b := newEchoBackend()
	b.err = errors.New("session run failed")
	e := newTestEngine(t, b)

	_, err := e.Classify(tensorWith(1))
	var infErr *apperror.InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
	if !errors.Is(err, b.err) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
	if calls := atomic.LoadInt32(&b.calls); calls != 1 {
		t.Errorf("failed inference must not be retried, got %d calls", calls)
	}
}

func TestClassify_BackendPanicIsRecovered(t *testing.T) {
	b := newEchoBackend()
	b.panicMsg = "tensor index out of range"
	e := newTestEngine(t, b)

	_, err := e.Classify(tensorWith(1))
	var infErr *apperror.InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("expected InferenceError, got %v", err)
	}

	// The lock must have been released.
	b.panicMsg = ""
	if _, err := e.Classify(tensorWith(1)); err != nil {
		t.Fatalf("engine unusable after panic: %v", err)
	}
}

type shortBackend struct{ *echoBackend }

func (s shortBackend) Run(input []float32) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func TestClassify_WrongOutputLength(t *testing.T) {
	e := newTestEngine(t, shortBackend{newEchoBackend()})

	_, err := e.Classify(tensorWith(1))
	var infErr *apperror.InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestClassify_NonFiniteScoresAreInferenceErrors(t *testing.T) {
	inputs := map[string]float32{
		"nan":  float32(math.NaN()),
		"+inf": float32(math.Inf(1)),
		"-inf": float32(math.Inf(-1)),
	}

	for name, first := range inputs {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, newEchoBackend())

			scores, err := e.Classify(tensorWith(first))
			var infErr *apperror.InferenceError
			if !errors.As(err, &infErr) {
				t.Fatalf("expected InferenceError, got %v", err)
			}
			if scores != (model.Scores{}) {
				t.Errorf("expected zero scores on failure, got %v", scores)
			}
		})
	}
}

func TestClassify_ConcurrentCallsAreSerialized(t *testing.T) {
	b := newEchoBackend()
	b.delay = 50 * time.Microsecond
	e := newTestEngine(t, b)

	const workers = 16
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	mismatches := make(chan string, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for n := 0; n < perWorker; n++ {
				first := float32(id*100 + n)
				scores, err := e.Classify(tensorWith(first))
				if err != nil {
					errs <- err
					continue
				}
				for i, s := range scores {
					if s != first+float32(i)/100 {
						mismatches <- "worker result belongs to another input"
						break
					}
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	close(mismatches)

	for err := range errs {
		t.Errorf("Classify failed: %v", err)
	}
	for m := range mismatches {
		t.Error(m)
	}
	if overlaps := atomic.LoadInt32(&b.overlaps); overlaps != 0 {
		t.Errorf("backend ran concurrently %d times", overlaps)
	}
	if calls := atomic.LoadInt32(&b.calls); calls != workers*perWorker {
		t.Errorf("expected %d backend calls, got %d", workers*perWorker, calls)
	}
}

func TestHealthCheck_ZeroTensor(t *testing.T) {
	e := newTestEngine(t, newEchoBackend())

	if err := e.HealthCheck(); err != nil {
		t.Fatalf("health check on all-zero tensor failed: %v", err)
	}
}

func TestHealthCheck_FailureIsUnavailable(t *testing.T) {
	b := newEchoBackend()
	b.err = errors.New("model file unloaded")
	e := newTestEngine(t, b)

	err := e.HealthCheck()
	var unavailable *apperror.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if unavailable.StatusCode() != 503 {
		t.Errorf("status = %d, expected 503", unavailable.StatusCode())
	}
}
