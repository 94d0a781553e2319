package route

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"westwise/internal/config"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/model"
	"westwise/internal/service"
	"westwise/internal/service/ai"
	"westwise/internal/service/preprocess"
)

type uniformBackend struct{}

func (uniformBackend) Name() string         { return "uniform" }
func (uniformBackend) InputShape() []int64  { return []int64{1, 224, 224, 3} }
func (uniformBackend) OutputShape() []int64 { return []int64{1, 10} }
func (uniformBackend) Close() error         { return nil }

func (uniformBackend) Run(input []float32) ([]float32, error) {
	out := make([]float32, model.NumCategories)
	for i := range out {
		out[i] = 0.1
	}
	return out, nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		ModelPath:    "model/model_best.onnx",
		ModelVersion: "2.0.0",
		Handling:     model.DefaultHandlingInstructions(),
		MaxFileSize:  1 << 20,
		LogDirectory: t.TempDir(),
		CORSOrigins:  []string{"*"},
	}
	engine, err := ai.NewEngine(uniformBackend{}, logger.Discard())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	manager := service.NewManager(preprocess.New(cfg.MaxFileSize, preprocess.NormalizeImageNet),
		engine, nil, nil, nil, cfg, logger.Discard())
	return SetupRoutes(manager, logger.Discard())
}

func TestRoutes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/model/info", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/predict", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/predictions", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/live", http.StatusServiceUnavailable},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.status {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.status, rr.Code)
		}
	}
}

func TestRoutes_NotFoundEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/does/not/exist", nil)
	req.Header.Set("Origin", "http://example.com")
	newRouter(t).ServeHTTP(rr, req)

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Success || resp.Error.Code != 404 || resp.Error.Message != "Not Found" {
		t.Errorf("Unexpected envelope %+v", resp)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers missing on error responses")
	}
}

func TestRoutes_MetricsExposeCounters(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rr.Body.String(), "westwise_") {
		t.Error("Expected westwise metrics in the exposition")
	}
}
