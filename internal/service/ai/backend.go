package ai

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendAuto   = "auto"
	BackendONNX   = "onnx"
	BackendOpenCV = "opencv"
)

// ResolveBackend picks the runtime for modelPath. "auto" chooses ONNX
// Runtime for .onnx files and OpenCV DNN for everything else (.tflite, .pb).
func ResolveBackend(kind, modelPath string) (string, error) {
	switch strings.ToLower(kind) {
	case "", BackendAuto:
		if strings.EqualFold(filepath.Ext(modelPath), ".onnx") {
			return BackendONNX, nil
		}
		return BackendOpenCV, nil
	case BackendONNX, BackendOpenCV:
		return strings.ToLower(kind), nil
	default:
		return "", fmt.Errorf("unknown model backend %q", kind)
	}
}
