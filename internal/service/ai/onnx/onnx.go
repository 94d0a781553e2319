// Package onnx runs the classifier with ONNX Runtime.
package onnx

import (
	"errors"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// Options configures the ONNX Runtime session.
type Options struct {
	ModelPath string
	// LibraryPath points at libonnxruntime; empty uses the runtime default.
	LibraryPath string
	// InputName and OutputName are discovered from the model when empty.
	InputName  string
	OutputName string
	InputShape []int64
	// OutputShape is the (1, classes) score tensor.
	OutputShape []int64
}

// Backend holds a session with pre-allocated input and output tensors.
type Backend struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputShape   []int64
	outputShape  []int64
}

// New loads the model at opts.ModelPath.
func New(opts Options) (*Backend, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %w", err)
	}

	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputName, outputName := opts.InputName, opts.OutputName
	if inputName == "" || outputName == "" {
		inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read model inputs/outputs: %w", err)
		}
		if len(inputs) != 1 || len(outputs) != 1 {
			return nil, fmt.Errorf("expected a single input and output, model has %d and %d", len(inputs), len(outputs))
		}
		if inputName == "" {
			inputName = inputs[0].Name
		}
		if outputName == "" {
			outputName = outputs[0].Name
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(opts.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(opts.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Backend{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputShape:   opts.InputShape,
		outputShape:  opts.OutputShape,
	}, nil
}

func (b *Backend) Name() string         { return "onnxruntime" }
func (b *Backend) InputShape() []int64  { return b.inputShape }
func (b *Backend) OutputShape() []int64 { return b.outputShape }

// Run copies input into the bound tensor and runs the session. The returned
// slice is the output tensor's storage.
func (b *Backend) Run(input []float32) ([]float32, error) {
	dst := b.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, tensor holds %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return b.outputTensor.GetData(), nil
}

// Close destroys the session, its tensors and the ONNX environment.
func (b *Backend) Close() error {
	var errs []error
	if b.session != nil {
		errs = append(errs, b.session.Destroy())
	}
	if b.inputTensor != nil {
		errs = append(errs, b.inputTensor.Destroy())
	}
	if b.outputTensor != nil {
		errs = append(errs, b.outputTensor.Destroy())
	}
	errs = append(errs, ort.DestroyEnvironment())
	return errors.Join(errs...)
}
