// Package opencv runs the classifier through the OpenCV DNN module, which
// reads TFLite, TensorFlow and ONNX model files.
package opencv

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// Backend wraps a gocv.Net.
type Backend struct {
	net         gocv.Net
	blob        gocv.Mat
	inputShape  []int64
	outputShape []int64
	scores      []float32
}

// New loads modelPath. inputShape is the NHWC shape of the model input.
func New(modelPath string, inputShape, outputShape []int64) (*Backend, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if len(inputShape) != 4 {
		return nil, fmt.Errorf("expected NHWC input shape, got %v", inputShape)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	// OpenCV DNN consumes NCHW blobs, as produced by BlobFromImage.
	n, h, w, c := int(inputShape[0]), int(inputShape[1]), int(inputShape[2]), int(inputShape[3])
	blob := gocv.NewMatWithSizes([]int{n, c, h, w}, gocv.MatTypeCV32F)

	outLen := int64(1)
	for _, d := range outputShape {
		outLen *= d
	}

	return &Backend{
		net:         net,
		blob:        blob,
		inputShape:  inputShape,
		outputShape: outputShape,
		scores:      make([]float32, outLen),
	}, nil
}

func (b *Backend) Name() string         { return "opencv-dnn" }
func (b *Backend) InputShape() []int64  { return b.inputShape }
func (b *Backend) OutputShape() []int64 { return b.outputShape }

// Run transposes the NHWC input into the blob, runs a forward pass and
// returns the flattened scores.
func (b *Backend) Run(input []float32) ([]float32, error) {
	dst, err := b.blob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to access input blob: %w", err)
	}
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, blob holds %d", len(input), len(dst))
	}
	nhwcToNCHW(dst, input, int(b.inputShape[1]), int(b.inputShape[2]), int(b.inputShape[3]))

	if err := b.net.SetInput(b.blob, ""); err != nil {
		return nil, fmt.Errorf("failed to set input: %w", err)
	}
	output := b.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, fmt.Errorf("forward pass produced no output")
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	if len(data) != len(b.scores) {
		return nil, fmt.Errorf("network produced %d values, expected %d", len(data), len(b.scores))
	}
	copy(b.scores, data)
	return b.scores, nil
}

// Close releases the blob and the network.
func (b *Backend) Close() error {
	if err := b.blob.Close(); err != nil {
		b.net.Close()
		return err
	}
	return b.net.Close()
}

// nhwcToNCHW handles a batch of one.
func nhwcToNCHW(dst, src []float32, h, w, c int) {
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			for ch := 0; ch < c; ch++ {
				dst[ch*plane+p] = src[p*c+ch]
			}
		}
	}
}
