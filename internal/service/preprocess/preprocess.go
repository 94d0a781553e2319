// Package preprocess turns uploaded image bytes into the model input tensor.
//
// Processing only touches request-local data, so a Preprocessor can be used
// from any number of goroutines at once.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"westwise/internal/apperror"
)

const (
	// InputSize is the spatial resolution expected by the model.
	InputSize = 224
	// Channels is the number of color channels in the tensor.
	Channels = 3
	// DefaultMaxPixels caps width*height of a decoded image.
	DefaultMaxPixels = 178_956_970
)

var (
	// ImageNetMean and ImageNetStd are the per-channel RGB statistics used by
	// the imagenet normalization.
	ImageNetMean = [Channels]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [Channels]float32{0.229, 0.224, 0.225}

	errUnsupportedFormat = errors.New("unsupported image format")
)

// supportedTypes maps sniffed MIME types to decoder format names.
var supportedTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/webp": "webp",
}

// Normalization selects how 8-bit pixel values are mapped to floats.
type Normalization int

const (
	// NormalizeImageNet scales to [0,1] then applies ImageNet mean/std.
	NormalizeImageNet Normalization = iota
	// NormalizeEfficientNet keeps raw [0,255] values. Keras EfficientNet
	// models rescale inside the graph.
	NormalizeEfficientNet
)

// ParseNormalization maps a configuration value to a Normalization.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "imagenet":
		return NormalizeImageNet, nil
	case "efficientnet":
		return NormalizeEfficientNet, nil
	default:
		return 0, fmt.Errorf("unknown normalization %q", s)
	}
}

func (n Normalization) String() string {
	switch n {
	case NormalizeImageNet:
		return "imagenet"
	case NormalizeEfficientNet:
		return "efficientnet"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// Preprocessor validates, decodes, resizes and normalizes images.
type Preprocessor struct {
	maxBytes      int64
	maxPixels     int64
	normalization Normalization
}

// New creates a Preprocessor rejecting inputs above maxBytes.
func New(maxBytes int64, normalization Normalization) *Preprocessor {
	return &Preprocessor{
		maxBytes:      maxBytes,
		maxPixels:     DefaultMaxPixels,
		normalization: normalization,
	}
}

// WithMaxPixels sets the decoded size cap. Values <= 0 keep the default.
func (p *Preprocessor) WithMaxPixels(n int64) *Preprocessor {
	if n > 0 {
		p.maxPixels = n
	}
	return p
}

// Normalization returns the scheme this Preprocessor applies.
func (p *Preprocessor) Normalization() Normalization {
	return p.normalization
}

// MaxBytes returns the upload size limit.
func (p *Preprocessor) MaxBytes() int64 {
	return p.maxBytes
}

// Sniff returns the decoder format name of data, or "" when the content is
// not one of the supported image containers.
func Sniff(data []byte) string {
	return supportedTypes[http.DetectContentType(data)]
}

// Process converts raw image bytes into a (1, 224, 224, 3) tensor.
func (p *Preprocessor) Process(data []byte) (*Tensor, error) {
	if size := int64(len(data)); size > p.maxBytes {
		return nil, &apperror.TooLargeError{Size: size, Limit: p.maxBytes}
	}

	sniffed := Sniff(data)
	if sniffed == "" {
		return nil, &apperror.DecodeError{Err: errUnsupportedFormat}
	}

	// The header is enough to refuse images that would not fit in memory.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &apperror.DecodeError{Err: fmt.Errorf("%s: %w", sniffed, err)}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.maxPixels {
		return nil, &apperror.DecodeError{
			Err: fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.maxPixels),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &apperror.DecodeError{Err: fmt.Errorf("%s: %w", sniffed, err)}
	}
	if format != sniffed {
		return nil, &apperror.DecodeError{Err: fmt.Errorf("content sniffed as %s but decoded as %s", sniffed, format)}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &apperror.DecodeError{Err: errors.New("image has no pixels")}
	}

	return p.FromImage(img), nil
}

// FromImage stretches img to 224x224 and normalizes it.
func (p *Preprocessor) FromImage(img image.Image) *Tensor {
	resized := resize.Resize(InputSize, InputSize, img, resize.Lanczos3)
	bounds := resized.Bounds()

	t := NewTensor()
	i := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+InputSize; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+InputSize; x++ {
			// Alpha is dropped without compositing; gray is expanded to RGB.
			c := color.NRGBAModel.Convert(resized.At(x, y)).(color.NRGBA)
			rgb := [Channels]uint8{c.R, c.G, c.B}
			for ch := 0; ch < Channels; ch++ {
				t.Data[i] = p.normalize(rgb[ch], ch)
				i++
			}
		}
	}
	return t
}

func (p *Preprocessor) normalize(v uint8, ch int) float32 {
	if p.normalization == NormalizeEfficientNet {
		return float32(v)
	}
	return (float32(v)/255.0 - ImageNetMean[ch]) / ImageNetStd[ch]
}
