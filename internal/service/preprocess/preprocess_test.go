package preprocess

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"golang.org/x/image/bmp"

	"westwise/internal/apperror"
)

const testLimit = 10 * 1024 * 1024

func noiseImage(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encode(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		t.Fatalf("unknown format %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestProcess_ShapeForAllFormats(t *testing.T) {
	p := New(testLimit, NormalizeImageNet)

	sizes := []struct{ w, h int }{{224, 224}, {640, 480}, {31, 500}, {1, 1}}
	for _, format := range []string{"png", "jpeg", "gif", "bmp"} {
		for _, sz := range sizes {
			data := encode(t, format, noiseImage(sz.w, sz.h))

			tensor, err := p.Process(data)
			if err != nil {
				t.Fatalf("%s %dx%d: unexpected error: %v", format, sz.w, sz.h, err)
			}
			if tensor.Shape != [4]int64{1, 224, 224, 3} {
				t.Errorf("%s %dx%d: shape = %v", format, sz.w, sz.h, tensor.Shape)
			}
			if len(tensor.Data) != 1*224*224*3 {
				t.Errorf("%s %dx%d: data length = %d", format, sz.w, sz.h, len(tensor.Data))
			}
		}
	}
}

func TestProcess_ImageNetRange(t *testing.T) {
	p := New(testLimit, NormalizeImageNet)

	inputs := [][]byte{
		encode(t, "png", noiseImage(300, 200)),
		encode(t, "png", solidImage(50, 50, color.Black)),
		encode(t, "png", solidImage(50, 50, color.White)),
	}

	for i, data := range inputs {
		tensor, err := p.Process(data)
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		for j, v := range tensor.Data {
			if v < -2.2 || v > 2.7 {
				t.Fatalf("input %d: value %f at %d outside [-2.2, 2.7]", i, v, j)
			}
		}
	}
}

func TestProcess_ImageNetExtremes(t *testing.T) {
	p := New(testLimit, NormalizeImageNet)

	tensor, err := p.Process(encode(t, "png", solidImage(10, 10, color.White)))
	if err != nil {
		t.Fatal(err)
	}
	for ch := 0; ch < Channels; ch++ {
		want := (1 - ImageNetMean[ch]) / ImageNetStd[ch]
		if got := tensor.At(100, 100, ch); abs(got-want) > 1e-4 {
			t.Errorf("channel %d: got %f, want %f", ch, got, want)
		}
	}
}

func TestProcess_EfficientNetKeepsPixelRange(t *testing.T) {
	p := New(testLimit, NormalizeEfficientNet)

	tensor, err := p.Process(encode(t, "png", solidImage(20, 20, color.NRGBA{R: 255, G: 128, B: 0, A: 255})))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b := tensor.At(5, 5, 0), tensor.At(5, 5, 1), tensor.At(5, 5, 2)
	if r != 255 || g != 128 || b != 0 {
		t.Errorf("expected raw pixel values (255,128,0), got (%v,%v,%v)", r, g, b)
	}
}

func TestProcess_GrayscaleExpandedToRGB(t *testing.T) {
	p := New(testLimit, NormalizeEfficientNet)

	gray := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range gray.Pix {
		gray.Pix[i] = 100
	}

	tensor, err := p.Process(encode(t, "png", gray))
	if err != nil {
		t.Fatal(err)
	}
	for ch := 0; ch < Channels; ch++ {
		if v := tensor.At(0, 0, ch); v != 100 {
			t.Errorf("channel %d = %v, expected 100", ch, v)
		}
	}
}

func TestProcess_AlphaDiscarded(t *testing.T) {
	p := New(testLimit, NormalizeEfficientNet)

	img := solidImage(8, 8, color.NRGBA{R: 10, G: 20, B: 200, A: 128})
	tensor, err := p.Process(encode(t, "png", img))
	if err != nil {
		t.Fatal(err)
	}
	// Premultiplication during resize costs a little precision.
	if v := tensor.At(3, 3, 2); abs(v-200) > 3 {
		t.Errorf("blue channel = %v, expected about 200", v)
	}
}

func TestProcess_TooLargeRejectedBeforeDecode(t *testing.T) {
	p := New(1024, NormalizeImageNet)

	// Not an image at all: a decode attempt would produce DecodeError.
	data := bytes.Repeat([]byte{0x00}, 1025)

	_, err := p.Process(data)
	var tooLarge *apperror.TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TooLargeError, got %v", err)
	}
	if tooLarge.Size != 1025 || tooLarge.Limit != 1024 {
		t.Errorf("unexpected size/limit: %d/%d", tooLarge.Size, tooLarge.Limit)
	}
}

func TestProcess_ExactlyAtLimitAccepted(t *testing.T) {
	data := encode(t, "png", noiseImage(4, 4))
	p := New(int64(len(data)), NormalizeImageNet)

	if _, err := p.Process(data); err != nil {
		t.Fatalf("input at the limit should be accepted: %v", err)
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w x h 8-bit
// grayscale image, with no pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	chunk := append([]byte("IHDR"), ihdr...)
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcess_PixelBombRejectedBeforeDecode(t *testing.T) {
	p := New(testLimit, NormalizeImageNet)

	data := pngHeader(16000, 16000)
	if Sniff(data) != "png" {
		t.Fatalf("header not sniffed as png")
	}
	_, err := p.Process(data)
	var decErr *apperror.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestProcess_MaxPixelsConfigurable(t *testing.T) {
	data := encode(t, "png", noiseImage(30, 30))

	if _, err := New(testLimit, NormalizeImageNet).WithMaxPixels(100).Process(data); err == nil {
		t.Error("expected 30x30 image to exceed a 100 pixel cap")
	}
	if _, err := New(testLimit, NormalizeImageNet).WithMaxPixels(900).Process(data); err != nil {
		t.Errorf("30x30 image within a 900 pixel cap: %v", err)
	}
	if p := New(testLimit, NormalizeImageNet).WithMaxPixels(0); p.maxPixels != DefaultMaxPixels {
		t.Errorf("non-positive cap should keep the default, got %d", p.maxPixels)
	}
}

func TestProcess_DecodeErrors(t *testing.T) {
	p := New(testLimit, NormalizeImageNet)

	valid := encode(t, "png", noiseImage(10, 10))
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("hello, this is not an image")},
		{"executable", append([]byte("MZ\x90\x00"), make([]byte, 64)...)},
		{"truncated png", valid[:len(valid)/3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(tt.data)
			var decodeErr *apperror.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		format string
		data   []byte
	}{
		{"png", encode(t, "png", noiseImage(2, 2))},
		{"jpeg", encode(t, "jpeg", noiseImage(2, 2))},
		{"gif", encode(t, "gif", noiseImage(2, 2))},
		{"bmp", encode(t, "bmp", noiseImage(2, 2))},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")},
		{"", []byte("%PDF-1.4")},
	}

	for _, tt := range tests {
		if got := Sniff(tt.data); got != tt.format {
			t.Errorf("Sniff(%q...) = %q, expected %q", tt.data[:4], got, tt.format)
		}
	}
}

func TestParseNormalization(t *testing.T) {
	tests := []struct {
		in      string
		want    Normalization
		wantErr bool
	}{
		{"", NormalizeImageNet, false},
		{"imagenet", NormalizeImageNet, false},
		{"EfficientNet", NormalizeEfficientNet, false},
		{"zscore", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseNormalization(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNormalization(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseNormalization(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
