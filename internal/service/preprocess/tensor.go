package preprocess

// Shape is the NHWC input shape of the classifier.
var Shape = [4]int64{1, InputSize, InputSize, Channels}

// Tensor is a float32 NHWC buffer.
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// NewTensor returns a zero-filled tensor of the model input shape.
func NewTensor() *Tensor {
	return &Tensor{
		Shape: Shape,
		Data:  make([]float32, Shape[0]*Shape[1]*Shape[2]*Shape[3]),
	}
}

// At returns the value at pixel (x, y) of channel ch.
func (t *Tensor) At(x, y, ch int) float32 {
	w, c := int(t.Shape[2]), int(t.Shape[3])
	return t.Data[(y*w+x)*c+ch]
}

// Len is the element count implied by the shape.
func (t *Tensor) Len() int {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return int(n)
}
