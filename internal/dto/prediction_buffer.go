package dto

import "westwise/internal/model"

// BufferedPrediction holds a prediction and its optional upload before flushing.
type BufferedPrediction struct {
	Prediction model.Prediction
	Data       []byte
	// Attempts counts failed flushes of this record.
	Attempts int
}
