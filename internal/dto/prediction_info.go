package dto

import (
	"encoding/json"
	"time"

	"westwise/internal/model"
)

// PredictionInfo is one entry of the prediction history.
type PredictionInfo struct {
	ID                 int64              `json:"id"`
	RequestID          string             `json:"request_id"`
	Filename           string             `json:"filename"`
	FileSize           int64              `json:"file_size"`
	Label              string             `json:"label"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities ClassProbabilities `json:"class_probabilities"`
	ProcessingTime     float64            `json:"processing_time"`
	ModelVersion       string             `json:"model_version"`
	CreatedAt          time.Time          `json:"created_at"`
}

// NewPredictionInfo converts a stored prediction.
func NewPredictionInfo(p *model.Prediction) PredictionInfo {
	return PredictionInfo{
		ID:                 p.ID,
		RequestID:          p.RequestID,
		Filename:           p.Filename,
		FileSize:           p.FileSize,
		Label:              p.Label.String(),
		Confidence:         Round(float64(p.Confidence), 4),
		ClassProbabilities: NewClassProbabilities(p.Probabilities),
		ProcessingTime:     Round(p.ProcessingTime.Seconds(), 3),
		ModelVersion:       p.ModelVersion,
		CreatedAt:          p.CreatedAt,
	}
}

// MarshalJSON formats created_at like the response timestamps.
func (p PredictionInfo) MarshalJSON() ([]byte, error) {
	type Alias PredictionInfo
	return json.Marshal(&struct {
		CreatedAt string `json:"created_at"`
		Alias
	}{
		CreatedAt: FormatTimestamp(p.CreatedAt),
		Alias:     (Alias)(p),
	})
}
