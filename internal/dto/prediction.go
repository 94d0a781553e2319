package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"westwise/internal/model"
)

// ClassProbabilities maps every label to its rounded score. It always holds
// exactly one entry per category and serializes them in category order.
type ClassProbabilities [model.NumCategories]float64

// NewClassProbabilities rounds scores to 4 decimals.
func NewClassProbabilities(scores model.Scores) ClassProbabilities {
	var cp ClassProbabilities
	for i, s := range scores {
		cp[i] = Round(float64(s), 4)
	}
	return cp
}

func (cp ClassProbabilities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range cp {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(model.Category(i).String())
		buf.Write(key)
		buf.WriteByte(':')
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cp *ClassProbabilities) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*cp = ClassProbabilities{}
	for label, v := range m {
		if c, ok := model.ParseCategory(label); ok {
			cp[c] = v
		}
	}
	return nil
}

// PredictionBlock is the "prediction" object of a successful /predict.
type PredictionBlock struct {
	Label               string             `json:"label"`
	Confidence          float64            `json:"confidence"`
	ClassProbabilities  ClassProbabilities `json:"class_probabilities"`
	HandlingInstruction string             `json:"handling_instruction"`
}

// Metadata describes the upload and the processing of a prediction.
type Metadata struct {
	Filename       string  `json:"filename"`
	FileSize       int64   `json:"file_size"`
	ProcessingTime float64 `json:"processing_time"`
	ModelVersion   string  `json:"model_version"`
	RequestID      string  `json:"request_id"`
}

// PredictResponse is the success envelope of POST /predict.
type PredictResponse struct {
	Success    bool            `json:"success"`
	Prediction PredictionBlock `json:"prediction"`
	Metadata   Metadata        `json:"metadata"`
	Timestamp  string          `json:"timestamp"`
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
