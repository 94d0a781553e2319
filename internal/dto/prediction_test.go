package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"westwise/internal/model"
)

func TestClassProbabilities_OrderedLabels(t *testing.T) {
	var scores model.Scores
	for i := range scores {
		scores[i] = float32(i) / 100
	}

	data, err := json.Marshal(NewClassProbabilities(scores))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	last := -1
	for _, name := range model.CategoryNames() {
		idx := strings.Index(s, `"`+name+`"`)
		if idx < 0 {
			t.Fatalf("Label %s missing from %s", name, s)
		}
		if idx < last {
			t.Errorf("Label %s out of order in %s", name, s)
		}
		last = idx
	}

	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Output is not a JSON object: %v", err)
	}
	if len(m) != model.NumCategories {
		t.Errorf("Expected %d labels, got %d", model.NumCategories, len(m))
	}
	if m["Trash"] != 0.09 {
		t.Errorf("Expected Trash 0.09, got %v", m["Trash"])
	}
}

func TestClassProbabilities_RoundTrip(t *testing.T) {
	var scores model.Scores
	scores[model.Bottle] = 0.912345
	cp := NewClassProbabilities(scores)

	data, _ := json.Marshal(cp)
	var back ClassProbabilities
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != cp {
		t.Errorf("Round trip mismatch: %v vs %v", back, cp)
	}
	if back[model.Bottle] != 0.9123 {
		t.Errorf("Expected rounding to 0.9123, got %v", back[model.Bottle])
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v        float64
		places   int
		expected float64
	}{
		{0.123456, 4, 0.1235},
		{2.5, 0, 3},
		{-1.25, 1, -1.3},
		{1.23449, 3, 1.234},
		{0, 4, 0},
	}

	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.expected {
			t.Errorf("Round(%v, %d) = %v, expected %v", tt.v, tt.places, got, tt.expected)
		}
	}
}

func TestPredictionInfo_MarshalJSON(t *testing.T) {
	p := &model.Prediction{
		ID:             7,
		RequestID:      "r",
		Filename:       "a.png",
		Label:          model.Shoes,
		Confidence:     0.5,
		ProcessingTime: 1234 * time.Millisecond,
		CreatedAt:      time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(NewPredictionInfo(p))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]interface{}
	json.Unmarshal(data, &m)
	if m["created_at"] != "2026-06-01T12:00:00.000Z" {
		t.Errorf("Unexpected created_at %v", m["created_at"])
	}
	if m["label"] != "Shoes" {
		t.Errorf("Unexpected label %v", m["label"])
	}
	if m["processing_time"] != 1.234 {
		t.Errorf("Unexpected processing_time %v", m["processing_time"])
	}
}
