package model

import "time"

// Scores holds the raw per-class model output in category order.
type Scores [NumCategories]float32

// Top returns the highest scoring category and its score.
// Ties resolve to the lowest index.
func (s Scores) Top() (Category, float32) {
	best := 0
	for i := 1; i < NumCategories; i++ {
		if s[i] > s[best] {
			best = i
		}
	}
	return Category(best), s[best]
}

// Prediction is a single classification stored in the history.
type Prediction struct {
	ID             int64
	RequestID      string
	Filename       string
	FileSize       int64
	Label          Category
	Confidence     float32
	Probabilities  Scores
	ProcessingTime time.Duration
	ModelVersion   string
	CreatedAt      time.Time
}

// PredictionFilter narrows history queries. Zero values disable a filter.
type PredictionFilter struct {
	Label         *Category
	MinConfidence float32
	DateAfter     time.Time
	DateBefore    time.Time
	Limit         int
	Offset        int
}

// PredictionStats summarises the stored history.
type PredictionStats struct {
	TotalPredictions  int            `json:"total_predictions"`
	AverageConfidence float64        `json:"average_confidence"`
	PerLabel          map[string]int `json:"per_label"`
}
