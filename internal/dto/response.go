package dto

import "time"

// TimestampFormat is ISO 8601 with milliseconds.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// Now returns the current time as a response timestamp.
func Now() string {
	return FormatTimestamp(time.Now())
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

func NewErrorResponse(code int, message string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     ErrorBody{Code: code, Message: message},
		Timestamp: Now(),
	}
}

type HealthResponse struct {
	Success     bool   `json:"success"`
	Status      string `json:"status"`
	ModelStatus string `json:"model_status"`
	Timestamp   string `json:"timestamp"`
}

type ModelInfo struct {
	Type          string   `json:"type"`
	Backend       string   `json:"backend"`
	InputShape    []int64  `json:"input_shape"`
	Classes       []string `json:"classes"`
	NumClasses    int      `json:"num_classes"`
	Normalization string   `json:"normalization"`
	Version       string   `json:"version"`
}

type ModelInfoResponse struct {
	Success   bool      `json:"success"`
	Model     ModelInfo `json:"model"`
	Timestamp string    `json:"timestamp"`
}

// IndexResponse is the service banner served at the root path.
type IndexResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Timestamp string            `json:"timestamp"`
}

type StatsResponse struct {
	Success   bool        `json:"success"`
	Stats     interface{} `json:"stats"`
	Timestamp string      `json:"timestamp"`
}

// LiveEvent is pushed to websocket clients after every prediction.
type LiveEvent struct {
	Type       string          `json:"type"`
	Prediction PredictionBlock `json:"prediction"`
	Metadata   Metadata        `json:"metadata"`
	Timestamp  string          `json:"timestamp"`
}
