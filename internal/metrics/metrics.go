package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "westwise_inference_duration_seconds",
	Help:    "Time spent inside the model backend per classification",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
})

// InferenceLockWait measures how long a request queued for the model.
var InferenceLockWait = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "westwise_inference_lock_wait_seconds",
	Help:    "Time spent waiting for exclusive access to the model",
	Buckets: prometheus.ExponentialBuckets(0.0001, 2, 18),
})

var InferenceFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "westwise_inference_failures_total",
	Help: "Inference calls that returned an error",
})

var PreprocessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "westwise_preprocess_duration_seconds",
	Help:    "Time spent decoding, resizing and normalizing uploads",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
})

var Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "westwise_predictions_total",
	Help: "Successful predictions by top-1 label",
}, []string{"label"})

var RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "westwise_request_errors_total",
	Help: "Error responses by HTTP status code",
}, []string{"code"})

var HistoryDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "westwise_history_dropped_total",
	Help: "Prediction records dropped because the history buffer was full",
})
