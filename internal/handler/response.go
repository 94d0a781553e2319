package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"westwise/internal/apperror"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/metrics"
)

// writeJSON encodes v with the given status. Encoding happens before the
// header is written so a failure still yields the 500 envelope.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(dto.NewErrorResponse(status, apperror.PredictionFailedMessage))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// writeError sends the error envelope. Errors outside the apperror taxonomy
// become an opaque 500 and are only logged.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := http.StatusInternalServerError
	message := apperror.PredictionFailedMessage

	var he apperror.HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
		message = he.PublicMessage()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	} else {
		logger.Warning("Request rejected (%d): %v", status, err)
	}

	metrics.RequestErrors.WithLabelValues(strconv.Itoa(status)).Inc()
	writeJSON(w, logger, status, dto.NewErrorResponse(status, message))
}

// allowMethods answers 405 unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, logger *logger.Logger, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, logger, &apperror.StatusError{Code: http.StatusMethodNotAllowed, Message: "Method Not Allowed"})
	return false
}
