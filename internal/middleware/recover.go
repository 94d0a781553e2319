package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"westwise/internal/apperror"
	"westwise/internal/dto"
	"westwise/internal/logger"
)

// RecoverMiddleware turns a handler panic into the 500 error envelope.
func RecoverMiddleware(logger *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil || rec == http.ErrAbortHandler {
				if rec != nil {
					panic(rec)
				}
				return
			}
			logger.Error("Panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(dto.NewErrorResponse(http.StatusInternalServerError, apperror.PredictionFailedMessage))
		}()
		next.ServeHTTP(w, r)
	})
}
