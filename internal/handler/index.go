package handler

import (
	"net/http"

	"westwise/internal/apperror"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/service"
)

// IndexHandler serves the API banner at "/" and the 404 envelope for every
// other unmatched path.
func IndexHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	version := manager.Config().ModelVersion

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, logger, &apperror.StatusError{Code: http.StatusNotFound, Message: "Not Found"})
			return
		}
		if !allowMethods(w, r, logger, http.MethodGet, http.MethodHead) {
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.IndexResponse{
			Success: true,
			Message: "WestWise AI Waste Classification API",
			Version: version,
			Endpoints: map[string]string{
				"predict":     "/predict - POST image for classification",
				"health":      "/health - Health check",
				"model_info":  "/model/info - Model information",
				"predictions": "/api/predictions - Prediction history",
				"stats":       "/api/predictions/stats - Prediction statistics",
				"live":        "/api/live - WebSocket feed of predictions",
				"metrics":     "/metrics - Prometheus metrics",
			},
			Timestamp: dto.Now(),
		})
	}
}
