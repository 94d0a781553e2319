package handler

import (
	"net/http"

	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/service"
)

// HealthHandler runs a smoke-test inference and reports 503 when it fails.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, logger, http.MethodGet, http.MethodHead) {
			return
		}

		if err := manager.Health(); err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.HealthResponse{
			Success:     true,
			Status:      "healthy",
			ModelStatus: "loaded",
			Timestamp:   dto.Now(),
		})
	}
}

// ModelInfoHandler describes the loaded classifier.
func ModelInfoHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, logger, http.MethodGet, http.MethodHead) {
			return
		}

		writeJSON(w, logger, http.StatusOK, dto.ModelInfoResponse{
			Success:   true,
			Model:     manager.ModelInfo(),
			Timestamp: dto.Now(),
		})
	}
}
