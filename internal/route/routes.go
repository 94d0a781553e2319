package route

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"westwise/internal/handler"
	"westwise/internal/logger"
	"westwise/internal/middleware"
	"westwise/internal/service"
)

// SetupRoutes registers the API endpoints and wraps the mux with the
// request log, panic recovery and CORS middleware.
func SetupRoutes(manager *service.Manager, logger *logger.Logger) http.Handler {
	cfg := manager.Config()
	mux := http.NewServeMux()

	// Classification
	mux.HandleFunc("/predict", handler.PredictHandler(manager, logger))
	mux.HandleFunc("/health", handler.HealthHandler(manager, logger))
	mux.HandleFunc("/model/info", handler.ModelInfoHandler(manager, logger))

	// History and live feed
	mux.HandleFunc("/api/predictions", handler.GetPredictionsHandler(manager, logger))
	mux.HandleFunc("/api/predictions/stats", handler.PredictionStatsHandler(manager, logger))
	mux.HandleFunc("/api/live", handler.LiveWebsocketHandler(manager, logger))

	// Operations
	mux.HandleFunc("/logs/{level}", handler.LogsHandler(cfg, logger))
	mux.Handle("/metrics", promhttp.Handler())

	// Banner, and the 404 envelope for everything else
	mux.HandleFunc("/", handler.IndexHandler(manager, logger))

	var h http.Handler = mux
	h = middleware.CORSMiddleware(cfg.CORSOrigins, h)
	h = middleware.RecoverMiddleware(logger, h)
	h = middleware.LoggingMiddleware(logger, h)
	return h
}
