package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"westwise/internal/apperror"
	"westwise/internal/config"
	"westwise/internal/logger"
)

// logFiles maps the {level} path value to its file in LOG_DIR.
var logFiles = map[string]string{
	"info":    "info.log",
	"warning": "warning.log",
	"error":   "error.log",
}

// LogsHandler serves /logs/{level}: GET returns the file as text/plain and
// DELETE truncates it.
func LogsHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename, ok := logFiles[r.PathValue("level")]
		if !ok {
			writeError(w, logger, &apperror.StatusError{Code: http.StatusNotFound, Message: "Not Found"})
			return
		}
		if !allowMethods(w, r, logger, http.MethodGet, http.MethodDelete) {
			return
		}

		if r.Method == http.MethodDelete {
			if err := logger.CleanLogs(filename); err != nil {
				writeError(w, logger, &apperror.StatusError{Code: http.StatusNotFound, Message: "Log file not found: " + filename})
				return
			}
			logger.Info("Cleared %s", filename)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		serveLogFile(w, r, cfg.LogDirectory, filename)
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}
