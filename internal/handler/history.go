package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"westwise/internal/apperror"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/model"
	"westwise/internal/service"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
	// maxPage keeps (page-1)*limit far from integer overflow.
	maxPage = 1_000_000
)

var errHistoryDisabled = &apperror.UnavailableError{Err: errors.New("prediction history is disabled")}

// GetPredictionsHandler returns a filtered, paginated page of the history.
func GetPredictionsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, logger, http.MethodGet) {
			return
		}
		repo := manager.History()
		if repo == nil {
			writeError(w, logger, errHistoryDisabled)
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		if page > maxPage {
			page = maxPage
		}
		limit := atoiDefault(q.Get("limit"), defaultPageSize)
		if limit > maxPageSize {
			limit = maxPageSize
		}

		filter, err := parseFilter(q.Get("label"), q.Get("minConfidence"), q.Get("dateAfter"), q.Get("dateBefore"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		filter.Limit = limit
		filter.Offset = (page - 1) * limit

		predictions, err := repo.GetAll(r.Context(), filter)
		if err != nil {
			logger.Error("Error querying predictions from database: %v", err)
			writeError(w, logger, &apperror.StatusError{Code: http.StatusInternalServerError, Message: "Gagal mengambil riwayat prediksi"})
			return
		}

		totalCount, err := repo.GetTotalCount(r.Context(), filter)
		if err != nil {
			logger.Error("Error counting predictions: %v", err)
			totalCount = filter.Offset + len(predictions)
		}

		items := make([]dto.PredictionInfo, 0, len(predictions))
		for i := range predictions {
			items = append(items, dto.NewPredictionInfo(&predictions[i]))
		}

		writeJSON(w, logger, http.StatusOK, dto.PredictionsData{
			Success:     true,
			Predictions: items,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
			Timestamp:   dto.Now(),
		})
	}
}

// PredictionStatsHandler returns totals and per-label counts.
func PredictionStatsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, logger, http.MethodGet) {
			return
		}
		repo := manager.History()
		if repo == nil {
			writeError(w, logger, errHistoryDisabled)
			return
		}

		stats, err := repo.GetStats(r.Context())
		if err != nil {
			logger.Error("Error reading prediction stats: %v", err)
			writeError(w, logger, &apperror.StatusError{Code: http.StatusInternalServerError, Message: "Gagal mengambil statistik prediksi"})
			return
		}
		stats.AverageConfidence = dto.Round(stats.AverageConfidence, 4)

		writeJSON(w, logger, http.StatusOK, dto.StatsResponse{
			Success:   true,
			Stats:     stats,
			Timestamp: dto.Now(),
		})
	}
}

// parseFilter validates the history query parameters. Empty values disable
// their filter; dateBefore includes the whole day.
func parseFilter(label, minConfidence, dateAfter, dateBefore string) (*model.PredictionFilter, error) {
	filter := &model.PredictionFilter{
		DateAfter:  parseDate(dateAfter),
		DateBefore: parseDate(dateBefore),
	}
	if !filter.DateBefore.IsZero() {
		filter.DateBefore = filter.DateBefore.Add(24*time.Hour - time.Nanosecond)
	}

	if label != "" {
		c, ok := model.ParseCategory(label)
		if !ok {
			return nil, &apperror.ValidationError{Message: fmt.Sprintf("Label tidak dikenal: %s", label)}
		}
		filter.Label = &c
	}

	if minConfidence != "" {
		v, err := strconv.ParseFloat(minConfidence, 32)
		if err != nil || v < 0 || v > 1 {
			return nil, &apperror.ValidationError{Message: "minConfidence harus antara 0 dan 1"}
		}
		filter.MinConfidence = float32(v)
	}

	return filter, nil
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
