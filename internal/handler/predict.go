package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"westwise/internal/apperror"
	"westwise/internal/config"
	"westwise/internal/dto"
	"westwise/internal/logger"
	"westwise/internal/service"
)

// multipartOverhead is allowed on top of MaxFileSize for boundaries,
// part headers and other form fields.
const multipartOverhead = 1 << 20

// fileFields are the accepted form field names of the upload.
var fileFields = map[string]bool{"file": true, "image": true}

// PredictHandler classifies the image uploaded as multipart field "file".
func PredictHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	cfg := manager.Config()

	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, logger, http.MethodPost) {
			return
		}
		received := time.Now()

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxFileSize+multipartOverhead)
		upload, err := readUpload(r, cfg)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		upload.ReceivedAt = received

		result, err := manager.Classify(r.Context(), *upload)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warning("Prediction skipped for %s: %v", upload.Filename, err)
			return
		}
		if err != nil {
			writeError(w, logger, err)
			return
		}

		prediction, metadata := manager.Describe(*upload, result)
		writeJSON(w, logger, http.StatusOK, dto.PredictResponse{
			Success:    true,
			Prediction: prediction,
			Metadata:   metadata,
			Timestamp:  dto.Now(),
		})
	}
}

// readUpload streams the multipart body until the first file field and
// validates it: declared MIME type, then extension, then size.
func readUpload(r *http.Request, cfg *config.Config) (*service.Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &apperror.ValidationError{Message: "Request harus berupa multipart/form-data"}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, bodyError(err, cfg.MaxFileSize)
		}

		if !fileFields[part.FormName()] || part.FileName() == "" {
			part.Close()
			continue
		}

		upload, err := readFilePart(part, cfg)
		part.Close()
		return upload, err
	}

	return nil, &apperror.ValidationError{Message: "File gambar wajib diunggah"}
}

func readFilePart(part *multipart.Part, cfg *config.Config) (*service.Upload, error) {
	contentType := strings.ToLower(part.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &apperror.ValidationError{Message: "File harus berupa gambar"}
	}

	filename := part.FileName()
	if !cfg.ExtensionAllowed(filepath.Ext(filename)) {
		return nil, &apperror.ValidationError{
			Message: fmt.Sprintf("Ekstensi file tidak didukung. Gunakan: %s", strings.Join(cfg.AllowedExtensions, ", ")),
		}
	}

	data, err := io.ReadAll(io.LimitReader(part, cfg.MaxFileSize+1))
	if err != nil {
		return nil, bodyError(err, cfg.MaxFileSize)
	}
	if int64(len(data)) > cfg.MaxFileSize {
		return nil, &apperror.TooLargeError{Size: int64(len(data)), Limit: cfg.MaxFileSize}
	}

	return &service.Upload{Filename: filename, Data: data}, nil
}

func bodyError(err error, limit int64) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &apperror.TooLargeError{Limit: limit}
	}
	return &apperror.ValidationError{Message: "Request multipart tidak valid"}
}
