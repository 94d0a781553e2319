// Package apperror defines the client-facing error taxonomy of the service.
// Every error carries the HTTP status it maps to and a message that is safe
// to show to a client.
package apperror

import (
	"fmt"
	"net/http"
	"strconv"
)

// HTTPError is implemented by all errors in this package.
type HTTPError interface {
	error
	StatusCode() int
	PublicMessage() string
}

// ValidationError reports a bad upload (MIME type, extension, missing file).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string         { return "validation: " + e.Message }
func (e *ValidationError) StatusCode() int       { return http.StatusBadRequest }
func (e *ValidationError) PublicMessage() string { return e.Message }

// TooLargeError reports an upload above the configured size limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	if e.Size <= 0 {
		return fmt.Sprintf("upload exceeds limit of %d bytes", e.Limit)
	}
	return fmt.Sprintf("upload of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *TooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }

func (e *TooLargeError) PublicMessage() string {
	return fmt.Sprintf("File terlalu besar. Maksimal %sMB", formatMiB(e.Limit))
}

// formatMiB renders n bytes in MiB, with one decimal unless it is whole.
func formatMiB(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return strconv.FormatInt(n/mib, 10)
	}
	return strconv.FormatFloat(float64(n)/mib, 'f', 1, 64)
}

// DecodeError reports bytes that are not a supported image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string   { return fmt.Sprintf("decode image: %v", e.Err) }
func (e *DecodeError) Unwrap() error   { return e.Err }
func (e *DecodeError) StatusCode() int { return http.StatusBadRequest }

func (e *DecodeError) PublicMessage() string {
	return "Format gambar tidak valid. Gunakan JPG, PNG, GIF, BMP, atau WebP"
}

// InferenceError reports a tensor mismatch or a backend failure.
// Its details are never sent to the client.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string         { return fmt.Sprintf("inference: %v", e.Err) }
func (e *InferenceError) Unwrap() error         { return e.Err }
func (e *InferenceError) StatusCode() int       { return http.StatusInternalServerError }
func (e *InferenceError) PublicMessage() string { return PredictionFailedMessage }

// UnavailableError reports a failed health check.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string         { return fmt.Sprintf("service unavailable: %v", e.Err) }
func (e *UnavailableError) Unwrap() error         { return e.Err }
func (e *UnavailableError) StatusCode() int       { return http.StatusServiceUnavailable }
func (e *UnavailableError) PublicMessage() string { return "Service unavailable" }

// PredictionFailedMessage is the opaque message used for any internal failure.
const PredictionFailedMessage = "Gagal melakukan prediksi"

// StatusError carries an arbitrary status, e.g. 404 or 405 from routing.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string         { return fmt.Sprintf("%d: %s", e.Code, e.Message) }
func (e *StatusError) StatusCode() int       { return e.Code }
func (e *StatusError) PublicMessage() string { return e.Message }
