package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err     HTTPError
		code    int
		message string
	}{
		{&ValidationError{Message: "File harus berupa gambar"}, http.StatusBadRequest, "File harus berupa gambar"},
		{&TooLargeError{Size: 11 << 20, Limit: 10 << 20}, http.StatusRequestEntityTooLarge, "File terlalu besar. Maksimal 10MB"},
		{&DecodeError{Err: errors.New("bad magic")}, http.StatusBadRequest, "Format gambar tidak valid. Gunakan JPG, PNG, GIF, BMP, atau WebP"},
		{&InferenceError{Err: errors.New("tensor mismatch")}, http.StatusInternalServerError, PredictionFailedMessage},
		{&UnavailableError{Err: errors.New("no model")}, http.StatusServiceUnavailable, "Service unavailable"},
		{&StatusError{Code: http.StatusNotFound, Message: "Not Found"}, http.StatusNotFound, "Not Found"},
	}

	for _, tt := range tests {
		if tt.err.StatusCode() != tt.code {
			t.Errorf("%T.StatusCode() = %d, expected %d", tt.err, tt.err.StatusCode(), tt.code)
		}
		if tt.err.PublicMessage() != tt.message {
			t.Errorf("%T.PublicMessage() = %q, expected %q", tt.err, tt.err.PublicMessage(), tt.message)
		}
	}
}

func TestTooLargeMessageFractionalLimit(t *testing.T) {
	tests := []struct {
		limit    int64
		expected string
	}{
		{10 << 20, "File terlalu besar. Maksimal 10MB"},
		{512 << 10, "File terlalu besar. Maksimal 0.5MB"},
		{1536 << 10, "File terlalu besar. Maksimal 1.5MB"},
		{100 << 10, "File terlalu besar. Maksimal 0.1MB"},
	}

	for _, tt := range tests {
		err := &TooLargeError{Limit: tt.limit}
		if got := err.PublicMessage(); got != tt.expected {
			t.Errorf("limit %d: got %q, expected %q", tt.limit, got, tt.expected)
		}
	}
}

func TestInternalDetailsStayPrivate(t *testing.T) {
	err := &InferenceError{Err: errors.New("onnxruntime: out of memory")}
	if err.PublicMessage() == err.Error() {
		t.Error("Public message must not expose the internal error")
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	cause := errors.New("truncated")
	wrapped := fmt.Errorf("classify: %w", &DecodeError{Err: cause})

	var he HTTPError
	if !errors.As(wrapped, &he) {
		t.Fatal("errors.As should find the HTTPError")
	}
	if he.StatusCode() != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", he.StatusCode())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected cause to be reachable with errors.Is")
	}
}
