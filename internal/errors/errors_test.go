package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", io.EOF), ErrorTypeNetwork, http.StatusBadGateway},
		{"processing", NewProcessingError("failed", nil), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
		{"not found", NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"unsupported", NewUnsupportedMediaError("gif frames", nil), ErrorTypeUnsupported, http.StatusUnsupportedMediaType},
		{"storage", NewStorageError("blob", nil), ErrorTypeStorage, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, tt.err.StatusCode)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NewNetworkError("fetch failed", io.EOF)

	if got := err.Error(); got != "network: fetch failed (caused by: EOF)" {
		t.Errorf("Unexpected message: %s", got)
	}
	if err.Unwrap() != io.EOF {
		t.Error("Expected Unwrap to return the cause")
	}
	if got := NewValidationError("bad url", nil).Error(); got != "validation: bad url" {
		t.Errorf("Unexpected message: %s", got)
	}
}

func TestWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("scan: %w", NewNotFoundError("scan not found", nil))

	if !IsType(wrapped, ErrorTypeNotFound) {
		t.Error("Expected IsType to see through wrapping")
	}
	if GetStatusCode(wrapped) != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", GetStatusCode(wrapped))
	}
	if GetStatusCode(io.EOF) != http.StatusInternalServerError {
		t.Error("Expected 500 for plain errors")
	}
}

func TestWithDetails(t *testing.T) {
	base := NewValidationError("bad request", nil)
	detailed := base.WithDetails("field url is required")

	if detailed.Details != "field url is required" {
		t.Errorf("Expected details to be set, got %q", detailed.Details)
	}
	if base.Details != "" {
		t.Error("Expected original error to be unchanged")
	}
}
