package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// sanity check that the error codes are in the correct range
func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		errCode  ErrorCode
		wantCode int
	}{
		{"malformed_request", ErrCodeMalformedRequest, 7001},
		{"validation", ErrCodeValidation, 7002},
		{"rate_limit", ErrCodeRateLimitExceeded, 7003},
		{"request_too_large", ErrCodeRequestTooLarge, 7004},
		{"internal_error", ErrCodeInternalError, 7005},
		{"unknown_provider", ErrCodeUnknownProvider, 8001},
		{"token_not_found", ErrCodeTokenNotFound, 8002},
		{"token_acquisition_failed", ErrCodeTokenAcquisitionFailed, 8003},
		{"signature_failed", ErrCodeSignatureFailed, 8004},
	}
	for _, tt := range tests {
		if int(tt.errCode) != tt.wantCode {
			t.Errorf("%s: got %d, want %d", tt.name, tt.errCode, tt.wantCode)
		}
	}
}

func TestMapErrorToResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantErrors []string
	}{
		{"validation", NewValidationError("Query string parameter 'omsid' is required."), http.StatusBadRequest, []string{"Query string parameter 'omsid' is required."}},
		{"malformed", WrapMalformedRequestError(errors.New("unexpected EOF"), "Invalid request."), http.StatusBadRequest, []string{"Invalid request."}},
		{"unknown provider", NewUnknownProviderError("nope"), http.StatusNotFound, []string{"Provider 'nope' is not configured."}},
		{"not found", NewTokenNotFoundError([]string{"Token does not exist"}), http.StatusNotFound, []string{"Token does not exist"}},
		{"acquisition keeps every message in order", NewTokenAcquisitionError([]string{"first", "second"}), http.StatusUnprocessableEntity, []string{"first", "second"}},
		{"signature", NewSignatureError([]string{"[signdata] no certificate"}), http.StatusUnprocessableEntity, []string{"[signdata] no certificate"}},
		{"rate limit", NewRateLimitError("slow down"), http.StatusTooManyRequests, []string{"slow down"}},
		{"too large", NewRequestTooLargeError("too big"), http.StatusRequestEntityTooLarge, []string{"too big"}},
		{"wrapped api error", fmt.Errorf("handler: %w", NewValidationError("bad")), http.StatusBadRequest, []string{"bad"}},
		{"internal errors are sanitized", WrapInternalError(errors.New("secret detail"), "boom"), http.StatusInternalServerError, []string{"An internal error occurred"}},
		{"unmapped errors are sanitized", errors.New("raw"), http.StatusInternalServerError, []string{"An internal error occurred"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			status, resp := MapErrorToResponse(tt.err, req)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if !reflect.DeepEqual(resp.Errors, tt.wantErrors) {
				t.Errorf("errors = %q, want %q", resp.Errors, tt.wantErrors)
			}
		})
	}
}

func TestRespondWithErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithErrorResponse(rr, req, NewTokenAcquisitionError([]string{"StatusCode: 400", "boom"}))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !reflect.DeepEqual(body["errors"], []string{"StatusCode: 400", "boom"}) {
		t.Errorf("errors = %q", body["errors"])
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := NewTokenAcquisitionError([]string{"a", "b"})
	if got := err.Error(); got != "token acquisition failed: a; b" {
		t.Errorf("Error() = %q", got)
	}

	inner := errors.New("inner")
	wrapped := WrapInternalError(inner, "outer")
	if !errors.Is(wrapped, inner) {
		t.Error("wrapped error not reachable with errors.Is")
	}
}
