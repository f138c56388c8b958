package api

// responses.go provides the response types of the token API and helpers for sending them.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/oms-authenticator/internal/logger"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

// TokenResponse is returned when a token was issued or found in the cache.
type TokenResponse struct {
	// Token is the opaque bearer token issued by the authority
	Token string `json:"token" example:"eyJhbGciOiJSUzI1NiJ9.eyJwaWQiOiIxIn0.c2ln"`

	// Expires is when the token stops being served from the cache
	Expires time.Time `json:"expires" example:"2026-01-28T20:00:00Z"`

	// RequestID identifies the acquisition that produced the token.
	// Generated by the service when the request did not carry one.
	RequestID string `json:"requestId" example:"7d3c1c9e-8a1f-4c38-9a43-2c5e0f3c9b11"`
}

// NewTokenResponse converts a token to its response form.
func NewTokenResponse(t token.Token) TokenResponse {
	return TokenResponse{Token: t.Value, Expires: t.ExpiresAt, RequestID: t.RequestID}
}

// SignatureRequest is the body of POST /api/v2/{provider}/signature.
type SignatureRequest struct {
	// PayloadBase64 is the base64 encoded payload to sign
	PayloadBase64 *string `json:"payloadBase64" example:"eyJkb2N1bWVudCI6IjEifQ=="`
}

// SignatureResponse is returned when a payload was signed.
type SignatureResponse struct {
	// Signature is the detached signature produced by the signer
	Signature string `json:"signature" example:"MIIGxQYJKoZIhvcNAQcCoIIGtjCCBrICAQExDjAMBggqhQMHAQECAgUA"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	// Errors lists the reasons the request failed, in the order they occurred
	Errors []string `json:"errors" example:"Query string parameter 'omsid' is required."`
}

// StatusFor returns the HTTP status used for an error code.
func StatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeMalformedRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUnknownProvider, ErrCodeTokenNotFound:
		return http.StatusNotFound
	case ErrCodeTokenAcquisitionFailed, ErrCodeSignatureFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToResponse maps an error to the status code and body returned to the client.
//
// Internal errors are sanitized for the response; the full error is logged server-side.
func MapErrorToResponse(err error, r *http.Request) (int, *ErrorResponse) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code() != ErrCodeInternalError {
		return StatusFor(apiErr.Code()), &ErrorResponse{Errors: apiErr.Details()}
	}

	if apiErr == nil {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
			slog.String("error_type", fmt.Sprintf("%T", err)),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
	return http.StatusInternalServerError, &ErrorResponse{Errors: []string{"An internal error occurred"}}
}

// RespondWithErrorResponse logs err and sends the matching error response.
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, errorResponse := MapErrorToResponse(err, r)

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Warn("Request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	RespondWithJSONPayload(w, statusCode, errorResponse)
}

// RespondWithJSONPayload sends a JSON response with the given status code
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// headers are already written
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}
