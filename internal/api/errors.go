package api

// errors.go defines the error codes used by the token API

import (
	"fmt"
	"strings"
)

// APIError represents a structured error returned by the token API.
type APIError struct {
	// code is the API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// details are messages returned to the client verbatim, e.g. the failures
	// reported by the authority. When empty, message is returned instead.
	details []string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *APIError) Error() string {
	msg := e.message
	if len(e.details) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.details, "; "))
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	return msg
}

func (e *APIError) Code() ErrorCode { return e.code }
func (e *APIError) Unwrap() error   { return e.wrapped }

// Details returns the messages reported to the client.
func (e *APIError) Details() []string {
	if len(e.details) == 0 {
		return []string{e.message}
	}
	out := make([]string, len(e.details))
	copy(out, e.details)
	return out
}

// ErrorCode is used in errors returned by the token API.
//
//   - 7000-7999 for technical errors - the request could not be processed as sent.
//   - 8000-8999 for functional errors - the request was valid but no token or signature could be produced.
type ErrorCode int

const (

	// ErrCodeMalformedRequest is used when the request body cannot be decoded
	ErrCodeMalformedRequest ErrorCode = 7001

	// ErrCodeValidation is used when a required parameter is missing or invalid
	ErrCodeValidation ErrorCode = 7002

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7003

	// ErrCodeRequestTooLarge is used when the request body is too large
	// - this is only used in the middleware
	ErrCodeRequestTooLarge ErrorCode = 7004

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7005

	// ErrCodeUnknownProvider is used when the provider path segment is not configured
	ErrCodeUnknownProvider ErrorCode = 8001

	// ErrCodeTokenNotFound is used when a cached-only lookup finds no live token
	ErrCodeTokenNotFound ErrorCode = 8002

	// ErrCodeTokenAcquisitionFailed is used when the authority did not issue a token
	ErrCodeTokenAcquisitionFailed ErrorCode = 8003

	// ErrCodeSignatureFailed is used when the payload could not be signed
	ErrCodeSignatureFailed ErrorCode = 8004
)

// NewMalformedRequestError creates an error for request bodies that cannot be decoded.
func NewMalformedRequestError(msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewValidationError creates a validation error for missing or invalid parameters.
func NewValidationError(msg string) error {
	return &APIError{code: ErrCodeValidation, message: msg}
}

// NewUnknownProviderError creates an error for a provider that is not configured.
func NewUnknownProviderError(provider string) error {
	return &APIError{code: ErrCodeUnknownProvider, message: fmt.Sprintf("Provider '%s' is not configured.", provider)}
}

// NewTokenNotFoundError creates an error for a cached-only lookup that found nothing.
// details are the failures reported by the token cache.
func NewTokenNotFoundError(details []string) error {
	return &APIError{code: ErrCodeTokenNotFound, message: "token not found", details: details}
}

// NewTokenAcquisitionError creates an error for a failed token acquisition.
// details are the failures reported by the broker and are returned unchanged.
func NewTokenAcquisitionError(details []string) error {
	return &APIError{code: ErrCodeTokenAcquisitionFailed, message: "token acquisition failed", details: details}
}

// NewSignatureError creates an error for a failed signing request.
// details are the failures reported by the signer and are returned unchanged.
func NewSignatureError(details []string) error {
	return &APIError{code: ErrCodeSignatureFailed, message: "signing failed", details: details}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &APIError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
func NewRequestTooLargeError(msg string) error {
	return &APIError{code: ErrCodeRequestTooLarge, message: msg}
}
