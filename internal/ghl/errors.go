package ghl

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable classification of API client failures.
type ErrorKind string

const (
	// HTTP status classifications
	KindUnauthorized  ErrorKind = "unauthorized"
	KindBadRequest    ErrorKind = "bad_request"
	KindUnprocessable ErrorKind = "unprocessable"
	KindNotFound      ErrorKind = "not_found"
	KindRateLimited   ErrorKind = "rate_limited"
	KindAPIError      ErrorKind = "api_error"

	// Transport-level failure (DNS, timeout, connection refused)
	KindHTTPError ErrorKind = "http_error"

	// Detected locally, before any network call
	KindValidation    ErrorKind = "validation_error"
	KindNotConfigured ErrorKind = "not_configured"

	KindPipelineNotFound ErrorKind = "pipeline_not_found"
)

// APIError is the typed failure returned by every client method.
// Status is the HTTP status code when the error came from a response.
type APIError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ghl: %s: %s", e.Kind, e.Message)
}

// ErrNotConfigured is returned when the API key or location ID is absent.
var ErrNotConfigured = &APIError{
	Kind:    KindNotConfigured,
	Message: "API key or location ID is not configured",
}

// KindOf returns the error kind of err, or "" when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not_found API error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func validationError(field, msg string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%s: %s", field, msg),
	}
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case 401:
		return KindUnauthorized
	case 400:
		return KindBadRequest
	case 422:
		return KindUnprocessable
	case 404:
		return KindNotFound
	case 429:
		return KindRateLimited
	default:
		return KindAPIError
	}
}
