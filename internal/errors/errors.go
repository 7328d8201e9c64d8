// Package errors defines the ServiceError type returned across HTTP boundaries.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeValidation   ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeRateLimited  ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeLedger       ErrorCode = "LEDGER_ERROR"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
)

// ServiceError carries an HTTP status and code alongside the underlying cause.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a detail field and returns the same error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a ServiceError.
func New(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

func BadRequest(message string) *ServiceError {
	return New(CodeBadRequest, http.StatusBadRequest, message, nil)
}

// Validation wraps a field validation failure.
func Validation(err error) *ServiceError {
	return New(CodeValidation, http.StatusBadRequest, err.Error(), err)
}

func Unauthorized(message string) *ServiceError {
	return New(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

func Forbidden(message string, err error) *ServiceError {
	return New(CodeForbidden, http.StatusForbidden, message, err)
}

func NotFound(resource, id string) *ServiceError {
	return New(CodeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource), nil).WithDetails("id", id)
}

func Conflict(message string, err error) *ServiceError {
	return New(CodeConflict, http.StatusConflict, message, err)
}

func RateLimitExceeded(limit int, window string) *ServiceError {
	return New(CodeRateLimited, http.StatusTooManyRequests, "Rate limit exceeded", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Ledger reports a failure returned by, or while talking to, the XRPL node.
// The status stays 500 to keep the gateway's historical contract.
func Ledger(err error) *ServiceError {
	return New(CodeLedger, http.StatusInternalServerError, err.Error(), err)
}

func Internal(message string, err error) *ServiceError {
	return New(CodeInternal, http.StatusInternalServerError, message, err)
}

func Unavailable(message string) *ServiceError {
	return New(CodeUnavailable, http.StatusServiceUnavailable, message, nil)
}

// GetServiceError returns the ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// HTTPStatus returns the status for err, defaulting to 500.
func HTTPStatus(err error) int {
	if se := GetServiceError(err); se != nil && se.HTTPStatus != 0 {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}
