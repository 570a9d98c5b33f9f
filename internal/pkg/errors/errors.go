package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal            = "INTERNAL_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeRateLimited         = "RATE_LIMITED"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeLimitExceeded       = "LIMIT_EXCEEDED"
	CodeTokenBudgetExceeded = "TOKEN_BUDGET_EXCEEDED"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeAlreadyRunning      = "ALREADY_RUNNING"
	CodeWebhookVerification = "WEBHOOK_VERIFICATION_FAILED"
)

// AppError represents an application error with context
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Internal creates an internal server error
func Internal(message string) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return New(CodeForbidden, message, http.StatusForbidden)
}

// RateLimited creates a rate limited error
func RateLimited() *AppError {
	return New(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

// InvalidTransition creates an invalid state transition error carrying the
// (from, to) pair that was rejected.
func InvalidTransition(entity, from, to string) *AppError {
	return New(CodeInvalidTransition,
		fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
		http.StatusConflict).
		WithDetail("from", from).
		WithDetail("to", to)
}

// LimitExceeded creates a tenant resource limit error
func LimitExceeded(message string) *AppError {
	return New(CodeLimitExceeded, message, http.StatusForbidden)
}

// TokenBudgetExceeded creates a token budget error
func TokenBudgetExceeded(used, budget int64) *AppError {
	return New(CodeTokenBudgetExceeded,
		fmt.Sprintf("token budget exceeded: %d of %d tokens used", used, budget),
		http.StatusUnprocessableEntity)
}

// AlreadyExists creates a uniqueness conflict error
func AlreadyExists(message string) *AppError {
	return New(CodeAlreadyExists, message, http.StatusConflict)
}

// AlreadyRunning creates a concurrency precondition error
func AlreadyRunning(message string) *AppError {
	return New(CodeAlreadyRunning, message, http.StatusConflict)
}

// WebhookVerificationFailed creates a webhook signature mismatch error
func WebhookVerificationFailed() *AppError {
	return New(CodeWebhookVerification, "webhook signature verification failed", http.StatusUnauthorized)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// HasCode checks whether the error is an AppError with the given code
func HasCode(err error, code string) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// IsInvalidTransition checks if the error is an invalid transition error
func IsInvalidTransition(err error) bool {
	return HasCode(err, CodeInvalidTransition)
}

// IsTokenBudgetExceeded checks if the error is a token budget error
func IsTokenBudgetExceeded(err error) bool {
	return HasCode(err, CodeTokenBudgetExceeded)
}

// IsAlreadyExists checks if the error is a uniqueness conflict error
func IsAlreadyExists(err error) bool {
	return HasCode(err, CodeAlreadyExists)
}

// IsAlreadyRunning checks if the error is a concurrency conflict error
func IsAlreadyRunning(err error) bool {
	return HasCode(err, CodeAlreadyRunning)
}

// IsWebhookVerificationFailed checks if the error is a signature mismatch error
func IsWebhookVerificationFailed(err error) bool {
	return HasCode(err, CodeWebhookVerification)
}
