// Package errors defines the structured error type shared by the service and
// API layers. Handlers map ErrorCode values onto HTTP status codes.
package errors

import (
	"fmt"
)

// ErrorCode identifies a specific failure class.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a missing resource.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidRating indicates a rating outside the accepted set.
	ErrCodeInvalidRating ErrorCode = "INVALID_RATING"
	// ErrCodeNotMastered indicates a re-enroll request on a non-mastered problem.
	ErrCodeNotMastered ErrorCode = "NOT_MASTERED"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeJudgeUnavailable indicates the code execution backend is not reachable.
	ErrCodeJudgeUnavailable ErrorCode = "JUDGE_UNAVAILABLE"
	// ErrCodeLLMUnavailable indicates the LLM service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeInternal indicates an unclassified internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// DomainError is a structured error carrying a stable code.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(msg string) *DomainError {
	return &DomainError{Code: ErrCodeNotFound, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *DomainError {
	return &DomainError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidRating creates an invalid rating error.
func InvalidRating(rating string) *DomainError {
	return &DomainError{Code: ErrCodeInvalidRating, Message: fmt.Sprintf("invalid rating: %s", rating)}
}

// NotMastered creates a not mastered error.
func NotMastered(msg string) *DomainError {
	return &DomainError{Code: ErrCodeNotMastered, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *DomainError {
	return &DomainError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *DomainError {
	return &DomainError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// JudgeUnavailable creates a judge unavailable error.
func JudgeUnavailable(msg string, cause error) *DomainError {
	return &DomainError{Code: ErrCodeJudgeUnavailable, Message: msg, Cause: cause}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *DomainError {
	return &DomainError{Code: ErrCodeLLMUnavailable, Message: msg}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr.Code == code
	}
	return false
}

// CodeOf extracts the error code from any error, defaulting to INTERNAL.
func CodeOf(err error) ErrorCode {
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr.Code
	}
	return ErrCodeInternal
}
