// Package apperr defines the typed failures shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

// DefaultRetryAfter is the retry hint, in seconds, applied when the
// remote service rate-limits a call without saying how long to wait.
const DefaultRetryAfter = 60

// RateLimitedError reports that the remote service refused a call
// because of its rate limit.
type RateLimitedError struct {
	RetryAfter int // seconds
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfter)
}

// UpstreamError is any non-rate-limit failure reported by the remote
// service. It passes through the cache layer untouched.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
}

// NotFoundError reports an unknown node identifier.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node not found: %s", e.ID)
}

// ValidationError reports caller input rejected before any remote call
// is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsRateLimited reports whether err is (or wraps) a RateLimitedError.
func IsRateLimited(err error) bool {
	var e *RateLimitedError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
