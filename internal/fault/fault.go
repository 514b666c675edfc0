// Package fault defines the error taxonomy shared across all layers.
// Every error a handler needs to distinguish unwraps to one of the
// sentinels below; anything else is treated as an internal error.
package fault

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("rate limited")
	ErrUpstream    = errors.New("upstream failure")
)

// ValidationError reports an empty or malformed required input.
// Raised before any collaborator call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown record id or a consumed/expired
// undo token.
type NotFoundError struct {
	Resource string
	ID       string
	Message  string // optional override for user-facing text
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RateLimitedError reports upstream quota exhaustion. RetryAfter is
// the upstream's hint in seconds; clients may wait and retry.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// UpstreamError reports any other collaborator failure, including
// timeouts. The operation that hit it carries no partial writes.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
