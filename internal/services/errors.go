package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before any I/O.
	ErrValidation = errors.New("validation error")
	// ErrQuota marks a denied quota decision. Never retried.
	ErrQuota = errors.New("quota exceeded")
	// ErrTransient marks network failures worth a bounded retry.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks a timed-out call; treated as transient for retries.
	ErrTimeout = errors.New("timeout")
	// ErrDecoding marks a malformed backend JSON payload.
	ErrDecoding = errors.New("backend decoding error")
	// ErrNotFound marks a missing remote resource (e.g. no transcript for a language).
	ErrNotFound = errors.New("not found")
	// ErrPartialFetch marks a pipeline that proceeded with degraded inputs.
	ErrPartialFetch = errors.New("partial fetch failure")
	// ErrLockHeld marks a duplicate invocation rejected by the invocation lock.
	ErrLockHeld = errors.New("invocation lock held")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the caller may retry the failed operation.
// Validation, quota, and duplicate-invocation failures are never retried.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrQuota),
		errors.Is(err, ErrLockHeld),
		errors.Is(err, ErrNotFound):
		return false
	case errors.Is(err, ErrTransient),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrPartialFetch),
		errors.Is(err, ErrDecoding):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
