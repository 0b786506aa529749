package backends

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnhealthy signals that the backend is unreachable or unavailable,
// as opposed to a plain operational error.
var ErrUnhealthy = errors.New("backend unhealthy")

// HealthError wraps an underlying connectivity cause with operation context.
type HealthError struct {
	Op    string // logical operation, e.g. "redis:Ping", "postgres:Exec"
	Cause error
}

func (e *HealthError) Error() string {
	if e == nil {
		return ErrUnhealthy.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", ErrUnhealthy, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %v", ErrUnhealthy, e.Cause)
}

func (e *HealthError) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, ErrUnhealthy) to match wrapped health errors.
func (e *HealthError) Is(target error) bool {
	return target == ErrUnhealthy
}

// NewHealthError wraps cause as a health error with operation context.
// A nil cause yields the bare ErrUnhealthy sentinel.
func NewHealthError(op string, cause error) error {
	if cause == nil {
		return ErrUnhealthy
	}
	return &HealthError{Op: op, Cause: cause}
}

// IsHealthError reports whether err indicates the backend is unhealthy.
func IsHealthError(err error) bool {
	if errors.Is(err, ErrUnhealthy) {
		return true
	}
	var he *HealthError
	return errors.As(err, &he)
}

// MaybeConnError classifies err as a health error if its message matches any
// of the given lowercase patterns, or if it is a context cancellation or
// deadline error. Other errors are returned unchanged.
func MaybeConnError(op string, err error, patterns []string) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(errStr, pattern) {
			return NewHealthError(op, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewHealthError(op, err)
	}

	return err
}
