package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FailureKind classifies provider failures for the caller's retry policy
type FailureKind string

const (
	// FailureTransient covers timeouts, rate limiting and 5xx: the
	// caller may retry on its next natural schedule
	FailureTransient FailureKind = "transient"

	// FailurePermanent covers malformed or schema-invalid responses
	// and non-retryable 4xx: not retried automatically
	FailurePermanent FailureKind = "permanent"
)

// ProviderError is a classified provider failure
type ProviderError struct {
	Err    error
	Kind   FailureKind
	Status int
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider %s failure (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s failure: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transient provider failure
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == FailureTransient
}

// IsPermanent reports whether err is a permanent provider failure
func IsPermanent(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == FailurePermanent
}

func transientErr(status int, err error) *ProviderError {
	return &ProviderError{Kind: FailureTransient, Status: status, Err: err}
}

func permanentErr(status int, err error) *ProviderError {
	return &ProviderError{Kind: FailurePermanent, Status: status, Err: err}
}

// classifyStatus maps an HTTP status to a failure kind.
// Rate limiting and server errors are worth retrying later.
func classifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return FailureTransient
	case status >= 500:
		return FailureTransient
	default:
		return FailurePermanent
	}
}

// retryableNetErr reports whether the transport error is worth an
// immediate retry: dials, resets, deadline timeouts. Context
// cancellation from the caller is not retried.
func retryableNetErr(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
