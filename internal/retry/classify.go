package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// statusCoder is implemented by provider errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// retryable is implemented by errors that decide retryability themselves.
type retryable interface {
	Retryable() bool
}

// Retryable error signals: rate-limit, overload, service-unavailable,
// timeout, connection-reset, and generic network failures. Anything else is
// fatal and surfaced without consuming further attempts.
var retryableSignals = []string{
	"rate limit",
	"too many requests",
	"overloaded",
	"service unavailable",
	"temporarily unavailable",
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"broken pipe",
	"network",
}

// DefaultClassifier reports whether an attempt error is worth retrying.
func DefaultClassifier(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return retryableStatus(sc.HTTPStatus())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range retryableSignals {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
