// Package retry provides a generic executor for fallible operations with
// per-attempt timeout racing, exponential backoff, and error classification.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptTimeout is the synthetic error raised when a single attempt
// exceeds the per-attempt timeout. The underlying operation is not guaranteed
// cancelled; only its result is discarded.
var ErrAttemptTimeout = errors.New("retry: attempt timed out")

// Policy configures the executor. The zero value is normalised to a single
// attempt with no timeout.
type Policy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	PerAttemptTimeout time.Duration

	// Classify decides retryability of an attempt error. Nil means
	// DefaultClassifier.
	Classify func(error) bool

	// Sleep is the inter-attempt wait, injectable for tests. Nil sleeps on
	// a timer honouring ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BackoffMultiplier <= 0 {
		p.BackoffMultiplier = 1
	}
	if p.Classify == nil {
		p.Classify = DefaultClassifier
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	return p
}

// DelayFor returns the backoff delay preceding the given retry (1-based:
// DelayFor(1) is the wait after the first failed attempt).
func (p Policy) DelayFor(retry int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < retry; i++ {
		d *= p.BackoffMultiplier
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs op until it succeeds, fails fatally, or MaxAttempts retryable
// failures have been consumed; the last error is then returned. Each attempt
// races op against PerAttemptTimeout. A cancelled outer context aborts
// immediately with ctx.Err().
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := runAttempt(ctx, p.PerAttemptTimeout, op)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !p.Classify(err) {
			return zero, err
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.Sleep(ctx, p.DelayFor(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

type attemptResult[T any] struct {
	value T
	err   error
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		return op(ctx)
	}

	// Buffered so an abandoned attempt can still complete its send.
	ch := make(chan attemptResult[T], 1)
	go func() {
		v, err := op(ctx)
		ch <- attemptResult[T]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-timer.C:
		return zero, ErrAttemptTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
