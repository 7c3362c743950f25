package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hupe1980/agentcrew/core"
)

// RetryPolicy controls turn-level retries of retryable model and tool
// failures. Attempts are 1 + MaxRetries. Backoff grows by Multiplier from
// InitialBackoff and is capped at MaxBackoff.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy returns 2 retries with 500ms, 1s backoff capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
	}
}

// NoRetry disables retries.
func NoRetry() RetryPolicy { return RetryPolicy{} }

func (p RetryPolicy) validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("retry: max retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.InitialBackoff < 0 || p.MaxBackoff < 0 {
		return errors.New("retry: backoff must not be negative")
	}
	return nil
}

// exponential builds the deterministic backoff schedule of p.
func (p RetryPolicy) exponential() *backoff.ExponentialBackOff {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	initial := p.InitialBackoff
	maxInterval := p.MaxBackoff
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	} else if initial > maxInterval {
		initial = maxInterval
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          mult,
		MaxInterval:         maxInterval,
	}
	b.Reset()
	return b
}

// Backoff returns the delay before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	b := p.exponential()
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

// retryHook observes a scheduled retry.
type retryHook func(attempt int, delay time.Duration, err error)

// do runs fn until it succeeds, fails with a non-retryable error, or the
// retries are spent. It returns the number of attempts made. Cancellation of
// ctx, including during backoff, is reported as core.ErrCancelled.
func (p RetryPolicy) do(ctx context.Context, fn func(ctx context.Context) error, onRetry retryHook) (int, error) {
	attempts := 0
	operation := func() (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(core.Cancelled(err))
		}

		attempts++
		err := fn(ctx)
		switch {
		case err == nil:
			return struct{}{}, nil
		case ctx.Err() != nil:
			return struct{}{}, backoff.Permanent(core.Cancelled(ctx.Err()))
		case !core.IsRetryable(err):
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.exponential()),
		backoff.WithMaxTries(uint(p.MaxRetries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if onRetry != nil {
				onRetry(attempts, delay, err)
			}
		}),
	)
	if err == nil {
		return attempts, nil
	}

	// The attempt limit is checked before permanent errors are unwrapped.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, core.ErrCancelled) {
		return attempts, core.Cancelled(ctxErr)
	}
	return attempts, err
}

// callWithTimeout runs fn under a per-call deadline. A deadline that fires
// while the parent is still alive is reported as a retryable error of kind.
func callWithTimeout(ctx context.Context, timeout time.Duration, kind core.ErrorKind, source string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(kind, source, 0, fmt.Errorf("call timed out after %s: %w", timeout, err))
	}
	return err
}
