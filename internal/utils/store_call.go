package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const retryInitialInterval = 50 * time.Millisecond

// CallStore runs fn with a per-attempt timeout. An unavailable failure is
// retried once after a short backoff; a second failure surfaces as
// CodeUnavailable. Other errors are returned unchanged on the first attempt.
func CallStore[T any](ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval

	attempt := func() (T, error) {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		v, err := fn(callCtx)
		if err != nil && !IsUnavailable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	v, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(2),
	)
	if err == nil {
		return v, nil
	}
	if IsUnavailable(err) || ctx.Err() != nil {
		return v, E(CodeUnavailable, op, "temporarily unavailable", err)
	}
	return v, err
}
