package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy controls attempts, backoff growth, and the per-attempt timeout.
type Policy struct {
	MaxAttempts int           // total attempts, minimum 1
	BaseDelay   time.Duration // first backoff delay
	MaxDelay    time.Duration // backoff cap
	Timeout     time.Duration // per-attempt timeout, 0 = none
}

// Do runs op until it succeeds or the policy is exhausted. Backoff doubles
// per attempt, capped at MaxDelay, with up to 50% jitter added. The last
// error is returned after the final attempt. Context cancellation aborts
// the wait between attempts.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err = op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(backoff(p, i)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func backoff(p Policy, attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	// up to 50% jitter
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}
