package snapshot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"poolsim/internal/model"
)

// retryPolicy retries RPC reads with exponential backoff.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

// retryable reports whether another attempt could succeed. Engine errors are
// deterministic and context errors are final.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrBounds),
		errors.Is(err, model.ErrComputation), errors.Is(err, model.ErrLookup):
		return false
	default:
		return true
	}
}

func withRetry[T any](ctx context.Context, policy retryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	maxRetries := max(policy.maxRetries, 0)
	delay := policy.baseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	logger := policy.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return value, err
		}
		logger.Warn("rpc call failed, retrying", zap.String("op", op), zap.Int("attempt", attempt+1), zap.Duration("backoff", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
