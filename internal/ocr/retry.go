package ocr

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// Retrying wraps an Engine and repeats failed recognitions. Bad input and
// cancellation are not retried.
type Retrying struct {
	Engine
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// WithRetry returns e wrapped to try each recognition up to attempts times.
// attempts below 2 returns e unchanged.
func WithRetry(e Engine, attempts int, delay time.Duration, logger *slog.Logger) Engine {
	if attempts < 2 {
		return e
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{Engine: e, attempts: uint(attempts), delay: delay, logger: logger}
}

// Recognize calls the wrapped engine until it succeeds or attempts run out.
func (r *Retrying) Recognize(ctx context.Context, in Input, progress Progress) (Result, error) {
	return retry.DoWithData(
		func() (Result, error) {
			return r.Engine.Recognize(ctx, in, progress)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("ocr attempt failed", "engine", r.Name(), "attempt", n+1, "error", err)
		}),
	)
}

func retryable(err error) bool {
	return !errors.Is(err, ErrUnsupportedMedia) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
