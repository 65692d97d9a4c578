package retry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/filehash-cache/pkg/failure"
	"github.com/rohmanhakim/filehash-cache/pkg/timeutil"
)

// Retry executes fn up to MaxAttempts times, sleeping with exponential backoff
// and seeded jitter between attempts. Only errors with SeverityRecoverable are
// retried; a fatal error is returned as-is after the attempt that produced it.
//
// onRetry, when non-nil, is called before each sleep with the failed attempt
// number, its error and the upcoming delay.
func Retry[T any](
	retryParam RetryParam,
	fn func() (T, failure.ClassifiedError),
	onRetry func(attempt int, err failure.ClassifiedError, delay time.Duration),
) Result[T] {
	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: false,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		value, err := fn()
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		if err.Severity() != failure.SeverityRecoverable {
			return Result[T]{err: err, attempts: attempt}
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			rng,
			retryParam.BackoffParam,
		)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
		time.Sleep(delay)
	}

	return Result[T]{
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: false,
			Last:      lastErr,
		},
		attempts: retryParam.MaxAttempts,
	}
}
