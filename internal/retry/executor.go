package retry

import (
	"context"
	"time"

	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

// RetryFunc is called before each retry with the zero-indexed attempt,
// the error that caused it and the delay about to be waited.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Executor runs an operation until it succeeds, fails permanently or runs
// out of attempts. It is safe for concurrent use.
type Executor struct {
	classifier bookshelf.ErrorClassifier
	strategy   bookshelf.BackoffStrategy
	onRetry    RetryFunc
}

// NewExecutor creates an executor. Panics if classifier or strategy is nil.
func NewExecutor(classifier bookshelf.ErrorClassifier, strategy bookshelf.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of the executor that calls fn before each retry.
func (e *Executor) WithOnRetry(fn RetryFunc) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute calls operation and retries it while the classifier reports its
// error as transient. The last error is returned when attempts run out;
// the context error is returned when ctx ends during a wait.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()

	err := operation(ctx)
	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}
	return err
}
