package retry

import (
	"context"
	"errors"
	"fmt"
)

var ErrExhausted = errors.New("retry attempts exhausted")

type fn func() error
type shouldRetry func(err error, attempt int) bool

// Do calls f up to attempts times while shouldRetry accepts its error. ctx is checked before every attempt.
// When the attempts run out the last error is wrapped with ErrExhausted.
func Do(ctx context.Context, attempts int, shouldRetry shouldRetry, f fn) error {
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = f()
		if err == nil || !shouldRetry(err, attempt) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrExhausted, err)
}
