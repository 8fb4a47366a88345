package async

import (
	"context"
	"sync/atomic"
)

// JobHandle tracks a job started with Job.
type JobHandle[T any] struct {
	done     chan struct{}
	result   Result[T]
	finished atomic.Bool
}

// Job runs job in its own goroutine. The job context keeps ctx values but is never canceled by ctx: once issued,
// a job runs to completion.
func Job[T any](ctx context.Context, job func(ctx context.Context) (T, error)) *JobHandle[T] {
	handle := &JobHandle[T]{
		done: make(chan struct{}),
	}

	go func() {
		defer close(handle.done)

		handle.result = NewResult(job(context.WithoutCancel(ctx)))
		handle.finished.Store(true)
	}()

	return handle
}

// Wait blocks until the job is finished or ctx is done.
func (j *JobHandle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-j.done:
		return j.result.Unpack()
	}
}

func (j *JobHandle[T]) Done() <-chan struct{} {
	return j.done
}

// Finished reports whether the job returned.
func (j *JobHandle[T]) Finished() bool {
	return j.finished.Load()
}

// Error returns the job error, nil while the job is running.
func (j *JobHandle[T]) Error() error {
	if !j.finished.Load() {
		return nil
	}
	return j.result.Err
}
