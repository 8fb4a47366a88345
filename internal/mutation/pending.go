package mutation

import (
	"context"
	"errors"
	"sync/atomic"

	"instafeed/pkg/async"
)

var ErrNotStarted = errors.New("mutation not started")

type State int32

const (
	Idle State = iota
	Submitting
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pending is a single mutation attempt. Failed and Committed are terminal; retrying means a new Pending.
type Pending[T any] struct {
	fn    func(context.Context) (T, error)
	state atomic.Int32
	job   atomic.Pointer[async.JobHandle[T]]
}

func NewPending[T any](fn func(context.Context) (T, error)) *Pending[T] {
	return &Pending[T]{fn: fn}
}

// Dispatch starts fn right away and returns its Pending.
func Dispatch[T any](ctx context.Context, fn func(context.Context) (T, error)) *Pending[T] {
	p := NewPending(fn)
	p.Start(ctx)
	return p
}

// Start issues the mutation. Once started it is not canceled by ctx. Calling Start again is a no-op.
func (p *Pending[T]) Start(ctx context.Context) {
	if !p.state.CompareAndSwap(int32(Idle), int32(Submitting)) {
		return
	}

	p.job.Store(async.Job(ctx, func(ctx context.Context) (T, error) {
		res, err := p.fn(ctx)
		if err != nil {
			p.state.Store(int32(Failed))
		} else {
			p.state.Store(int32(Committed))
		}
		return res, err
	}))
}

func (p *Pending[T]) State() State {
	return State(p.state.Load())
}

// Wait blocks until the mutation is finished or ctx is done. Waiting on an Idle mutation returns ErrNotStarted.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	job := p.job.Load()
	if job == nil {
		var zero T
		return zero, ErrNotStarted
	}
	return job.Wait(ctx)
}
