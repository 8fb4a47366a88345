package chans

import (
	"context"

	"github.com/zhulik/pips"
)

// Send sends v unless ctx is done first. Reports whether v was sent.
func Send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}

// Latest forwards input to the returned channel, keeping only the most recent value while the reader is busy.
// Order is preserved and the last value received before input closes is always delivered. An error element is
// terminal: it is delivered after the pending value, never in place of it, and anything received afterwards is
// discarded until input is closed or ctx is done. The returned channel is closed when input is closed, after an error element, or when ctx is done.
func Latest[T any](ctx context.Context, input <-chan pips.D[T]) <-chan pips.D[T] {
	out := make(chan pips.D[T])

	go func() {
		defer close(out)

		var pending pips.D[T]
		has := false

		for {
			if !has {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-input:
					if !ok {
						return
					}
					if _, err := d.Unpack(); err != nil {
						go drain(ctx, input)
						Send(ctx, out, d)
						return
					}
					pending, has = d, true
				}
				continue
			}

			select {
			case <-ctx.Done():
				return
			case d, ok := <-input:
				if !ok {
					Send(ctx, out, pending)
					return
				}
				if _, err := d.Unpack(); err != nil {
					go drain(ctx, input)
					if Send(ctx, out, pending) {
						Send(ctx, out, d)
					}
					return
				}
				pending = d
			case out <- pending:
				pending, has = nil, false
			}
		}
	}()

	return out
}

func drain[T any](ctx context.Context, input <-chan T) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-input:
			if !ok {
				return
			}
		}
	}
}
