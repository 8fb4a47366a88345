package mutation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"instafeed/internal/mutation"
)

func TestPending(t *testing.T) {
	t.Parallel()

	t.Run("committed", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		p := mutation.NewPending(func(context.Context) (string, error) {
			<-release
			return "p1", nil
		})
		require.Equal(t, mutation.Idle, p.State())

		_, err := p.Wait(t.Context())
		require.ErrorIs(t, err, mutation.ErrNotStarted)

		p.Start(t.Context())
		require.Equal(t, mutation.Submitting, p.State())
		close(release)

		id, err := p.Wait(t.Context())
		require.NoError(t, err)
		require.Equal(t, "p1", id)
		require.Equal(t, mutation.Committed, p.State())
	})

	t.Run("failed is terminal", func(t *testing.T) {
		t.Parallel()

		calls := 0
		p := mutation.Dispatch(t.Context(), func(context.Context) (any, error) {
			calls++
			return nil, testErr
		})

		_, err := p.Wait(t.Context())
		require.ErrorIs(t, err, testErr)
		require.Equal(t, mutation.Failed, p.State())

		p.Start(t.Context())
		_, err = p.Wait(t.Context())
		require.ErrorIs(t, err, testErr)
		require.Equal(t, 1, calls)
	})

	t.Run("survives caller cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		release := make(chan struct{})

		p := mutation.Dispatch(ctx, func(ctx context.Context) (bool, error) {
			<-release
			return ctx.Err() == nil, nil
		})
		cancel()
		close(release)

		ok, err := p.Wait(t.Context())
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, mutation.Committed, p.State())
	})
}
