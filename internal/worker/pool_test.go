package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsTasks(t *testing.T) {
	p := NewPool(2, time.Second, zerolog.Nop())

	var n atomic.Int32
	for i := 0; i < 2; i++ {
		require.True(t, p.Submit("count", func(ctx context.Context) error {
			n.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.EqualValues(t, 2, n.Load())
}

func TestPool_DropsWhenSaturated(t *testing.T) {
	p := NewPool(1, time.Second, zerolog.Nop())

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Submit("block", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	assert.False(t, p.Submit("extra", func(ctx context.Context) error { return nil }))

	close(release)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	p := NewPool(1, time.Second, zerolog.Nop())
	require.NoError(t, p.Shutdown(context.Background()))

	assert.False(t, p.Submit("late", func(ctx context.Context) error { return nil }))
}

func TestPool_RecoversPanicsAndErrors(t *testing.T) {
	p := NewPool(2, time.Second, zerolog.Nop())

	require.True(t, p.Submit("panics", func(ctx context.Context) error { panic("boom") }))
	require.True(t, p.Submit("fails", func(ctx context.Context) error { return errors.New("nope") }))
	require.NoError(t, p.Shutdown(context.Background()))

	var ran atomic.Bool
	p2 := NewPool(1, time.Second, zerolog.Nop())
	require.True(t, p2.Submit("after", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}))
	require.NoError(t, p2.Shutdown(context.Background()))
	assert.True(t, ran.Load())
}

func TestPool_TaskTimeout(t *testing.T) {
	p := NewPool(1, 20*time.Millisecond, zerolog.Nop())

	errCh := make(chan error, 1)
	require.True(t, p.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}))

	require.NoError(t, p.Shutdown(context.Background()))
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}

func TestPool_ShutdownDeadlineCancelsTasks(t *testing.T) {
	p := NewPool(1, time.Hour, zerolog.Nop())

	started := make(chan struct{})
	require.True(t, p.Submit("stuck", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
}
