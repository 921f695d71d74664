package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/async"
)

func TestAsync_Await(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return n * 2, nil
	})

	result, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, future.IsComplete())
}

func TestAsync_ErrorPropagation(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("boom")
	future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (int, error) {
		return 0, expectedErr
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, expectedErr)
}

func TestAsync_PanicRecovered(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), "x", func(ctx context.Context, _ string) (string, error) {
		panic("handler exploded")
	})

	result, err := future.Await()
	assert.ErrorIs(t, err, async.ErrPanic)
	assert.Contains(t, err.Error(), "handler exploded")
	assert.Empty(t, result)
}

func TestAsync_PreCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	future := async.Async(ctx, 1, func(ctx context.Context, _ int) (int, error) {
		called = true
		return 1, nil
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestFuture_AwaitWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("completes before timeout", func(t *testing.T) {
		t.Parallel()

		future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (string, error) {
			return "success", nil
		})

		result, err := future.AwaitWithTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, "success", result)
	})

	t.Run("timeout cancels callback context", func(t *testing.T) {
		t.Parallel()

		observed := make(chan error, 1)
		future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (string, error) {
			<-ctx.Done()
			observed <- ctx.Err()
			return "", ctx.Err()
		})

		result, err := future.AwaitWithTimeout(20 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
		assert.Empty(t, result)

		select {
		case err := <-observed:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("callback did not observe cancellation")
		}
	})
}

func TestFuture_AwaitContext(t *testing.T) {
	t.Parallel()

	t.Run("returns result when callback finishes first", func(t *testing.T) {
		t.Parallel()

		future := async.Async(context.Background(), 3, func(ctx context.Context, n int) (int, error) {
			return n, nil
		})

		result, err := future.AwaitContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, result)
	})

	t.Run("returns context error and frees the caller of a stuck callback", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)

		future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (int, error) {
			<-release // ignores its context on purpose
			return 1, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := future.AwaitContext(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.False(t, future.IsComplete())
	})
}

func TestFuture_Cancel(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	future.Cancel()

	select {
	case <-future.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not complete after cancel")
	}
	_, err := future.Await()
	assert.ErrorIs(t, err, context.Canceled)
}
