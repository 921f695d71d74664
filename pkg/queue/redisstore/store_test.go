package redisstore_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/queue/queuetest"
	"github.com/dmitrymomot/jobkit/pkg/queue/redisstore"
	"github.com/dmitrymomot/jobkit/pkg/redis"
)

func connect(t *testing.T) *goredis.Client {
	t.Helper()

	url := os.Getenv("JOBKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("JOBKIT_TEST_REDIS_URL not set")
	}

	client, err := redis.Connect(context.Background(), redis.DefaultConfig(url))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// newStore returns a store under a unique prefix so runs never share keys
func newStore(t *testing.T, client *goredis.Client, opts ...redisstore.Option) *redisstore.Store {
	t.Helper()

	prefix := "jobkit-test-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})

	store := redisstore.New(client, append([]redisstore.Option{redisstore.WithKeyPrefix(prefix)}, opts...)...)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	client := connect(t)

	queuetest.Run(t, func(t *testing.T) queue.Store {
		return newStore(t, client)
	})
}

func TestStore_Reap(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	store := newStore(t, client, redisstore.WithVisibilityTimeout(50*time.Millisecond))

	id, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)
	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)

	n, err := store.Reap(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	time.Sleep(100 * time.Millisecond)

	n, err = store.Reap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	job, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, 2, job.Attempts)

	// The reaped claim can no longer finish the job, the new one can
	require.NoError(t, store.Ack(ctx, id, 1))
	job, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusRunning, job.Status)

	require.NoError(t, store.Ack(ctx, id, 2))
	job, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusCompleted, job.Status)
}

func TestStore_CompletedTTL(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	store := newStore(t, client, redisstore.WithCompletedTTL(50*time.Millisecond))

	id, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)
	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	require.NoError(t, store.Ack(ctx, id, 1))

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, id)
		return errors.Is(err, queue.ErrJobNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStore_Notify(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	store := newStore(t, client)

	wake := store.Notify()
	// Give the subscription a moment to register on the server
	time.Sleep(50 * time.Millisecond)

	_, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)

	select {
	case <-wake:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue did not notify subscribers")
	}
}

func TestStore_ClaimPagesPastNonMatchingHead(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	store := newStore(t, client, redisstore.WithScanLimit(2))

	for range 3 {
		_, err := store.Enqueue(ctx, "other", nil, nil)
		require.NoError(t, err)
	}
	id, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)

	job, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)

	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
}
