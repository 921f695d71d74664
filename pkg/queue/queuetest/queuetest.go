// Package queuetest holds the behaviour every queue.Store implementation must show.
// Driver packages call Run from their tests with a factory returning an empty store.
package queuetest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) queue.Store

// Run executes the store contract against stores produced by newStore
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("enqueue claim ack", func(t *testing.T) { testEnqueueClaimAck(t, newStore(t)) })
	t.Run("claim with nothing matching", func(t *testing.T) { testClaimNothing(t, newStore(t)) })
	t.Run("tag routing", func(t *testing.T) { testTagRouting(t, newStore(t)) })
	t.Run("concurrent claims are exclusive", func(t *testing.T) { testConcurrentClaims(t, newStore) })
	t.Run("ack and fail are idempotent", func(t *testing.T) { testIdempotentFinish(t, newStore(t)) })
	t.Run("stale claim is fenced", func(t *testing.T) { testStaleClaimIsFenced(t, newStore(t)) })
	t.Run("fifo per class", func(t *testing.T) { testFIFO(t, newStore(t)) })
	t.Run("manual requeue", func(t *testing.T) { testRequeue(t, newStore(t)) })
	t.Run("args are opaque", func(t *testing.T) { testOpaqueArgs(t, newStore(t)) })
}

func testEnqueueClaimAck(t *testing.T, store queue.Store) {
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "echo", []byte(`{"msg":"hi"}`), nil)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	job, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Attempts)
	assert.Empty(t, job.Tags)
	assert.False(t, job.CreatedAt.IsZero())

	claimed, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, id, claimed.ID)
	assert.Equal(t, "echo", claimed.Kind)
	assert.Equal(t, queue.JobStatusRunning, claimed.Status)
	assert.Equal(t, 1, claimed.Attempts)
	assert.JSONEq(t, `{"msg":"hi"}`, string(claimed.Args))

	require.NoError(t, store.Ack(ctx, id, claimed.Attempts))

	job, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusCompleted, job.Status)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, queue.ErrJobNotFound)
}

func testClaimNothing(t *testing.T, store queue.Store) {
	ctx := context.Background()

	_, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

	_, err = store.Enqueue(ctx, "mail", nil, nil)
	require.NoError(t, err)

	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

	_, err = store.Claim(ctx, nil)
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
}

func testTagRouting(t *testing.T, store queue.Store) {
	ctx := context.Background()

	untagged, err := store.Enqueue(ctx, "report", nil, nil)
	require.NoError(t, err)
	billing, err := store.Enqueue(ctx, "report", nil, []string{"billing"})
	require.NoError(t, err)
	infra, err := store.Enqueue(ctx, "report", nil, []string{"infra", "nightly"})
	require.NoError(t, err)

	// A worker without tags never sees tagged jobs
	job, err := store.Claim(ctx, []queue.Match{{Kind: "report"}})
	require.NoError(t, err)
	assert.Equal(t, untagged, job.ID)
	_, err = store.Claim(ctx, []queue.Match{{Kind: "report"}})
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

	// A tagged worker never sees jobs outside its tags, nor untagged ones
	_, err = store.Claim(ctx, []queue.Match{{Kind: "report", Tags: []string{"marketing"}}})
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

	job, err = store.Claim(ctx, []queue.Match{{Kind: "report", Tags: []string{"nightly"}}})
	require.NoError(t, err)
	assert.Equal(t, infra, job.ID)
	assert.Equal(t, []string{"infra", "nightly"}, job.Tags)

	job, err = store.Claim(ctx, []queue.Match{
		{Kind: "other", Tags: []string{"billing"}},
		{Kind: "report", Tags: []string{"billing", "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, billing, job.ID)
}

func testConcurrentClaims(t *testing.T, newStore Factory) {
	cases := []struct {
		name     string
		claimers int
		jobs     int
	}{
		{"more claimers than jobs", 16, 5},
		{"more jobs than claimers", 5, 16},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			for range tc.jobs {
				_, err := store.Enqueue(ctx, "echo", nil, nil)
				require.NoError(t, err)
			}

			var (
				mu      sync.Mutex
				wg      sync.WaitGroup
				claimed []uuid.UUID
				start   = make(chan struct{})
			)
			for range tc.claimers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					job, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
					if err != nil {
						assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
						return
					}
					mu.Lock()
					claimed = append(claimed, job.ID)
					mu.Unlock()
				}()
			}
			close(start)
			wg.Wait()

			seen := make(map[uuid.UUID]struct{}, len(claimed))
			for _, id := range claimed {
				_, dup := seen[id]
				assert.False(t, dup, "job %s claimed twice", id)
				seen[id] = struct{}{}
			}
			assert.Len(t, claimed, min(tc.claimers, tc.jobs))
		})
	}
}

func testIdempotentFinish(t *testing.T, store queue.Store) {
	ctx := context.Background()

	failedID, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)
	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)

	require.NoError(t, store.Fail(ctx, failedID, 1, "first reason"))
	require.NoError(t, store.Fail(ctx, failedID, 1, "second reason"))
	require.NoError(t, store.Ack(ctx, failedID, 1))

	job, err := store.Get(ctx, failedID)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusFailed, job.Status)
	assert.Equal(t, "first reason", job.Error)

	ackedID, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)
	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)

	require.NoError(t, store.Ack(ctx, ackedID, 1))
	before, err := store.Get(ctx, ackedID)
	require.NoError(t, err)
	require.NoError(t, store.Ack(ctx, ackedID, 1))
	require.NoError(t, store.Fail(ctx, ackedID, 1, "late failure"))
	after, err := store.Get(ctx, ackedID)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusCompleted, after.Status)
	assert.Empty(t, after.Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	assert.NoError(t, store.Ack(ctx, uuid.New(), 1))
	assert.NoError(t, store.Fail(ctx, uuid.New(), 1, "unknown"))
}

func testStaleClaimIsFenced(t *testing.T, store queue.Store) {
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)

	first, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, id, first.Attempts, "boom"))
	require.NoError(t, store.Requeue(ctx, id))

	second, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	require.Equal(t, first.Attempts+1, second.Attempts)

	// The first execution reporting late must not finish the second claim
	require.NoError(t, store.Ack(ctx, id, first.Attempts))
	require.NoError(t, store.Fail(ctx, id, first.Attempts, "late"))
	job, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusRunning, job.Status)
	assert.Empty(t, job.Error)

	require.NoError(t, store.Ack(ctx, id, second.Attempts))
	job, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusCompleted, job.Status)
}

func testFIFO(t *testing.T, store queue.Store) {
	ctx := context.Background()

	var ids []uuid.UUID
	for range 3 {
		id, err := store.Enqueue(ctx, "echo", nil, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for _, want := range ids {
		job, err := store.Claim(ctx, []queue.Match{{Kind: "echo"}})
		require.NoError(t, err)
		assert.Equal(t, want, job.ID)
	}
}

func testRequeue(t *testing.T, store queue.Store) {
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "echo", nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Requeue(ctx, id), queue.ErrNotRequeueable)
	assert.ErrorIs(t, store.Requeue(ctx, uuid.New()), queue.ErrJobNotFound)

	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, id, 1, "boom"))

	// Failed jobs are never handed out again without a requeue
	_, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

	require.NoError(t, store.Requeue(ctx, id))
	job, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusPending, job.Status)

	job, err = store.Claim(ctx, []queue.Match{{Kind: "echo"}})
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, 2, job.Attempts)
}

func testOpaqueArgs(t *testing.T, store queue.Store) {
	ctx := context.Background()

	raw := []byte{0x00, 0xff, 'n', 'o', 't', ' ', 'j', 's', 'o', 'n'}
	id, err := store.Enqueue(ctx, "blob", raw, []string{"b", "a", "b"})
	require.NoError(t, err)

	job, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, raw, job.Args)
	assert.Equal(t, []string{"a", "b"}, job.Tags)
	assert.False(t, json.Valid(job.Args))
}
