package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

type producerCall struct {
	kind string
	args []byte
	tags []string
}

// recordingProducer captures enqueue calls
type recordingProducer struct {
	mu    sync.Mutex
	err   error
	calls []producerCall
}

func (p *recordingProducer) Enqueue(ctx context.Context, kind string, args []byte, tags []string) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return uuid.Nil, p.err
	}
	p.calls = append(p.calls, producerCall{kind: kind, args: args, tags: tags})
	return uuid.New(), nil
}

// executorFunc adapts a function to queue.Executor
type executorFunc func(ctx context.Context, job *queue.Job) error

func (f executorFunc) Execute(ctx context.Context, job *queue.Job) error { return f(ctx, job) }

type enqueueTestPayload struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

type unmarshalablePayload struct {
	Ch chan int
}

func TestNewEnqueuer(t *testing.T) {
	t.Parallel()

	t.Run("defaults to background queue", func(t *testing.T) {
		t.Parallel()

		e, err := queue.NewEnqueuer(&recordingProducer{})
		require.NoError(t, err)
		assert.Equal(t, queue.ModeBackgroundQueue, e.Mode())
	})

	t.Run("background modes need a producer", func(t *testing.T) {
		t.Parallel()

		_, err := queue.NewEnqueuer(nil)
		assert.ErrorIs(t, err, queue.ErrStoreNil)

		_, err = queue.NewEnqueuer(nil, queue.WithMode(queue.ModeBackgroundAsync))
		assert.ErrorIs(t, err, queue.ErrStoreNil)
	})

	t.Run("foreground mode needs an executor", func(t *testing.T) {
		t.Parallel()

		_, err := queue.NewEnqueuer(nil, queue.WithMode(queue.ModeForegroundBlocking))
		assert.ErrorIs(t, err, queue.ErrExecutorRequired)
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()

		_, err := queue.NewEnqueuer(&recordingProducer{}, queue.WithMode("Sideways"))
		assert.ErrorIs(t, err, queue.ErrInvalidMode)
	})
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"ForegroundBlocking", "BackgroundAsync", "BackgroundQueue"} {
		m, err := queue.ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, queue.Mode(s), m)
	}

	_, err := queue.ParseMode("backgroundqueue")
	assert.ErrorIs(t, err, queue.ErrInvalidMode)
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("marshals payload and derives kind", func(t *testing.T) {
		t.Parallel()

		producer := &recordingProducer{}
		e, err := queue.NewEnqueuer(producer)
		require.NoError(t, err)

		id, err := e.Enqueue(context.Background(), enqueueTestPayload{Message: "hi", Value: 7}, queue.WithTags("b", "a"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		require.Len(t, producer.calls, 1)
		call := producer.calls[0]
		assert.Equal(t, "queue_test.enqueueTestPayload", call.kind)
		assert.JSONEq(t, `{"message":"hi","value":7}`, string(call.args))
		assert.ElementsMatch(t, []string{"a", "b"}, call.tags)
	})

	t.Run("explicit kind overrides the type name", func(t *testing.T) {
		t.Parallel()

		producer := &recordingProducer{}
		e, err := queue.NewEnqueuer(producer)
		require.NoError(t, err)

		_, err = e.Enqueue(context.Background(), map[string]string{"msg": "hi"}, queue.WithKind("echo"))
		require.NoError(t, err)
		assert.Equal(t, "echo", producer.calls[0].kind)
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		producer := &recordingProducer{}
		e, err := queue.NewEnqueuer(producer)
		require.NoError(t, err)

		_, err = e.Enqueue(context.Background(), unmarshalablePayload{Ch: make(chan int)})
		assert.ErrorIs(t, err, queue.ErrPayloadMarshal)
		assert.Empty(t, producer.calls)
	})

	t.Run("default tags apply only to untagged jobs", func(t *testing.T) {
		t.Parallel()

		producer := &recordingProducer{}
		e, err := queue.NewEnqueuer(producer, queue.WithDefaultTags("infra"))
		require.NoError(t, err)

		_, err = e.EnqueueRaw(context.Background(), "echo", nil)
		require.NoError(t, err)
		_, err = e.EnqueueRaw(context.Background(), "echo", nil, "billing")
		require.NoError(t, err)

		assert.Equal(t, []string{"infra"}, producer.calls[0].tags)
		assert.Equal(t, []string{"billing"}, producer.calls[1].tags)
	})

	t.Run("store errors are surfaced", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("connection refused")
		e, err := queue.NewEnqueuer(&recordingProducer{err: storeErr})
		require.NoError(t, err)

		id, err := e.EnqueueRaw(context.Background(), "echo", []byte(`{}`))
		assert.ErrorIs(t, err, storeErr)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("empty kind", func(t *testing.T) {
		t.Parallel()

		e, err := queue.NewEnqueuer(&recordingProducer{})
		require.NoError(t, err)

		_, err = e.EnqueueRaw(context.Background(), "", nil)
		assert.ErrorIs(t, err, queue.ErrKindEmpty)
	})
}

func TestEnqueuer_ForegroundBlocking(t *testing.T) {
	t.Parallel()

	t.Run("handler finished before enqueue returns", func(t *testing.T) {
		t.Parallel()

		var finished bool
		exec := executorFunc(func(ctx context.Context, job *queue.Job) error {
			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, "echo", job.Kind)
			assert.Equal(t, queue.JobStatusRunning, job.Status)
			finished = true
			return nil
		})

		producer := &recordingProducer{}
		e, err := queue.NewEnqueuer(producer, queue.WithMode(queue.ModeForegroundBlocking), queue.WithExecutor(exec))
		require.NoError(t, err)

		id, err := e.EnqueueRaw(context.Background(), "echo", []byte(`{"msg":"hi"}`))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
		assert.True(t, finished)
		assert.Empty(t, producer.calls, "foreground jobs are not persisted")
	})

	t.Run("handler error is returned to the caller", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		exec := executorFunc(func(ctx context.Context, job *queue.Job) error { return boom })

		e, err := queue.NewEnqueuer(nil, queue.WithMode(queue.ModeForegroundBlocking), queue.WithExecutor(exec))
		require.NoError(t, err)

		_, err = e.EnqueueRaw(context.Background(), "echo", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("runs through a dispatcher executor", func(t *testing.T) {
		t.Parallel()

		var got string
		registry := queue.NewRegistry()
		registry.MustRegister(queue.NewRawHandler("echo", func(ctx context.Context, args json.RawMessage) error {
			got = string(args)
			return nil
		}))

		d, err := queue.NewDispatcher(queue.NewMemoryStorage(), registry, queue.WithDispatcherLogger(discardLogger()))
		require.NoError(t, err)

		e, err := queue.NewEnqueuer(nil, queue.WithMode(queue.ModeForegroundBlocking), queue.WithExecutor(d))
		require.NoError(t, err)

		_, err = e.EnqueueRaw(context.Background(), "echo", []byte(`{"msg":"hi"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"msg":"hi"}`, got)

		_, err = e.EnqueueRaw(context.Background(), "unknown", nil)
		assert.ErrorIs(t, err, queue.ErrHandlerNotFound)
	})
}
