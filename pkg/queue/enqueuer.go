package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Mode selects how enqueued jobs reach their handler. It is fixed at boot.
type Mode string

const (
	// ModeForegroundBlocking runs the handler inline; Enqueue returns after it finished
	ModeForegroundBlocking Mode = "ForegroundBlocking"
	// ModeBackgroundAsync hands jobs to a dispatcher in the same process over the InProcess store
	ModeBackgroundAsync Mode = "BackgroundAsync"
	// ModeBackgroundQueue hands jobs to a durable store consumed by separate dispatcher processes
	ModeBackgroundQueue Mode = "BackgroundQueue"
)

// Valid reports whether the mode is known
func (m Mode) Valid() bool {
	switch m {
	case ModeForegroundBlocking, ModeBackgroundAsync, ModeBackgroundQueue:
		return true
	}
	return false
}

// ParseMode converts a configuration value into a Mode
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Executor runs a job synchronously. *Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, job *Job) error
}

// Enqueuer is the producer-facing API
type Enqueuer struct {
	producer    Producer
	mode        Mode
	executor    Executor
	defaultTags []string
}

// NewEnqueuer creates a new Enqueuer. Background modes need a producer,
// ModeForegroundBlocking needs an executor (see WithExecutor).
func NewEnqueuer(producer Producer, opts ...EnqueuerOption) (*Enqueuer, error) {
	options := &enqueuerOptions{
		mode: ModeBackgroundQueue,
	}
	for _, opt := range opts {
		opt(options)
	}

	if !options.mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, options.mode)
	}
	if options.mode == ModeForegroundBlocking {
		if options.executor == nil {
			return nil, ErrExecutorRequired
		}
	} else if producer == nil {
		return nil, ErrStoreNil
	}

	return &Enqueuer{
		producer:    producer,
		mode:        options.mode,
		executor:    options.executor,
		defaultTags: options.defaultTags,
	}, nil
}

// Mode returns the dispatch mode of the enqueuer
func (e *Enqueuer) Mode() Mode {
	return e.mode
}

// Enqueue marshals payload to JSON and submits a job. The kind defaults to the
// payload type name, matching handlers built with NewTaskHandler.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) (uuid.UUID, error) {
	options := &enqueueOptions{}
	for _, opt := range opts {
		opt(options)
	}

	kind := options.kind
	if kind == "" && payload != nil {
		kind = qualifiedStructName(payload)
	}

	args, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %T: %w", ErrPayloadMarshal, payload, err)
	}

	return e.EnqueueRaw(ctx, kind, args, options.tags...)
}

// EnqueueRaw submits a job with pre-serialized arguments.
//
// In background modes it returns as soon as the store accepted the job; store
// errors are returned so the caller can decide to retry. In ModeForegroundBlocking
// the handler runs before EnqueueRaw returns and its error is returned.
func (e *Enqueuer) EnqueueRaw(ctx context.Context, kind string, args []byte, tags ...string) (uuid.UUID, error) {
	if kind == "" {
		return uuid.Nil, ErrKindEmpty
	}
	if len(tags) == 0 {
		tags = e.defaultTags
	}

	if e.mode == ModeForegroundBlocking {
		job := NewJob(kind, args, tags)
		job.Status = JobStatusRunning
		job.Attempts = 1
		if err := e.executor.Execute(ctx, job); err != nil {
			return job.ID, fmt.Errorf("job %s of kind %q: %w", job.ID, kind, err)
		}
		return job.ID, nil
	}

	id, err := e.producer.Enqueue(ctx, kind, args, tags)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue job of kind %q: %w", kind, err)
	}
	return id, nil
}
