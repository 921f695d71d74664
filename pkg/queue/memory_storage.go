package queue

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is the InProcess backend: a mutex guarded job map, a FIFO list of
// pending ids and a broadcast channel that wakes idle dispatcher slots.
// Jobs do not survive a process restart.
type MemoryStorage struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*Job
	pending []uuid.UUID
	notify  chan struct{}
	closed  bool
}

var (
	_ Store    = (*MemoryStorage)(nil)
	_ Notifier = (*MemoryStorage)(nil)
)

// NewMemoryStorage creates a new in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		jobs:   make(map[uuid.UUID]*Job),
		notify: make(chan struct{}),
	}
}

// Close rejects further enqueues and wakes every waiting consumer
func (ms *MemoryStorage) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.closed {
		ms.closed = true
		ms.broadcastLocked()
	}
	return nil
}

// Enqueue implements Producer
func (ms *MemoryStorage) Enqueue(ctx context.Context, kind string, args []byte, tags []string) (uuid.UUID, error) {
	if kind == "" {
		return uuid.Nil, ErrKindEmpty
	}
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	job := NewJob(kind, args, tags)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return uuid.Nil, ErrStoreClosed
	}

	ms.jobs[job.ID] = job
	ms.pending = append(ms.pending, job.ID)
	ms.broadcastLocked()

	return job.ID, nil
}

// Claim implements Consumer. It scans pending jobs oldest first.
func (ms *MemoryStorage) Claim(ctx context.Context, matches []Match) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i, id := range ms.pending {
		job := ms.jobs[id]
		if !MatchAny(matches, job.Kind, job.Tags) {
			continue
		}

		ms.pending = slices.Delete(ms.pending, i, i+1)
		job.Status = JobStatusRunning
		job.Attempts++
		job.UpdatedAt = time.Now().UTC()

		// Return a copy to prevent external modifications
		return job.Clone(), nil
	}

	return nil, ErrNoJobToClaim
}

// Ack implements Consumer
func (ms *MemoryStorage) Ack(ctx context.Context, id uuid.UUID, attempt int) error {
	ms.finish(id, attempt, JobStatusCompleted, "")
	return nil
}

// Fail implements Consumer
func (ms *MemoryStorage) Fail(ctx context.Context, id uuid.UUID, attempt int, reason string) error {
	ms.finish(id, attempt, JobStatusFailed, reason)
	return nil
}

func (ms *MemoryStorage) finish(id uuid.UUID, attempt int, status JobStatus, reason string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok || job.Status != JobStatusRunning || job.Attempts != attempt {
		return
	}
	job.Status = status
	job.Error = reason
	job.UpdatedAt = time.Now().UTC()
}

// Get implements Inspector
func (ms *MemoryStorage) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Requeue implements Inspector
func (ms *MemoryStorage) Requeue(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != JobStatusFailed {
		return ErrNotRequeueable
	}

	job.Status = JobStatusPending
	job.Error = ""
	job.UpdatedAt = time.Now().UTC()
	ms.pending = append(ms.pending, id)
	ms.broadcastLocked()

	return nil
}

// Notify implements Notifier
func (ms *MemoryStorage) Notify() <-chan struct{} {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.notify
}

// Len returns the number of stored jobs in the given status
func (ms *MemoryStorage) Len(status JobStatus) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	n := 0
	for _, job := range ms.jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

// broadcastLocked wakes all waiters by closing the current channel. Caller holds mu.
func (ms *MemoryStorage) broadcastLocked() {
	close(ms.notify)
	ms.notify = make(chan struct{})
}
