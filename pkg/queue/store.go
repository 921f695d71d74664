package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Producer is the enqueue side of a backend store.
// Enqueue must be safe for concurrent use and never waits for delivery.
type Producer interface {
	Enqueue(ctx context.Context, kind string, args []byte, tags []string) (uuid.UUID, error)
}

// Consumer is the delivery side of a backend store used by the Dispatcher
type Consumer interface {
	// Claim atomically moves one pending job accepted by any of the matches to running.
	// It returns ErrNoJobToClaim when nothing matches; no two callers ever claim the same job.
	Claim(ctx context.Context, matches []Match) (*Job, error)

	// Ack marks a running job completed. attempt is the Attempts value returned by the
	// Claim being finished; acks of unknown jobs, finished jobs or an older claim are a no-op.
	Ack(ctx context.Context, id uuid.UUID, attempt int) error

	// Fail marks a running job failed and records the reason. It is fenced on attempt like Ack.
	Fail(ctx context.Context, id uuid.UUID, attempt int, reason string) error
}

// Inspector exposes read access and the manual requeue path
type Inspector interface {
	// Get returns a snapshot of the job or ErrJobNotFound
	Get(ctx context.Context, id uuid.UUID) (*Job, error)

	// Requeue moves a failed job back to pending. It is the only way out of the failed state.
	Requeue(ctx context.Context, id uuid.UUID) error
}

// Store is implemented by every backend: InProcess, DurableQueue and RelationalTable
type Store interface {
	Producer
	Consumer
	Inspector
}

// Notifier is implemented by stores able to wake idle consumers when new work arrives.
// The returned channel is closed on the next enqueue or requeue.
type Notifier interface {
	Notify() <-chan struct{}
}

// Reaper is implemented by durable stores that can recover jobs claimed by crashed workers.
// Reap returns running jobs whose claim is older than the store's visibility timeout to pending.
// The Dispatcher refuses a Reaper whose VisibilityTimeout does not exceed its job timeout.
type Reaper interface {
	Reap(ctx context.Context) (int, error)
	VisibilityTimeout() time.Duration
}
