package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/jobkit/pkg/engine"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

const drainPollInterval = 50 * time.Millisecond

// runOneShot runs submit and, in BackgroundAsync mode, keeps a worker alive until the
// in-process queue is empty. Otherwise the jobs would vanish with the process.
func runOneShot(ctx context.Context, e *engine.Engine, submit func(context.Context) error) error {
	if e.Mode() != queue.ModeBackgroundAsync {
		return submit(ctx)
	}

	mem, ok := e.Store().(*queue.MemoryStorage)
	if !ok {
		return submit(ctx)
	}

	workerCtx, stop := context.WithCancel(ctx)
	defer stop()

	g := &errgroup.Group{}
	g.Go(e.RunWorker(workerCtx))

	err := submit(ctx)
	if err == nil {
		err = waitDrained(ctx, mem)
	}
	stop()

	return errors.Join(err, g.Wait())
}

func waitDrained(ctx context.Context, mem *queue.MemoryStorage) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		if mem.Len(queue.JobStatusPending)+mem.Len(queue.JobStatusRunning) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
