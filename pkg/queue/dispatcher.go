package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/async"
	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// storeOpTimeout bounds ack/fail calls so a slow backend cannot pin a slot forever
const storeOpTimeout = 10 * time.Second

// Dispatcher runs a fixed pool of execution slots. Each slot claims a job accepted by
// the registry, runs its handler under the job timeout, then acks or fails it.
type Dispatcher struct {
	store    Consumer
	registry *Registry
	matches  []Match
	workerID uuid.UUID
	cfg      Config
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc // stops claiming
	abort  context.CancelFunc // abandons in-flight jobs once the grace period is over
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher over store. The registry is sealed: handlers
// registered later would never be claimed for.
func NewDispatcher(store Consumer, registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}
	if registry.Len() == 0 {
		return nil, ErrNoHandlers
	}

	options := &dispatcherOptions{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	cfg := options.cfg.withDefaults()
	// A claim must stay invisible to the reaper for as long as its handler may run
	if reaper, ok := store.(Reaper); ok && reaper.VisibilityTimeout() <= cfg.JobTimeout {
		return nil, fmt.Errorf("%w: visibility %s, job timeout %s",
			ErrVisibilityTooShort, reaper.VisibilityTimeout(), cfg.JobTimeout)
	}

	registry.Seal()

	return &Dispatcher{
		store:    store,
		registry: registry,
		matches:  registry.Matches(),
		workerID: uuid.New(),
		cfg:      cfg,
		logger:   options.logger,
	}, nil
}

// ID returns the dispatcher instance identifier used in logs
func (d *Dispatcher) ID() uuid.UUID {
	return d.workerID
}

// Start launches the execution slots in the background
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return ErrDispatcherStarted
	}

	claimCtx, cancel := context.WithCancel(ctx)
	// Running handlers outlive the claim context so shutdown can let them finish
	execCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel, d.abort = cancel, abort

	for i := range d.cfg.NumWorkers {
		d.wg.Add(1)
		go d.slot(claimCtx, execCtx, i)
	}

	if reaper, ok := d.store.(Reaper); ok {
		d.wg.Add(1)
		go d.reapLoop(claimCtx, reaper)
	}

	d.logger.Info("dispatcher started",
		logger.WorkerID(d.workerID),
		slog.Any("kinds", d.registry.Kinds()),
		slog.Int("num_workers", d.cfg.NumWorkers),
		slog.Duration("job_timeout", d.cfg.JobTimeout))

	return nil
}

// Stop stops claiming new jobs and waits up to the shutdown timeout for in-flight jobs.
// When the grace period elapses the remaining jobs are abandoned and ErrShutdownTimeout is returned.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	cancel, abort := d.cancel, d.abort
	if cancel == nil {
		d.mu.Unlock()
		return ErrDispatcherNotStarted
	}
	d.cancel, d.abort = nil, nil
	d.mu.Unlock()

	cancel()

	d.logger.Info("dispatcher stopping, waiting for in-flight jobs",
		logger.WorkerID(d.workerID),
		slog.Duration("grace_period", d.cfg.ShutdownTimeout))

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d.cfg.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		abort()
		d.logger.Info("dispatcher stopped", logger.WorkerID(d.workerID))
		return nil
	case <-timer.C:
		abort()
		<-done
		d.logger.Warn("dispatcher grace period elapsed, in-flight jobs abandoned",
			logger.WorkerID(d.workerID))
		return ErrShutdownTimeout
	}
}

// Run starts the dispatcher and returns a function suitable for errgroup.
// The function blocks until ctx is done, then stops gracefully.
func (d *Dispatcher) Run(ctx context.Context) func() error {
	return func() error {
		if err := d.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return d.Stop()
	}
}

// Execute runs the registered handler for job under the job timeout. The handler
// context carries the job for logger.JobExtractor. It returns nil on success, ErrJobTimeout when the timeout elapsed, ErrJobAborted when ctx
// was cancelled, or an error wrapping ErrHandlerFailed. On timeout the handler goroutine is
// abandoned: its context is cancelled but Execute does not wait for it to return.
func (d *Dispatcher) Execute(ctx context.Context, job *Job) error {
	handler, ok := d.registry.Lookup(job.Kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, job.Kind)
	}

	ctx, cancel := context.WithTimeout(logger.WithJob(ctx, job.ID, job.Kind, job.Attempts), d.cfg.JobTimeout)
	defer cancel()

	future := async.Async(ctx, job, func(ctx context.Context, j *Job) (struct{}, error) {
		return struct{}{}, handler.Handle(ctx, j.Args)
	})

	_, err := future.AwaitContext(ctx)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && (!future.IsComplete() || errors.Is(err, ctxErr)) {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return ErrJobTimeout
		}
		return fmt.Errorf("%w: %w", ErrJobAborted, ctxErr)
	}

	return fmt.Errorf("%w: %w", ErrHandlerFailed, err)
}

// slot is the claim-execute-report loop of one execution slot
func (d *Dispatcher) slot(ctx, execCtx context.Context, n int) {
	defer d.wg.Done()

	notifier, _ := d.store.(Notifier)
	wait := d.cfg.PollInterval

	for {
		if ctx.Err() != nil {
			return
		}

		// Subscribe before claiming so a job enqueued in between still wakes us
		var wake <-chan struct{}
		if notifier != nil {
			wake = notifier.Notify()
		}

		job, err := d.store.Claim(ctx, d.matches)
		if err == nil && job != nil {
			wait = d.cfg.PollInterval
			d.process(execCtx, job)
			continue
		}

		if ctx.Err() != nil {
			return
		}

		if err != nil && !errors.Is(err, ErrNoJobToClaim) {
			d.logger.Warn("claim failed, backing off",
				logger.WorkerID(d.workerID),
				slog.Int("slot", n),
				slog.Duration("backoff", wait),
				logger.Error(fmt.Errorf("%w: %w", ErrClaim, err)))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-wake:
			timer.Stop()
			wait = d.cfg.PollInterval
		case <-timer.C:
			wait = min(wait*2, d.cfg.MaxPollInterval)
		}
	}
}

// process executes a claimed job and reports the outcome to the store
func (d *Dispatcher) process(ctx context.Context, job *Job) {
	start := time.Now()

	d.logger.Debug("claimed job",
		logger.WorkerID(d.workerID),
		logger.JobID(job.ID),
		logger.Kind(job.Kind),
		logger.Tags(job.Tags),
		logger.Attempts(job.Attempts))

	err := d.Execute(ctx, job)
	duration := time.Since(start)

	storeCtx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()

	switch {
	case err == nil:
		d.handleSuccess(storeCtx, job, duration)
	case errors.Is(err, ErrJobAborted):
		d.handleAbort(storeCtx, job, duration)
	case errors.Is(err, ErrJobTimeout):
		d.handleFailure(storeCtx, job, ReasonTimeout, duration)
	default:
		d.handleFailure(storeCtx, job, err.Error(), duration)
	}
}

func (d *Dispatcher) handleSuccess(ctx context.Context, job *Job, duration time.Duration) {
	if err := d.store.Ack(ctx, job.ID, job.Attempts); err != nil {
		d.logger.Error("failed to mark job as completed",
			logger.WorkerID(d.workerID),
			logger.JobID(job.ID),
			logger.Error(err))
		return
	}

	d.logger.Info("job completed",
		logger.WorkerID(d.workerID),
		logger.JobID(job.ID),
		logger.Kind(job.Kind),
		logger.Duration(duration))
}

func (d *Dispatcher) handleFailure(ctx context.Context, job *Job, reason string, duration time.Duration) {
	d.logger.Error("job failed",
		logger.WorkerID(d.workerID),
		logger.JobID(job.ID),
		logger.Kind(job.Kind),
		logger.Attempts(job.Attempts),
		logger.Duration(duration),
		slog.String("reason", reason))

	if err := d.store.Fail(ctx, job.ID, job.Attempts, reason); err != nil {
		d.logger.Error("failed to mark job as failed",
			logger.WorkerID(d.workerID),
			logger.JobID(job.ID),
			logger.Error(err))
	}
}

// handleAbort leaves the job running when the store reaps, so it returns to pending
// after the visibility timeout. Otherwise nothing would ever recover it.
func (d *Dispatcher) handleAbort(ctx context.Context, job *Job, duration time.Duration) {
	d.logger.Warn("job abandoned by shutdown",
		logger.WorkerID(d.workerID),
		logger.JobID(job.ID),
		logger.Kind(job.Kind),
		logger.Duration(duration))

	if _, ok := d.store.(Reaper); ok {
		return
	}
	if err := d.store.Fail(ctx, job.ID, job.Attempts, ReasonShutdown); err != nil {
		d.logger.Error("failed to mark abandoned job as failed",
			logger.WorkerID(d.workerID),
			logger.JobID(job.ID),
			logger.Error(err))
	}
}

// reapLoop recovers jobs whose claim outlived the store's visibility timeout
func (d *Dispatcher) reapLoop(ctx context.Context, reaper Reaper) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		n, err := reaper.Reap(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			d.logger.Warn("failed to reap stale jobs",
				logger.WorkerID(d.workerID),
				logger.Error(err))
		case n > 0:
			d.logger.Info("requeued stale jobs",
				logger.WorkerID(d.workerID),
				slog.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
