package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/schedule"
)

// Engine wires a registry, a backend store, a dispatcher and an enqueuer for one process
type Engine struct {
	cfg        Config
	registry   *queue.Registry
	backend    *Backend
	dispatcher *queue.Dispatcher
	enqueuer   *queue.Enqueuer
	logger     *slog.Logger
}

// New opens the store for cfg and builds the engine around registry.
// The in-process modes need at least one registered handler; BackgroundQueue
// producers may pass an empty or nil registry.
func New(ctx context.Context, cfg Config, registry *queue.Registry, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{
		logger:  slog.Default(),
		migrate: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	if registry == nil {
		registry = queue.NewRegistry()
	}

	mode := cfg.Mode()
	if mode != queue.ModeBackgroundQueue && registry.Len() == 0 {
		return nil, fmt.Errorf("%w: mode %s runs jobs in process", ErrNoWorker, mode)
	}

	backend, err := OpenStore(ctx, cfg, options.logger, options.migrate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		registry: registry,
		backend:  backend,
		logger:   options.logger,
	}

	if registry.Len() > 0 {
		e.dispatcher, err = queue.NewDispatcher(backend.Store, registry,
			queue.WithConfig(cfg.Queue.Config),
			queue.WithDispatcherLogger(options.logger.With(logger.Component("dispatcher"))))
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
	}

	enqOpts := []queue.EnqueuerOption{queue.WithMode(mode)}
	if mode == queue.ModeForegroundBlocking {
		enqOpts = append(enqOpts, queue.WithExecutor(e.dispatcher))
	}
	e.enqueuer, err = queue.NewEnqueuer(backend.Store, enqOpts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	return e, nil
}

// Config returns the configuration the engine was built from
func (e *Engine) Config() Config {
	return e.cfg
}

// Mode returns the dispatch mode
func (e *Engine) Mode() queue.Mode {
	return e.enqueuer.Mode()
}

// Store returns the backend store
func (e *Engine) Store() queue.Store {
	return e.backend.Store
}

// Enqueuer returns the producer API honouring the dispatch mode
func (e *Engine) Enqueuer() *queue.Enqueuer {
	return e.enqueuer
}

// Dispatcher returns the dispatcher, or nil when no handler is registered
func (e *Engine) Dispatcher() *queue.Dispatcher {
	return e.dispatcher
}

// Producer adapts the enqueuer to queue.Producer, so scheduled tasks follow the dispatch mode
func (e *Engine) Producer() queue.Producer {
	return enqueuerProducer{e.enqueuer}
}

// Healthcheck pings the backend
func (e *Engine) Healthcheck(ctx context.Context) error {
	return e.backend.Healthcheck(ctx)
}

// RunWorker returns a function suitable for errgroup that runs the dispatcher until ctx is done.
// In ModeForegroundBlocking jobs run inside Enqueue, so it only waits for ctx.
func (e *Engine) RunWorker(ctx context.Context) func() error {
	return func() error {
		if e.dispatcher == nil {
			return ErrNoWorker
		}
		if e.Mode() == queue.ModeForegroundBlocking {
			<-ctx.Done()
			return nil
		}
		return e.dispatcher.Run(ctx)()
	}
}

// NewScheduler builds the schedule table from the configuration and a scheduler
// enqueueing through the engine
func (e *Engine) NewScheduler(opts ...schedule.SchedulerOption) (*schedule.Scheduler, error) {
	table, err := schedule.NewTable(e.cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	opts = append([]schedule.SchedulerOption{schedule.WithSchedulerLogger(e.logger)}, opts...)
	return schedule.NewScheduler(table, e.Producer(), opts...)
}

// Get returns the job with id
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	return e.backend.Store.Get(ctx, id)
}

// Requeue moves a failed job back to pending
func (e *Engine) Requeue(ctx context.Context, id uuid.UUID) error {
	if err := e.backend.Store.Requeue(ctx, id); err != nil {
		return err
	}
	e.logger.Info("job requeued", logger.JobID(id))
	return nil
}

// Close releases the backend. Stop the dispatcher first.
func (e *Engine) Close() error {
	if err := e.backend.Close(); err != nil && !errors.Is(err, queue.ErrStoreClosed) {
		return err
	}
	return nil
}

type enqueuerProducer struct {
	enqueuer *queue.Enqueuer
}

func (p enqueuerProducer) Enqueue(ctx context.Context, kind string, args []byte, tags []string) (uuid.UUID, error) {
	return p.enqueuer.EnqueueRaw(ctx, kind, args, tags...)
}
