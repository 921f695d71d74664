// Package engine assembles a jobkit process from its declarative configuration.
//
// LoadConfig reads the YAML file, applies JOBKIT_* environment overrides and
// validates the result. New opens the store serving the configured dispatch
// mode: the in-process modes use a private queue.MemoryStorage, while
// BackgroundQueue connects to Redis, Postgres or Sqlite and applies the
// relational schema unless WithoutMigrations is given.
//
//	cfg, err := engine.LoadConfig("jobkit.yaml")
//	reg := queue.NewRegistry()
//	reg.MustRegister(queue.NewNamedTaskHandler("email.send", sendEmail))
//	e, err := engine.New(ctx, cfg, reg)
//	defer e.Close()
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(e.RunWorker(ctx))
//
// A process with an empty registry is a pure producer; it can only be built in
// BackgroundQueue mode, where some other process runs the workers.
//
// NewScheduler builds the schedule table from the scheduler section and
// enqueues tasks through the engine, so they follow the dispatch mode.
// NewRouter exposes enqueue, status and requeue over HTTP.
package engine
