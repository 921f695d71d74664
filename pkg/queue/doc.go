// Package queue is the job engine: a registry of typed handlers, a producer-facing
// Enqueuer and a Dispatcher running a fixed pool of execution slots over a Store.
//
// The package is organised around four components:
//
//   - Registry    maps job kinds to handlers and the tags each handler accepts
//   - Enqueuer    submits jobs according to the configured Mode
//   - Dispatcher  claims accepted jobs, runs them under a timeout and reports the outcome
//   - Store       the backend contract (Producer, Consumer, Inspector)
//
// MemoryStorage is the InProcess backend. Durable backends live in the redisstore,
// pgstore and sqlitestore subpackages and are verified by the queuetest suite.
//
// # Lifecycle
//
// A job is created pending, moves to running when claimed and ends completed or failed.
// Failed jobs are terminal until Inspector.Requeue puts them back; the engine never retries
// on its own. Ack and Fail are no-ops for jobs that are not running, and for a claim
// attempt other than the current one: once a Reaper has returned a job to pending, the
// execution that lost it can no longer finish it.
//
// # Routing
//
// A handler registered without tags takes only untagged jobs. A handler registered with
// tags takes jobs sharing at least one of them:
//
//	registry := queue.NewRegistry()
//	registry.MustRegister(queue.NewTaskHandler(sendEmail))
//	registry.MustRegister(queue.NewRawHandler("reindex", reindex), "infra")
//
//	d, err := queue.NewDispatcher(store, registry, queue.WithNumWorkers(4))
//	if err != nil {
//		return err
//	}
//	g.Go(d.Run(ctx))
//
// # Modes
//
// ModeBackgroundQueue and ModeBackgroundAsync return once the store accepted the job.
// ModeForegroundBlocking executes the handler before Enqueue returns, which requires an
// Executor such as a *Dispatcher:
//
//	e, err := queue.NewEnqueuer(nil, queue.WithMode(queue.ModeForegroundBlocking), queue.WithExecutor(d))
//
// # Error Handling
//
// Sentinel errors (ErrJobTimeout, ErrNoJobToClaim, ErrDuplicateKind and friends) can be
// checked with errors.Is.
package queue
