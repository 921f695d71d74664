// Package schedule runs periodic work from a declarative schedule table.
//
// Each entry pairs a schedule with a target. A target is either a RunTask, which enqueues a
// job on a queue.Producer, or a RunShell, which runs a command through "sh -c" with the
// scheduler's environment. Schedules are cron expressions or English phrases:
//
//	0 */5 * * * *              six fields: second minute hour day-of-month month day-of-week
//	0 0 3 * * MON-FRI 2027     an optional seventh field restricts the year
//	@daily, @every 15s         descriptors
//	every 15 seconds           English phrases are normalized at load time
//	every monday at 10:30 am
//
// Every schedule is normalized once, when the table is built, to a seven field cron string.
// A schedule that cannot be parsed fails NewTable with a *config.Error naming the entry,
// e.g. "scheduler.jobs.backup.schedule".
//
// # Tick loop
//
// The scheduler samples its Clock once per second. Each evaluated second dispatches the entries
// whose expression matches it; an entry never fires twice for the same second. When the loop
// wakes late the skipped seconds are evaluated too, up to MaxCatchUp of them.
//
//	table, err := schedule.NewTable(cfg.Scheduler)
//	if err != nil {
//		return err
//	}
//	s, err := schedule.NewScheduler(table, store, schedule.WithTag("infra"))
//	if err != nil {
//		return err
//	}
//	g.Go(s.Run(ctx))
//
// Dispatches run in their own goroutines. On shutdown the scheduler stops ticking and waits for
// started dispatches; a running shell command is allowed to finish.
//
// # Replicas
//
// Schedulers do not coordinate. Two instances running the same table against the same store
// enqueue the same due entry twice, so scheduled jobs must be safe to repeat. Run a single
// scheduler, or split the table across instances with tags.
package schedule
