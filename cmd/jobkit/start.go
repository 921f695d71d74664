package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/jobkit/pkg/engine"
	"github.com/dmitrymomot/jobkit/pkg/httpserver"
	"github.com/dmitrymomot/jobkit/pkg/schedule"
)

func startCmd(a *app) *cobra.Command {
	var (
		worker          bool
		serverAndWorker bool
		withScheduler   bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run a worker, optionally with the producer API",
		Long: `start --worker runs the dispatcher against the configured store.
start --server-and-worker also serves the producer API on server.addr:

  POST /jobs                 {"kind": "...", "args": {...}, "tags": [...]}
  GET  /jobs/{id}
  POST /jobs/{id}/requeue
  GET  /health/live, /health/ready`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(e.RunWorker(ctx))

			if serverAndWorker {
				srv := httpserver.NewFromConfig(a.cfg.Server, httpserver.WithLogger(a.log))
				router := engine.NewRouter(e, a.log)
				g.Go(func() error { return srv.Run(ctx, router) })
			}

			if withScheduler {
				sched, err := e.NewScheduler(schedule.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
				g.Go(sched.Run(ctx))
			}

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&worker, "worker", false, "run the dispatcher only")
	cmd.Flags().BoolVar(&serverAndWorker, "server-and-worker", false, "run the producer API and the dispatcher")
	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the schedule entries in this process")
	cmd.MarkFlagsMutuallyExclusive("worker", "server-and-worker")
	cmd.MarkFlagsOneRequired("worker", "server-and-worker")

	return cmd
}
