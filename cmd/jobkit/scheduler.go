package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/schedule"
)

func runSchedulerCmd(a *app) *cobra.Command {
	var (
		list bool
		name string
		tag  string
	)

	cmd := &cobra.Command{
		Use:   "run-scheduler",
		Short: "Run the schedule entries of the configuration",
		Long: `Without flags the scheduler runs until interrupted, dispatching every due entry.

  --list          print the entries with their normalized cron and next run, then exit
  --name <entry>  dispatch one entry now and exit
  --tag <tag>     only consider entries carrying tag`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				table, err := schedule.NewTable(a.cfg.Scheduler)
				if err != nil {
					return err
				}
				return printEntries(cmd.OutOrStdout(), table.Filter(tag), time.Now())
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			opts := []schedule.SchedulerOption{schedule.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())}
			if tag != "" {
				opts = append(opts, schedule.WithTag(tag))
			}
			sched, err := e.NewScheduler(opts...)
			if err != nil {
				return err
			}

			if name != "" {
				return runOneShot(ctx, e, func(ctx context.Context) error {
					return sched.RunNamed(ctx, name)
				})
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(sched.Run(ctx))
			// In-process jobs need a worker in this process
			if e.Mode() == queue.ModeBackgroundAsync {
				g.Go(e.RunWorker(ctx))
			}
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the schedule entries without dispatching")
	cmd.Flags().StringVar(&name, "name", "", "dispatch the named entry once and exit")
	cmd.Flags().StringVar(&tag, "tag", "", "only run entries carrying this tag")
	cmd.MarkFlagsMutuallyExclusive("list", "name")

	return cmd
}

func printEntries(w io.Writer, entries []*schedule.Entry, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCHEDULE\tCRON\tTARGET\tTAGS\tNEXT")
	for _, e := range entries {
		next := "never"
		if t := e.Cron.Next(now); !t.IsZero() {
			next = t.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Name, e.Schedule, e.Cron.String(), e.Target, strings.Join(e.Tags, ","), next)
	}
	return tw.Flush()
}
