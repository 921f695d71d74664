package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/jobkit/pkg/engine"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func enqueueCmd(a *app) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "enqueue <kind> [KEY:VALUE ...]",
		Short: "Submit a job",
		Long: `Submit a job of kind whose arguments are a JSON object of the KEY:VALUE pairs.
The job id is printed on success. In ForegroundBlocking mode the job runs before
the command returns; in BackgroundAsync mode the command waits for it to finish.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			payload, err := queue.KeyValueArgs(args[1:])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			return runOneShot(ctx, e, func(ctx context.Context) error {
				id, err := e.Enqueuer().EnqueueRaw(ctx, kind, payload, tags...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag the job (repeatable)")

	return cmd
}

func requeueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <id>",
		Short: "Move a failed job back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDurableJob(cmd, a, args[0], func(ctx context.Context, e *engine.Engine, id uuid.UUID) error {
				if err := e.Requeue(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "requeued", id)
				return nil
			})
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Print a job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDurableJob(cmd, a, args[0], func(ctx context.Context, e *engine.Engine, id uuid.UUID) error {
				job, err := e.Get(ctx, id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(engine.NewJobResponse(job))
			})
		},
	}
}

// withDurableJob opens the durable store and runs fn for the job id.
// In-process stores start empty, so these commands need BackgroundQueue.
func withDurableJob(cmd *cobra.Command, a *app, rawID string, fn func(context.Context, *engine.Engine, uuid.UUID) error) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", rawID, err)
	}
	if a.cfg.Mode() != queue.ModeBackgroundQueue {
		return fmt.Errorf("%s needs workers.mode %s, got %s", cmd.Name(), queue.ModeBackgroundQueue, a.cfg.Mode())
	}

	e, err := a.openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	return fn(cmd.Context(), e, id)
}
