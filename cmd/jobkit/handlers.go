package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// Built-in job kinds, handy for trying a configuration without writing a worker binary
const (
	kindEcho  = "echo"
	kindSleep = "sleep"
)

type sleepArgs struct {
	Duration string `json:"duration"`
}

func builtinRegistry(log *slog.Logger) *queue.Registry {
	reg := queue.NewRegistry()

	reg.MustRegister(queue.NewRawHandler(kindEcho, func(ctx context.Context, args json.RawMessage) error {
		log.InfoContext(ctx, "echo", slog.String("args", string(args)))
		return nil
	}))

	reg.MustRegister(queue.NewNamedTaskHandler(kindSleep, func(ctx context.Context, args sleepArgs) error {
		d, err := time.ParseDuration(args.Duration)
		if err != nil {
			return fmt.Errorf("sleep: %w", err)
		}
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	return reg
}
