package queue

import (
	"log/slog"
	"time"
)

// DispatcherOption is a functional option for configuring a dispatcher
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	cfg    Config
	logger *slog.Logger
}

// WithConfig applies every non-zero field of cfg
func WithConfig(cfg Config) DispatcherOption {
	return func(o *dispatcherOptions) {
		if cfg.NumWorkers > 0 {
			o.cfg.NumWorkers = cfg.NumWorkers
		}
		if cfg.JobTimeout > 0 {
			o.cfg.JobTimeout = cfg.JobTimeout
		}
		if cfg.ShutdownTimeout > 0 {
			o.cfg.ShutdownTimeout = cfg.ShutdownTimeout
		}
		if cfg.PollInterval > 0 {
			o.cfg.PollInterval = cfg.PollInterval
		}
		if cfg.MaxPollInterval > 0 {
			o.cfg.MaxPollInterval = cfg.MaxPollInterval
		}
		if cfg.ReapInterval > 0 {
			o.cfg.ReapInterval = cfg.ReapInterval
		}
	}
}

// WithNumWorkers sets the number of concurrent execution slots
func WithNumWorkers(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.cfg.NumWorkers = n
		}
	}
}

// WithJobTimeout sets the per-job execution timeout
func WithJobTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.cfg.JobTimeout = d
		}
	}
}

// WithShutdownTimeout sets the grace period given to in-flight jobs on Stop
func WithShutdownTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.cfg.ShutdownTimeout = d
		}
	}
}

// WithPollInterval sets the idle wait between claims, the starting point of the backoff
func WithPollInterval(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.cfg.PollInterval = d
		}
	}
}

// WithMaxPollInterval caps the idle and error backoff
func WithMaxPollInterval(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.cfg.MaxPollInterval = d
		}
	}
}

// WithReapInterval sets how often crashed claims are recovered on stores implementing Reaper
func WithReapInterval(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.cfg.ReapInterval = d
		}
	}
}

// WithDispatcherLogger sets the logger for the dispatcher
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
