package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/httpserver"
	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/schedule"
)

// Kind names a durable backend
type Kind string

const (
	KindRedis    Kind = "Redis"
	KindPostgres Kind = "Postgres"
	KindSqlite   Kind = "Sqlite"

	// KindInProcess is the in-memory store used by the in-process modes. It is never configured.
	KindInProcess Kind = "InProcess"
)

// ParseKind parses a backend name, ignoring case
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindRedis, KindPostgres, KindSqlite} {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q, expected Redis, Postgres or Sqlite", ErrUnknownKind, s)
}

// Defaults for the durable backend settings
const (
	DefaultVisibilityTimeout = 5 * time.Minute
	DefaultKeyPrefix         = "jobkit"
	DefaultCompletedTTL      = 24 * time.Hour
	DefaultHTTPAddr          = ":8080"
)

// WorkersConfig selects the dispatch mode
type WorkersConfig struct {
	Mode string `yaml:"mode" env:"JOBKIT_WORKERS_MODE"`
}

// QueueConfig describes the backend store and the dispatcher tuning
type QueueConfig struct {
	queue.Config `yaml:",inline"`

	Kind              string        `yaml:"kind" env:"JOBKIT_QUEUE_KIND"`
	URI               string        `yaml:"uri" env:"JOBKIT_QUEUE_URI"`
	VisibilityTimeout time.Duration `yaml:"visibility_timeout" env:"JOBKIT_VISIBILITY_TIMEOUT"` // how long a claim may run before the reaper requeues it
	KeyPrefix         string        `yaml:"key_prefix" env:"JOBKIT_REDIS_KEY_PREFIX"`           // Redis only
	CompletedTTL      time.Duration `yaml:"completed_ttl" env:"JOBKIT_COMPLETED_TTL"`           // Redis only
}

// Config is the declarative configuration of a jobkit process
type Config struct {
	Workers   WorkersConfig     `yaml:"workers"`
	Queue     QueueConfig       `yaml:"queue"`
	Scheduler schedule.Config   `yaml:"scheduler"`
	Server    httpserver.Config `yaml:"server"` // producer API of "start --server-and-worker"
}

// DefaultConfig returns a configuration for the in-process background mode
func DefaultConfig() Config {
	return Config{
		Workers: WorkersConfig{Mode: string(queue.ModeBackgroundAsync)},
		Queue: QueueConfig{
			Config:            queue.DefaultConfig(),
			VisibilityTimeout: DefaultVisibilityTimeout,
			KeyPrefix:         DefaultKeyPrefix,
			CompletedTTL:      DefaultCompletedTTL,
		},
		Scheduler: schedule.Config{Output: string(schedule.OutputStdout)},
		Server:    httpserver.Config{Addr: DefaultHTTPAddr},
	}
}

// LoadConfig reads the YAML file at path, when given, over DefaultConfig, applies
// environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := config.LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Mode returns the parsed dispatch mode. Call Validate first.
func (c Config) Mode() queue.Mode {
	return queue.Mode(c.Workers.Mode)
}

// StoreKind returns the backend that serves the configured mode
func (c Config) StoreKind() Kind {
	if c.Mode() != queue.ModeBackgroundQueue {
		return KindInProcess
	}
	k, _ := ParseKind(c.Queue.Kind)
	return k
}

// Validate checks the configuration. Problems are reported as *config.Error values
// naming the offending setting, joined together.
func (c Config) Validate() error {
	var errs []error

	mode, err := queue.ParseMode(c.Workers.Mode)
	if err != nil {
		errs = append(errs, config.NewError("workers.mode", err))
	}

	if mode == queue.ModeBackgroundQueue {
		if _, err := ParseKind(c.Queue.Kind); err != nil {
			errs = append(errs, config.NewError("queue.kind", err))
		}
		if strings.TrimSpace(c.Queue.URI) == "" {
			errs = append(errs, config.NewError("queue.uri", ErrEmptyURI))
		}

		// Zero values mean the store and dispatcher defaults
		visibility, jobTimeout := c.Queue.VisibilityTimeout, c.Queue.JobTimeout
		if visibility == 0 {
			visibility = DefaultVisibilityTimeout
		}
		if jobTimeout == 0 {
			jobTimeout = queue.DefaultConfig().JobTimeout
		}
		if visibility > 0 && jobTimeout > 0 && visibility <= jobTimeout {
			errs = append(errs, config.Errorf("queue.visibility_timeout",
				"must be greater than queue.job_timeout (%s), got %s", jobTimeout, visibility))
		}
	}

	if c.Queue.NumWorkers < 1 {
		errs = append(errs, config.Errorf("queue.num_workers", "must be at least 1, got %d", c.Queue.NumWorkers))
	}

	durations := []struct {
		key string
		d   time.Duration
	}{
		{"queue.job_timeout", c.Queue.JobTimeout},
		{"queue.shutdown_timeout", c.Queue.ShutdownTimeout},
		{"queue.poll_interval", c.Queue.PollInterval},
		{"queue.max_poll_interval", c.Queue.MaxPollInterval},
		{"queue.reap_interval", c.Queue.ReapInterval},
		{"queue.visibility_timeout", c.Queue.VisibilityTimeout},
		{"queue.completed_ttl", c.Queue.CompletedTTL},
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.d < 0 {
			errs = append(errs, config.Errorf(d.key, "must not be negative, got %s", d.d))
		}
	}

	// Entry errors are already keyed by their setting
	if _, err := schedule.NewTable(c.Scheduler); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
