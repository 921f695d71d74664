package engine_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/engine"
	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/schedule"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func configKeys(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)

	var keys []string
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			keys = append(keys, cfgErr.Key)
		}
	}
	walk(err)
	return keys
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]engine.Kind{
		"redis":    engine.KindRedis,
		"Postgres": engine.KindPostgres,
		"SQLITE":   engine.KindSqlite,
	} {
		got, err := engine.ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := engine.ParseKind("mysql")
	assert.ErrorIs(t, err, engine.ErrUnknownKind)

	_, err = engine.ParseKind("InProcess")
	assert.ErrorIs(t, err, engine.ErrUnknownKind, "the in-process store is never configured")
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := engine.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, queue.ModeBackgroundAsync, cfg.Mode())
	assert.Equal(t, engine.KindInProcess, cfg.StoreKind())
	assert.Equal(t, engine.DefaultHTTPAddr, cfg.Server.Addr)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
workers:
  mode: BackgroundQueue
queue:
  kind: sqlite
  uri: sqlite:///tmp/jobs.db
  num_workers: 4
  job_timeout: 2m
  visibility_timeout: 10m
scheduler:
  output: silent
  jobs:
    cleanup:
      shell: true
      run: rm -f /tmp/stale
      schedule: every day at 3am
      tags: [maintenance]
    report:
      run: report.build format:pdf
      schedule: "0 30 9 * * MON-FRI"
server:
  addr: 127.0.0.1:9090
  shutdown_timeout: 3s
`)

	cfg, err := engine.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, queue.ModeBackgroundQueue, cfg.Mode())
	assert.Equal(t, engine.KindSqlite, cfg.StoreKind())
	assert.Equal(t, "sqlite:///tmp/jobs.db", cfg.Queue.URI)
	assert.Equal(t, 4, cfg.Queue.NumWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Queue.JobTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Queue.VisibilityTimeout)
	// Unset keys keep their defaults
	assert.Equal(t, queue.DefaultConfig().PollInterval, cfg.Queue.PollInterval)
	assert.Equal(t, engine.DefaultKeyPrefix, cfg.Queue.KeyPrefix)

	assert.Equal(t, "silent", cfg.Scheduler.Output)
	require.Len(t, cfg.Scheduler.Jobs, 2)
	assert.Equal(t, []string{"maintenance"}, cfg.Scheduler.Jobs["cleanup"].Tags)
	assert.Equal(t, "report.build format:pdf", cfg.Scheduler.Jobs["report"].Run)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadConfig_WithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := engine.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), cfg)
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := engine.LoadConfig(writeConfig(t, "workers:\n  modes: BackgroundQueue\n"))
	require.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := engine.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, config.ErrReadingFile)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JOBKIT_WORKERS_MODE", "BackgroundQueue")
	t.Setenv("JOBKIT_QUEUE_KIND", "Redis")
	t.Setenv("JOBKIT_QUEUE_URI", "redis://localhost:6379/2")
	t.Setenv("JOBKIT_NUM_WORKERS", "8")
	t.Setenv("JOBKIT_HTTP_ADDR", ":7070")

	path := writeConfig(t, `
workers:
  mode: ForegroundBlocking
queue:
  num_workers: 2
  job_timeout: 45s
`)

	cfg, err := engine.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, queue.ModeBackgroundQueue, cfg.Mode())
	assert.Equal(t, engine.KindRedis, cfg.StoreKind())
	assert.Equal(t, "redis://localhost:6379/2", cfg.Queue.URI)
	assert.Equal(t, 8, cfg.Queue.NumWorkers)
	assert.Equal(t, 45*time.Second, cfg.Queue.JobTimeout, "file value survives when no variable is set")
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadConfig_ExpandsEnvInFile(t *testing.T) {
	t.Setenv("JOBKIT_TEST_PG_URI", "postgres://jobkit@localhost/jobs")

	cfg, err := engine.LoadConfig(writeConfig(t, `
workers:
  mode: BackgroundQueue
queue:
  kind: Postgres
  uri: ${JOBKIT_TEST_PG_URI}
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres://jobkit@localhost/jobs", cfg.Queue.URI)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*engine.Config)
		keys   []string
	}{
		{
			name:   "unknown mode",
			mutate: func(c *engine.Config) { c.Workers.Mode = "Eventually" },
			keys:   []string{"workers.mode"},
		},
		{
			name: "queue mode needs kind and uri",
			mutate: func(c *engine.Config) {
				c.Workers.Mode = string(queue.ModeBackgroundQueue)
			},
			keys: []string{"queue.kind", "queue.uri"},
		},
		{
			name: "in-process modes ignore the backend",
			mutate: func(c *engine.Config) {
				c.Workers.Mode = string(queue.ModeForegroundBlocking)
				c.Queue.Kind = "mysql"
			},
		},
		{
			name: "visibility must outlast the job timeout",
			mutate: func(c *engine.Config) {
				c.Workers.Mode = string(queue.ModeBackgroundQueue)
				c.Queue.Kind = "sqlite"
				c.Queue.URI = "jobs.db"
				c.Queue.JobTimeout = 5 * time.Second
				c.Queue.VisibilityTimeout = 5 * time.Second
			},
			keys: []string{"queue.visibility_timeout"},
		},
		{
			name: "default visibility against a long job timeout",
			mutate: func(c *engine.Config) {
				c.Workers.Mode = string(queue.ModeBackgroundQueue)
				c.Queue.Kind = "sqlite"
				c.Queue.URI = "jobs.db"
				c.Queue.JobTimeout = time.Hour
				c.Queue.VisibilityTimeout = 0
			},
			keys: []string{"queue.visibility_timeout"},
		},
		{
			name: "short visibility is fine without a reaping backend",
			mutate: func(c *engine.Config) {
				c.Workers.Mode = string(queue.ModeForegroundBlocking)
				c.Queue.VisibilityTimeout = time.Second
			},
		},
		{
			name:   "workers",
			mutate: func(c *engine.Config) { c.Queue.NumWorkers = 0 },
			keys:   []string{"queue.num_workers"},
		},
		{
			name: "negative durations",
			mutate: func(c *engine.Config) {
				c.Queue.JobTimeout = -time.Second
				c.Server.ShutdownTimeout = -time.Second
			},
			keys: []string{"queue.job_timeout", "server.shutdown_timeout"},
		},
		{
			name:   "output mode",
			mutate: func(c *engine.Config) { c.Scheduler.Output = "loud" },
			keys:   []string{"scheduler.output"},
		},
		{
			name: "schedule entries",
			mutate: func(c *engine.Config) {
				c.Scheduler.Jobs = map[string]schedule.JobConfig{
					"ok":      {Run: "report.build", Schedule: "hourly"},
					"badcron": {Run: "report.build", Schedule: "every fortnight"},
					"nokind":  {Schedule: "daily"},
				}
			},
			keys: []string{"scheduler.jobs.badcron.schedule", "scheduler.jobs.nokind.run"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := engine.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if len(tt.keys) == 0 {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.ElementsMatch(t, tt.keys, configKeys(t, err))
		})
	}
}
