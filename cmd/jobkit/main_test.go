package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunScheduler_List(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  jobs:
    backup:
      shell: true
      run: pg_dump app
      schedule: "@daily"
      tags: [infra]
    digest:
      run: echo to:team
      schedule: every monday at 9am
    rotate:
      shell: true
      run: logrotate /etc/logrotate.conf
      schedule: hourly
      tags: [infra]
`)

	out, err := execute(t, "run-scheduler", "--config", path, "--list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "backup")
	assert.Contains(t, lines[1], "0 0 0 * * * *")
	assert.Contains(t, lines[2], "0 0 9 * * MON *")
	assert.Contains(t, lines[2], "task echo")

	out, err = execute(t, "run-scheduler", "--config", path, "--list", "--tag", "infra")
	require.NoError(t, err)
	assert.NotContains(t, out, "digest")
	assert.Contains(t, out, "backup")
	assert.Contains(t, out, "rotate")
}

func TestRunScheduler_NameRunsShellEntry(t *testing.T) {
	target := filepath.Join(t.TempDir(), "ran.txt")
	path := writeConfig(t, `
scheduler:
  jobs:
    touch:
      shell: true
      run: echo done > `+target+`
      schedule: "0 0 0 1 1 * 2099"
`)

	_, err := execute(t, "run-scheduler", "--config", path, "--name", "touch")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(data))

	_, err = execute(t, "run-scheduler", "--config", path, "--name", "missing")
	assert.Error(t, err)
}

func TestEnqueue_InProcessModes(t *testing.T) {
	for _, mode := range []queue.Mode{queue.ModeForegroundBlocking, queue.ModeBackgroundAsync} {
		path := writeConfig(t, "workers:\n  mode: "+string(mode)+"\n")

		out, err := execute(t, "enqueue", "--config", path, "echo", "msg:hello", "--tag", "eu")
		require.NoError(t, err, mode)
		_, err = uuid.Parse(strings.TrimSpace(out))
		assert.NoError(t, err, mode)
	}
}

func TestEnqueue_HandlerFailure(t *testing.T) {
	path := writeConfig(t, "workers:\n  mode: ForegroundBlocking\n")

	_, err := execute(t, "enqueue", "--config", path, "sleep", "duration:forever")
	assert.ErrorIs(t, err, queue.ErrHandlerFailed)

	_, err = execute(t, "enqueue", "--config", path, "echo", "not-a-pair")
	assert.Error(t, err)
}

func TestSqliteWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "jobs.db")
	path := writeConfig(t, `
workers:
  mode: BackgroundQueue
queue:
  kind: Sqlite
  uri: sqlite://`+db+`
`)

	out, err := execute(t, "migrate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sqlite schema is up to date")

	out, err = execute(t, "enqueue", "--config", path, "echo", "msg:hello")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = execute(t, "status", "--config", path, id)
	require.NoError(t, err)
	var job map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, id, job["id"])
	assert.Equal(t, "pending", job["status"])

	_, err = execute(t, "requeue", "--config", path, id)
	assert.ErrorIs(t, err, queue.ErrNotRequeueable)

	_, err = execute(t, "status", "--config", path, "nope")
	assert.Error(t, err)
}

func TestJobCommandsNeedDurableStore(t *testing.T) {
	_, err := execute(t, "requeue", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BackgroundQueue")
}

func TestMigrate_InProcess(t *testing.T) {
	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "no schema to migrate")
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  jobs:
    broken:
      run: echo
      schedule: sometimes
`)

	_, err := execute(t, "run-scheduler", "--config", path, "--list")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "scheduler.jobs.broken.schedule")
}

func TestStart_RequiresMode(t *testing.T) {
	_, err := execute(t, "start")
	assert.Error(t, err)

	_, err = execute(t, "start", "--worker", "--server-and-worker")
	assert.Error(t, err)
}
