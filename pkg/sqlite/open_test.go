package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/sqlite"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.db")
	db, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, sqlite.Healthcheck(db)(context.Background()))

	var mode string
	require.NoError(t, db.Get(&mode, `PRAGMA journal_mode`))
	assert.Equal(t, "wal", mode)

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := sqlite.Open(context.Background(), sqlite.Config{})
	assert.ErrorIs(t, err, sqlite.ErrEmptyDSN)
}

func TestHealthcheck_Closed(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(filepath.Join(t.TempDir(), "jobs.db")))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.ErrorIs(t, sqlite.Healthcheck(db)(context.Background()), sqlite.ErrHealthcheckFailed)
}
