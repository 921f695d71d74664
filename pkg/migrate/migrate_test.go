package migrate_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/migrate"
)

const createWidgets = `-- +goose Up
CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);

-- +goose Down
DROP TABLE widgets;
`

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUp(t *testing.T) {
	t.Parallel()

	db := openDB(t)
	src := migrate.Source{
		Dialect: "sqlite3",
		FS:      fstest.MapFS{"migrations/00001_widgets.sql": {Data: []byte(createWidgets)}},
		Dir:     "migrations",
	}

	require.NoError(t, migrate.Up(context.Background(), db, src, nil))
	// Applying twice is a no-op
	require.NoError(t, migrate.Up(context.Background(), db, src, nil))

	_, err := db.Exec(`INSERT INTO widgets (name) VALUES ('gear')`)
	require.NoError(t, err)

	var version int64
	err = db.QueryRow(`SELECT MAX(version_id) FROM ` + migrate.DefaultTable).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestUp_Errors(t *testing.T) {
	t.Parallel()

	err := migrate.Up(context.Background(), nil, migrate.Source{Dialect: "sqlite3", FS: fstest.MapFS{}}, nil)
	assert.ErrorIs(t, err, migrate.ErrNilDatabase)
	assert.ErrorIs(t, err, migrate.ErrFailedToApplyMigrations)

	db := openDB(t)
	err = migrate.Up(context.Background(), db, migrate.Source{Dialect: "sqlite3"}, nil)
	assert.ErrorIs(t, err, migrate.ErrNoMigrations)

	err = migrate.Up(context.Background(), db, migrate.Source{Dialect: "oracle", FS: fstest.MapFS{}}, nil)
	assert.ErrorIs(t, err, migrate.ErrFailedToApplyMigrations)
}
