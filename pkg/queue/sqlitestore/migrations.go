package sqlitestore

import (
	"context"
	"embed"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/jobkit/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded schema
func Migrations() migrate.Source {
	return migrate.Source{
		Dialect: "sqlite3",
		FS:      migrations,
		Dir:     "migrations",
	}
}

// Migrate creates or upgrades the jobs table
func Migrate(ctx context.Context, db *sqlx.DB, log migrate.Logger) error {
	return migrate.Up(ctx, db.DB, Migrations(), log)
}
