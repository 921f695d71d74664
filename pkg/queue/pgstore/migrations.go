package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/jobkit/pkg/migrate"
	"github.com/dmitrymomot/jobkit/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded schema
func Migrations() migrate.Source {
	return migrate.Source{
		Dialect: "postgres",
		FS:      migrations,
		Dir:     "migrations",
	}
}

// Migrate creates or upgrades the jobs table
func Migrate(ctx context.Context, pool *pgxpool.Pool, log migrate.Logger) error {
	return pg.Migrate(ctx, pool, Migrations(), log)
}
