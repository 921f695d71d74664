// Package pg opens the PostgreSQL connection pool used by the relational queue backend.
//
// It offers a retrying Connect built on pgx/v5, a Healthcheck closure for readiness
// probes, Migrate for embedded goose migrations and a few error classifiers:
//
//	pool, err := pg.Connect(ctx, pg.DefaultConfig(uri))
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), slog.Default()); err != nil {
//		return err
//	}
package pg
