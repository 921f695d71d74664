// Package sqlitestore is the RelationalTable backend on SQLite.
//
// Jobs live in the jobkit_jobs table created by the embedded migrations. A claim is a
// single UPDATE ... WHERE seq = (SELECT ... LIMIT 1) RETURNING statement, so two
// workers cannot take the same row. Tags are stored as a JSON array and matched with
// json_each. Open the database with pkg/sqlite, which limits the pool to one connection.
//
//	db, err := sqlite.Open(ctx, sqlite.DefaultConfig("jobs.db"))
//	if err != nil {
//		return err
//	}
//	if err := sqlitestore.Migrate(ctx, db, logger); err != nil {
//		return err
//	}
//	store := sqlitestore.New(db)
package sqlitestore
