// Package sqlite opens the SQLite database used by the relational queue backend.
//
// The database is opened through sqlx on top of mattn/go-sqlite3 with WAL journaling,
// a busy timeout and a single writer connection, which is what SQLite needs to
// serialize concurrent claims from one process:
//
//	db, err := sqlite.Open(ctx, sqlite.DefaultConfig("file:jobs.db"))
//	if err != nil {
//		return err
//	}
//	defer db.Close()
package sqlite
